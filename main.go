package main

import (
	"errors"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jessevdk/go-flags"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
)

type options struct {
	Map      string `short:"m" long:"map" description:"map to start in (defaults to the saved map)"`
	Location string `short:"l" long:"location" description:"location in the map to start at" default:"Start"`
	SaveApp  string `long:"save-app" description:"gdata app name for the save slot; empty keeps saves in memory" default:"overworld"`
	Scale    int    `short:"s" long:"scale" description:"window scale" default:"2"`
	Watch    bool   `short:"w" long:"watch" description:"reload prefabs from disk when they change"`
	Debug    bool   `short:"d" long:"debug" description:"draw debug overlays and log at debug level"`
	LogLevel string `long:"log-level" description:"logrus level" default:"info"`
}

func parseCmd() options {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}
	return opts
}

func newLogger(opts options) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	if opts.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}

func openStorage(app string, log logrus.FieldLogger) *gdata.Manager {
	if app == "" {
		return nil
	}
	m, err := gdata.Open(gdata.Config{AppName: app})
	if err != nil {
		log.WithError(err).Warn("save storage unavailable, keeping saves in memory")
		return nil
	}
	return m
}

func main() {
	opts := parseCmd()
	log := newLogger(opts)

	game, err := NewGame(opts, openStorage(opts.SaveApp, log), log)
	if err != nil {
		log.WithError(err).Fatal("start overworld")
	}
	defer game.Close()

	ebiten.SetWindowSize(game.Width()*opts.Scale, game.Height()*opts.Scale)
	ebiten.SetWindowTitle("overworld")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, errQuit) {
		log.WithError(err).Fatal("overworld stopped")
	}
}
