package main

import (
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/overworld/assets"
	"github.com/milk9111/overworld/ecs/system"
	"github.com/milk9111/overworld/prefabs"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
	"golang.design/x/clipboard"
)

// Game drives the overworld core from ebiten.
type Game struct {
	core    *system.Core
	render  *system.RenderSystem
	pauseUI *ebitenui.UI
	watcher *prefabs.Watcher
	log     logrus.FieldLogger
	debug   bool
	quit    bool

	clipboardOnce sync.Once
	clipboardErr  error
}

func NewGame(opts options, storage *gdata.Manager, log logrus.FieldLogger) (*Game, error) {
	core, err := system.NewCore(system.CoreOptions{
		Storage: storage,
		Keys:    &system.EbitenKeys{},
		Tracks:  loadTrack,
		Log:     log,
	})
	if err != nil {
		return nil, err
	}
	if err := core.Start(opts.Map, opts.Location); err != nil {
		return nil, err
	}

	g := &Game{
		core:   core,
		render: system.NewRenderSystem(core.Things, core.Menus, 1),
		log:    log,
		debug:  opts.Debug,
	}
	g.pauseUI = NewPauseUI(g)

	if opts.Watch {
		w, err := prefabs.NewWatcher("prefabs", filepath.Join("prefabs", "scripts"), "levels")
		if err != nil {
			log.WithError(err).Warn("prefab watcher unavailable")
		} else {
			g.watcher = w
		}
	}
	return g, nil
}

func loadTrack(name string) (system.Track, error) {
	path, err := assets.ThemePath(name)
	if err != nil {
		return nil, err
	}
	p, err := assets.LoadAudioPlayer(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (g *Game) Width() int {
	return int(g.core.Context.Screen.Width)
}

func (g *Game) Height() int {
	return int(g.core.Context.Screen.Height)
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if err := g.core.Store.Save(); err != nil {
		g.log.WithError(err).Warn("save on exit")
	}
}

func (g *Game) Update() error {
	if g.quit {
		return errQuit
	}
	g.drainWatcher()

	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		g.copySnapshot()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	if g.core.Context.Screen.Paused {
		g.pauseUI.Update()
	}
	if err := g.core.Update(); err != nil {
		return err
	}
	for _, ev := range g.core.Events() {
		g.log.WithFields(logrus.Fields{"event": ev.Type, "entity": ev.Entity.String()}).Trace("overworld event")
	}
	return nil
}

func (g *Game) drainWatcher() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Changes:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(change)
		case err, ok := <-g.watcher.Errors:
			if ok && err != nil {
				g.log.WithError(err).Warn("prefab watcher")
			}
		default:
			return
		}
	}
}

func (g *Game) applyChange(change prefabs.Change) {
	log := g.log.WithFields(logrus.Fields{"file": change.Path, "kind": change.Kind.String()})
	switch change.Kind {
	case prefabs.ChangeScript:
		g.core.Scenes.Reload()
		log.Info("cutscenes reloaded")
	case prefabs.ChangeMap:
		name := strings.TrimSuffix(filepath.Base(change.Path), filepath.Ext(change.Path))
		if !g.core.Maps.Forget(name) {
			log.Debug("map not cached or in use")
			return
		}
		log.Info("map reloaded")
	default:
		if err := g.core.Reload(); err != nil {
			log.WithError(err).Warn("reload prefabs")
		}
	}
}

// copySnapshot puts the current save on the clipboard.
func (g *Game) copySnapshot() {
	g.clipboardOnce.Do(func() {
		g.clipboardErr = clipboard.Init()
	})
	if g.clipboardErr != nil {
		g.log.WithError(g.clipboardErr).Warn("clipboard unavailable")
		return
	}
	snapshot, err := g.core.Store.Snapshot()
	if err != nil {
		g.log.WithError(err).Warn("snapshot")
		return
	}
	clipboard.Write(clipboard.FmtText, snapshot)
	g.log.WithField("bytes", len(snapshot)).Info("save snapshot copied")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	g.render.Draw(g.core.World, screen)
	if g.debug {
		system.DrawBorderingDebug(g.core.World, screen, 1)
		system.DrawPlayerStateDebug(g.core.Context, screen)
	}
	if g.core.Context.Screen.Paused {
		g.pauseUI.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.Width(), g.Height()
}

// errQuit ends RunGame when the player quits from the pause menu.
var errQuit = errors.New("quit")
