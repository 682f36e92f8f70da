// Command overworld-tty runs the overworld in a terminal, one cell per grid
// square.
package main

import (
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jessevdk/go-flags"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/ecs/system"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
)

const frame = time.Second / 60

type options struct {
	Map      string `short:"m" long:"map" description:"map to start in"`
	Location string `short:"l" long:"location" description:"location to start at" default:"Start"`
	SaveApp  string `long:"save-app" description:"gdata app name for the save slot" default:"overworld"`
	LogFile  string `long:"log-file" description:"write logs here instead of discarding them"`
	LogLevel string `long:"log-level" default:"info"`
}

func main() {
	var opts options
	if _, err := flags.NewParser(&opts, flags.Default).Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	log := logrus.New()
	log.SetOutput(discard{})
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logrus.WithError(err).Fatal("open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	}
	if level, err := logrus.ParseLevel(opts.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := run(opts, log); err != nil {
		logrus.WithError(err).Fatal("overworld-tty")
	}
}

func run(opts options, log *logrus.Logger) error {
	var storage *gdata.Manager
	if opts.SaveApp != "" {
		m, err := gdata.Open(gdata.Config{AppName: opts.SaveApp})
		if err != nil {
			log.WithError(err).Warn("save storage unavailable")
		} else {
			storage = m
		}
	}

	keys := NewTtyKeys()
	core, err := system.NewCore(system.CoreOptions{Storage: storage, Keys: keys, Log: log})
	if err != nil {
		return err
	}
	if err := core.Start(opts.Map, opts.Location); err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	for range ticker.C {
	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case *tcell.EventKey:
					if ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyEscape {
						return core.Store.Save()
					}
					keys.Feed(ev)
				case *tcell.EventResize:
					screen.Sync()
				}
			default:
				break drain
			}
		}

		if err := core.Update(); err != nil {
			return err
		}
		keys.Advance()
		draw(screen, core)
	}
	return nil
}

var groupRunes = map[string]rune{
	"Terrain":   '.',
	"Solid":     '#',
	"Character": 'o',
}

var facingRunes = [4]rune{'^', '>', 'v', '<'}

func draw(screen tcell.Screen, core *system.Core) {
	screen.Clear()
	ctx := core.Context
	grid := ctx.Game.GridSize()
	base := tcell.StyleDefault

	layers := []string{"Terrain", "Solid", "Character"}
	for _, group := range layers {
		ecs.ForEach(core.World, component.ThingComponent.Kind(), func(e ecs.Entity, t *component.Thing) {
			if !t.Alive || t.Hidden || t.GroupType != group {
				return
			}
			r := groupRunes[group]
			style := base
			if ch, ok := ecs.Get(core.World, e, component.CharacterComponent.Kind()); ok && ch != nil {
				r = facingRunes[t.Direction]
				style = base.Foreground(tcell.ColorBlue)
			}
			if _, ok := ecs.Get(core.World, e, component.PlayerComponent.Kind()); ok {
				style = base.Foreground(tcell.ColorRed).Bold(true)
			}
			x0, y0 := int((t.Left+grid/2)/grid), int((t.Top+grid/2)/grid)
			w, h := max(1, int(t.UnitWidth/grid)), max(1, int(t.UnitHeight/grid))
			for y := y0; y < y0+h; y++ {
				for x := x0; x < x0+w; x++ {
					screen.SetContent(x*2, y, r, nil, style)
				}
			}
		})
	}

	_, height := screen.Size()
	if m, ok := core.Menus.Menu(core.Menus.ActiveMenu()); ok {
		line := m.Text()
		for i, opt := range m.Options {
			prefix := "  "
			if i == m.Selected {
				prefix = "> "
			}
			line += prefix + opt.Text + " "
		}
		drawText(screen, 0, height-2, line, base.Reverse(true))
	}
	if ctx.Screen.Paused {
		drawText(screen, 0, height-1, "PAUSED (p to resume)", base.Bold(true))
	}
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
