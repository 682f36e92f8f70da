package system

import (
	"fmt"
	"time"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/levels"
	"github.com/milk9111/overworld/menu"
	"github.com/milk9111/overworld/prefabs"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
)

// CoreOptions configures NewCore. Zero values fall back to the embedded
// prefabs, a time seeded RNG, memory-only storage and silent themes.
type CoreOptions struct {
	Game      *prefabs.GameSpec
	Templates map[string]prefabs.ThingSpec
	Items     map[string]prefabs.ItemSpec
	Storage   *gdata.Manager
	Keys      KeySource
	Tracks    TrackLoader
	Scripts   ScriptLoader
	Numbers   NumberMaker
	Log       logrus.FieldLogger
}

// Core is a wired overworld: the world, its collaborators and the systems
// run each frame.
type Core struct {
	Context *Context

	World    *ecs.World
	Time     *ecs.TimeHandler
	Menus    *menu.Grapher
	Maps     *levels.Catalog
	Store    *Persistence
	Things   *Things
	Scenes   *ScriptScenePlayer
	Music    *ThemePlayer
	Walk     *WalkingSystem
	Anim     *Animator
	Act      *ActivatorSystem
	Router   *InputRouter
	Loader   *AreaLoader
	Scroller *MapScroller
	Physics  *GridPhysics

	scheduler *ecs.Scheduler
	events    []ecs.Event
}

func NewCore(opts CoreOptions) (*Core, error) {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	game := prefabs.DefaultGameSpec()
	if opts.Game != nil {
		game = *opts.Game
	} else if loaded, err := prefabs.LoadGameSpec(); err == nil {
		game = loaded
	} else {
		log.WithError(err).Warn("using default game constants")
	}

	templates := opts.Templates
	if templates == nil {
		var err error
		if templates, err = prefabs.LoadThingsSpec(); err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
	}
	items := opts.Items
	if items == nil {
		var err error
		if items, err = prefabs.LoadItemsSpec(); err != nil {
			return nil, fmt.Errorf("core: %w", err)
		}
	}

	numbers := opts.Numbers
	if numbers == nil {
		numbers = NewRandomNumbers(time.Now().UnixNano())
	}

	w := ecs.NewWorld()
	c := &Core{
		World:   w,
		Time:    ecs.NewTimeHandler(w),
		Menus:   menu.NewGrapher(log),
		Maps:    levels.NewCatalog(),
		Store:   NewPersistence(opts.Storage, log),
		Music:   NewThemePlayer(opts.Tracks, log),
		Physics: NewGridPhysics(),
	}
	if err := c.Store.Load(); err != nil {
		log.WithError(err).Warn("starting without a save")
	}

	ctx := &Context{
		World:    w,
		Time:     c.Time,
		Physics:  c.Physics,
		Menus:    c.Menus,
		Items:    c.Store,
		State:    c.Store,
		Maps:     c.Maps,
		Audio:    c.Music,
		Numbers:  numbers,
		Screen:   &Screen{Width: game.Screen.Width, Height: game.Screen.Height, Right: game.Screen.Width, Bottom: game.Screen.Height},
		Game:     game,
		ItemDefs: items,
		Log:      log,
	}
	c.Context = ctx

	c.Things = NewThings(ctx, templates)
	ctx.Things = c.Things
	ctx.Battles = NewBattleHandoff(ctx)
	ctx.Pause = NewScreenPause(ctx)

	c.Walk = NewWalkingSystem(ctx)
	c.Anim = NewAnimator(ctx)
	c.Act = NewActivatorSystem(ctx, c.Walk, c.Anim)
	c.Scenes = NewScriptScenePlayer(ctx, c.Walk, c.Anim, c.Act, opts.Scripts)
	ctx.Scenes = c.Scenes
	c.Router = NewInputRouter(ctx, c.Walk, c.Act)
	c.Loader = NewAreaLoader(ctx, c.Things, c.Act, c.Store)
	c.Scroller = NewMapScroller(ctx)

	c.Maps.OnEnter = c.Loader.Enter
	c.Maps.OnSpawn = c.Loader.SpawnArea

	c.scheduler = ecs.NewScheduler()
	if opts.Keys != nil {
		c.scheduler.Add(NewInputSystem(ctx, c.Router, opts.Keys))
	}
	c.scheduler.Add(unlessPaused{ctx, c.Physics})
	c.scheduler.Add(NewTimeSystem(ctx))
	c.scheduler.Add(unlessPaused{ctx, c.Walk})
	c.scheduler.Add(unlessPaused{ctx, c.Act})
	c.scheduler.Add(unlessPaused{ctx, c.Scroller})
	c.scheduler.Add(c.Music)
	return c, nil
}

// Start enters mapName at location, or where the save left off when both
// are empty.
func (c *Core) Start(mapName, location string) error {
	if mapName == "" {
		mapName, _ = c.savedString("map")
		location, _ = c.savedString("location")
	}
	if mapName == "" {
		return fmt.Errorf("core: no map to start in")
	}
	if location == "" {
		location = "Start"
	}
	return c.Maps.SetMap(mapName, location)
}

func (c *Core) savedString(key string) (string, bool) {
	v, ok := c.Store.Item(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Update runs one frame. An error recorded by any system ends the game.
func (c *Core) Update() error {
	c.scheduler.Update(c.World)
	c.events = c.World.Events().Drain()
	return c.Context.Failure()
}

// Events returns the events pushed during the last Update.
func (c *Core) Events() []ecs.Event {
	return c.events
}

// Reload re-reads the prefabs after an edit. Running things keep their
// current state.
func (c *Core) Reload() error {
	game, err := prefabs.LoadGameSpec()
	if err != nil {
		return err
	}
	templates, err := prefabs.LoadThingsSpec()
	if err != nil {
		return err
	}
	items, err := prefabs.LoadItemsSpec()
	if err != nil {
		return err
	}
	c.Context.Game = game
	c.Context.ItemDefs = items
	c.Things.SetTemplates(templates)
	c.Scenes.Reload()
	c.Context.logger().Info("prefabs reloaded")
	return nil
}

// unlessPaused skips a system while the pause menu is open.
type unlessPaused struct {
	ctx *Context
	ecs.System
}

func (u unlessPaused) Update(w *ecs.World) {
	if u.ctx.Screen.Paused {
		return
	}
	u.System.Update(w)
}
