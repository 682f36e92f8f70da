package system

import (
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/levels"
	"github.com/milk9111/overworld/menu"
	"github.com/milk9111/overworld/prefabs"
	"github.com/sirupsen/logrus"
)

// Physics is the collision collaborator.
type Physics interface {
	// UpdateBordering refreshes Thing.Bordering for every thing.
	UpdateBordering(w *ecs.World)
	// DirectionBordering reports the side of a that b sits against.
	DirectionBordering(w *ecs.World, a, b ecs.Entity) (component.Direction, bool)
	Hits(a, b *component.Thing) bool
	// Touches is Hits widened by the bordering tolerance.
	Touches(a, b *component.Thing) bool
	Kill(w *ecs.World, e ecs.Entity)
}

// ThingSettings overrides template fields when a thing is created.
type ThingSettings struct {
	Width     float64
	Height    float64
	Opacity   *float64
	Direction component.Direction
	GroupType string
}

// ThingMaker creates things from templates.
type ThingMaker interface {
	Add(title string, settings ThingSettings) (ecs.Entity, *component.Thing, error)
}

// MenuGrapher is the menu and dialog collaborator.
type MenuGrapher interface {
	CreateMenu(name string, attrs map[string]any)
	HasMenu(name string) bool
	DeleteMenu(name string)
	DeleteAllMenus()
	AddMenuDialog(name string, dialog []string, onCompletion func() error)
	AddMenuList(name string, options []menu.Option)
	SetActiveMenu(name string)
	ActiveMenu() string
	RegisterDirection(d component.Direction) error
	RegisterA() error
	RegisterB() error
}

// ItemsHolder holds the persisted player items.
type ItemsHolder interface {
	HasBadge(leader string) bool
	Party() []component.PartyMember
	AddItemToBag(item string, amount int)
	SelectItem() string
	SetItem(key string, value any)
	AutoSave() error
}

// StateHolder records per-thing changes so a reload can replay them.
type StateHolder interface {
	AddChange(id, key string, value any)
	AddStateHistory(id, key string, value any)
	// PopStateHistory returns the most recent value saved for id and key.
	PopStateHistory(id, key string) (any, bool)
	SetCollection(name string)
}

// Maps is the map and area collaborator.
type Maps interface {
	Area(mapName, areaName string) (*levels.Area, error)
	CurrentArea() *levels.Area
	SetArea(mapName, areaName string) (*levels.Area, error)
	SetMap(name, location string) error
	SetLocation(name string) error
	ActivateAreaSpawner(spawner uint64, area *levels.Area) error
}

// SceneArgs are the things a cutscene is about.
type SceneArgs struct {
	Player        ecs.Entity
	Triggerer     ecs.Entity
	SightDetector ecs.Entity
}

// ScenePlayer runs named cutscenes and routines.
type ScenePlayer interface {
	StartCutscene(name string, args SceneArgs) error
	PlayRoutine(name string, args SceneArgs) error
	BindCutscene(name string, args SceneArgs) func() error
}

// AudioPlayer plays area themes.
type AudioPlayer interface {
	ThemeName() string
	PlayTheme(name string) error
	ToggleMuted()
}

// NumberMaker returns a uniform int in [0, n).
type NumberMaker interface {
	RandomInt(n int) int
}

// Battles is the hand-off point into battles.
type Battles interface {
	CheckGrassBattle(player ecs.Entity) bool
	StartTrainerBattle(player, trainer ecs.Entity) error
}

// PauseMenus is the pause menu collaborator.
type PauseMenus interface {
	TogglePauseMenu()
	ClosePauseMenu()
	DisplayMessage(player ecs.Entity, message string)
}

// Screen is the map screener: the visible window into the current area.
type Screen struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
	Width  float64
	Height float64

	BlockInputs bool
	Paused      bool
}

// InFrame reports whether any part of t is on screen.
func (s *Screen) InFrame(t *component.Thing) bool {
	return t.Bottom() >= 0 && t.Left <= s.Width && t.Top <= s.Height && t.Right() >= 0
}

// Context carries every collaborator the overworld core talks to.
type Context struct {
	World    *ecs.World
	Time     *ecs.TimeHandler
	Physics  Physics
	Things   ThingMaker
	Menus    MenuGrapher
	Items    ItemsHolder
	State    StateHolder
	Maps     Maps
	Scenes   ScenePlayer
	Audio    AudioPlayer
	Numbers  NumberMaker
	Battles  Battles
	Pause    PauseMenus
	Screen   *Screen
	Game     prefabs.GameSpec
	ItemDefs map[string]prefabs.ItemSpec
	Log      logrus.FieldLogger

	failure error
}

// Fail records the first error raised inside a system update. The game loop
// returns it from Update so content bugs stop the game.
func (c *Context) Fail(err error) {
	if err == nil || c.failure != nil {
		return
	}
	c.failure = err
	c.logger().WithError(err).Error("overworld update failed")
}

// Failure returns the error recorded by Fail.
func (c *Context) Failure() error {
	return c.failure
}

func (c *Context) logger() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Context) thing(e ecs.Entity) (*component.Thing, bool) {
	return ecs.Get(c.World, e, component.ThingComponent.Kind())
}

func (c *Context) character(e ecs.Entity) (*component.Character, bool) {
	return ecs.Get(c.World, e, component.CharacterComponent.Kind())
}

func (c *Context) player(e ecs.Entity) (*component.Player, bool) {
	return ecs.Get(c.World, e, component.PlayerComponent.Kind())
}

func (c *Context) detector(e ecs.Entity) (*component.Detector, bool) {
	return ecs.Get(c.World, e, component.DetectorComponent.Kind())
}

func (c *Context) activeMenu() bool {
	return c.Menus != nil && c.Menus.ActiveMenu() != ""
}

func (c *Context) kill(e ecs.Entity) {
	if t, ok := c.thing(e); ok {
		t.Alive = false
	}
	c.Physics.Kill(c.World, e)
}

func (c *Context) fire(name string, e ecs.Entity, data any) {
	c.World.Events().Push(ecs.Event{Type: name, Entity: e, Data: data})
}

func thingID(t *component.Thing) string {
	if t == nil {
		return ""
	}
	return t.ID
}
