package system

import (
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
	"github.com/milk9111/overworld/prefabs"
)

// ScriptLoader returns the tengo source of a cutscene.
type ScriptLoader func(name string) ([]byte, error)

// firstRoutine is played when a cutscene starts unless the script sets
// first_routine.
const firstRoutine = "Entry"

// routineDispatchScript is appended to every cutscene. Cutscenes define
// `routines := { Name: func(engine, args) { ... } }`.
const routineDispatchScript = `
if __routine != "" {
	__fn := routines[__routine]
	if is_undefined(__fn) {
		__missing = true
	} else {
		__fn(__engine, __args)
	}
}
`

type cutscene struct {
	name     string
	compiled *tengo.Compiled
	first    string
}

// ScriptScenePlayer runs cutscenes written as tengo scripts. A routine
// never runs inside another; routines started while one is running are
// queued for the next tick.
type ScriptScenePlayer struct {
	ctx    *Context
	walk   *WalkingSystem
	anim   *Animator
	act    *ActivatorSystem
	load   ScriptLoader
	cache  map[string]*cutscene
	engine *tengo.ImmutableMap

	current *cutscene
	args    SceneArgs
	running bool

	// playing is the cutscene whose routine is running, which need not be
	// current when a routine is named as "Cutscene.Routine".
	playing     *cutscene
	playingArgs SceneArgs
}

func NewScriptScenePlayer(ctx *Context, walk *WalkingSystem, anim *Animator, act *ActivatorSystem, load ScriptLoader) *ScriptScenePlayer {
	if load == nil {
		load = func(name string) ([]byte, error) { return prefabs.LoadScript(name + ".tengo") }
	}
	p := &ScriptScenePlayer{
		ctx:   ctx,
		walk:  walk,
		anim:  anim,
		act:   act,
		load:  load,
		cache: make(map[string]*cutscene),
	}
	p.engine = p.buildEngine()
	return p
}

// Reload drops every compiled cutscene so edited scripts take effect.
func (p *ScriptScenePlayer) Reload() {
	p.cache = make(map[string]*cutscene)
}

// Cutscene returns the name of the running cutscene, if any.
func (p *ScriptScenePlayer) Cutscene() string {
	if p.current == nil {
		return ""
	}
	return p.current.name
}

func (p *ScriptScenePlayer) cutscene(name string) (*cutscene, error) {
	if c, ok := p.cache[name]; ok {
		return c, nil
	}
	src, err := p.load(name)
	if err != nil {
		return nil, fmt.Errorf("cutscene %q: %w", name, err)
	}

	script := tengo.NewScript(append(append([]byte(nil), src...), routineDispatchScript...))
	_ = script.Add("__routine", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__args", map[string]any{})
	_ = script.Add("__missing", false)
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("cutscene %q: compile: %w", name, err)
	}

	c := &cutscene{name: name, compiled: compiled, first: firstRoutine}
	if err := c.compiled.Run(); err != nil {
		return nil, fmt.Errorf("cutscene %q: %w", name, err)
	}
	if compiled.IsDefined("first_routine") {
		if s := strings.TrimSpace(compiled.Get("first_routine").String()); s != "" {
			c.first = s
		}
	}
	p.cache[name] = c
	return c, nil
}

// StartCutscene makes name the current cutscene and plays its first
// routine.
func (p *ScriptScenePlayer) StartCutscene(name string, args SceneArgs) error {
	c, err := p.cutscene(name)
	if err != nil {
		return err
	}
	p.ctx.logger().WithField("cutscene", name).Debug("cutscene started")
	p.current = c
	p.args = args
	return p.play(c, c.first, args)
}

// PlayRoutine plays a routine of the current cutscene. "Cutscene.Routine"
// names a routine of any cutscene without switching to it.
func (p *ScriptScenePlayer) PlayRoutine(name string, args SceneArgs) error {
	c := p.current
	if scene, routine, ok := strings.Cut(name, "."); ok {
		var err error
		if c, err = p.cutscene(scene); err != nil {
			return err
		}
		name = routine
	}
	if c == nil {
		return fmt.Errorf("routine %q: no cutscene is playing", name)
	}
	return p.play(c, name, args)
}

// BindCutscene defers StartCutscene until the returned func is called.
func (p *ScriptScenePlayer) BindCutscene(name string, args SceneArgs) func() error {
	return func() error {
		return p.StartCutscene(name, args)
	}
}

// StopCutscene forgets the current cutscene.
func (p *ScriptScenePlayer) StopCutscene() {
	p.current = nil
	p.args = SceneArgs{}
}

func (p *ScriptScenePlayer) play(c *cutscene, routine string, args SceneArgs) error {
	if p.running {
		p.ctx.Time.AddEvent(func() error {
			return p.play(c, routine, args)
		}, 1)
		return nil
	}
	if args.Player == 0 {
		if pe, ok := ecs.First(p.ctx.World, component.PlayerComponent.Kind()); ok {
			args.Player = pe
		}
	}
	p.running = true
	p.playing, p.playingArgs = c, args
	defer func() {
		p.running = false
		p.playing = nil
	}()

	if err := c.compiled.Set("__routine", routine); err != nil {
		return err
	}
	if err := c.compiled.Set("__engine", p.engine); err != nil {
		return err
	}
	if err := c.compiled.Set("__args", map[string]any{
		"player":         int64(args.Player),
		"triggerer":      int64(args.Triggerer),
		"sight_detector": int64(args.SightDetector),
	}); err != nil {
		return err
	}
	if err := c.compiled.Set("__missing", false); err != nil {
		return err
	}
	if err := c.compiled.Run(); err != nil {
		return fmt.Errorf("cutscene %s routine %s: %w", c.name, routine, err)
	}
	if c.compiled.Get("__missing").Bool() {
		return fmt.Errorf("cutscene %s: unknown routine %q", c.name, routine)
	}
	return nil
}

// next returns a callback playing routine in the current cutscene, or nil
// for an empty name.
func (p *ScriptScenePlayer) next(routine string) func() error {
	if routine == "" {
		return nil
	}
	c, args := p.current, p.args
	if p.playing != nil {
		c, args = p.playing, p.playingArgs
	}
	return func() error {
		if c == nil {
			return fmt.Errorf("routine %q: no cutscene is playing", routine)
		}
		return p.play(c, routine, args)
	}
}

func (p *ScriptScenePlayer) buildEngine() *tengo.ImmutableMap {
	values := map[string]tengo.Object{}
	fn := func(name string, f tengo.CallableFunc) {
		values[name] = &tengo.UserFunction{Name: name, Value: f}
	}

	fn("walk", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 3 {
			return nil, tengo.ErrWrongNumArguments
		}
		e := objectAsEntity(args[0])
		d, err := objectAsDirection(args[1])
		if err != nil {
			return nil, err
		}
		plan := component.Walk(d, objectAsInt(args[2]))
		if then := p.next(optionalString(args, 3)); then != nil {
			plan.Append(component.Invoke{Fn: func() (bool, error) {
				return true, then()
			}})
		}
		return tengo.UndefinedValue, p.walk.StartWalkingCycle(e, d, plan)
	})

	fn("dialog", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		lines := objectAsStrings(args[0])
		then := p.next(optionalString(args, 1))
		p.ctx.Menus.CreateMenu(menu.GeneralText, nil)
		p.ctx.Menus.AddMenuDialog(menu.GeneralText, lines, then)
		p.ctx.Menus.SetActiveMenu(menu.GeneralText)
		return tengo.UndefinedValue, nil
	})

	fn("talk", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		return tengo.UndefinedValue, p.act.Talk(objectAsEntity(args[0]), objectAsEntity(args[1]))
	})

	fn("exclamation", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		_, err := p.anim.Exclamation(objectAsEntity(args[0]), 0, p.next(optionalString(args, 1)))
		return tengo.UndefinedValue, err
	})

	fn("fade_to_color", func(args ...tengo.Object) (tengo.Object, error) {
		_, err := p.anim.FadeToColor(ColorFade{Color: optionalString(args, 0), Callback: p.next(optionalString(args, 1))})
		return tengo.UndefinedValue, err
	})

	fn("fade_from_color", func(args ...tengo.Object) (tengo.Object, error) {
		_, err := p.anim.FadeFromColor(ColorFade{Color: optionalString(args, 0), Callback: p.next(optionalString(args, 1))})
		return tengo.UndefinedValue, err
	})

	fn("delay", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		if then := p.next(objectAsString(args[1])); then != nil {
			p.ctx.Time.AddEvent(then, objectAsInt(args[0]))
		}
		return tengo.UndefinedValue, nil
	})

	fn("set_direction", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		d, err := objectAsDirection(args[1])
		if err != nil {
			return nil, err
		}
		p.walk.SetDirection(objectAsEntity(args[0]), d)
		return tengo.UndefinedValue, nil
	})

	fn("facing", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		t, ok := p.ctx.thing(objectAsEntity(args[0]))
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return &tengo.Int{Value: int64(t.Direction)}, nil
	})

	fn("cells_between", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		a, okA := p.ctx.thing(objectAsEntity(args[0]))
		b, okB := p.ctx.thing(objectAsEntity(args[1]))
		if !okA || !okB {
			return &tengo.Int{Value: 0}, nil
		}
		return &tengo.Int{Value: int64(cellsBetween(a, b, p.ctx.Game.GridSize()))}, nil
	})

	fn("follow", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		return tengo.UndefinedValue, p.walk.Follow(objectAsEntity(args[0]), objectAsEntity(args[1]))
	})

	fn("follow_stop", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		p.walk.FollowStop(objectAsEntity(args[0]))
		return tengo.UndefinedValue, nil
	})

	fn("block_inputs", func(args ...tengo.Object) (tengo.Object, error) {
		p.ctx.Screen.BlockInputs = true
		return tengo.UndefinedValue, nil
	})

	fn("unblock_inputs", func(args ...tengo.Object) (tengo.Object, error) {
		p.ctx.Screen.BlockInputs = false
		return tengo.UndefinedValue, nil
	})

	fn("kill", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		p.ctx.kill(objectAsEntity(args[0]))
		return tengo.UndefinedValue, nil
	})

	fn("add_item", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		amount := 1
		if len(args) > 1 {
			amount = objectAsInt(args[1])
		}
		p.ctx.Items.AddItemToBag(objectAsString(args[0]), amount)
		return tengo.UndefinedValue, nil
	})

	fn("start_battle", func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		return tengo.UndefinedValue, p.ctx.Battles.StartTrainerBattle(objectAsEntity(args[0]), objectAsEntity(args[1]))
	})

	fn("play_theme", func(args ...tengo.Object) (tengo.Object, error) {
		return tengo.UndefinedValue, p.ctx.Audio.PlayTheme(optionalString(args, 0))
	})

	fn("stop_cutscene", func(args ...tengo.Object) (tengo.Object, error) {
		p.StopCutscene()
		return tengo.UndefinedValue, nil
	})

	fn("log", func(args ...tengo.Object) (tengo.Object, error) {
		parts := make([]string, 0, len(args))
		for _, a := range args {
			parts = append(parts, objectAsString(a))
		}
		p.ctx.logger().WithField("cutscene", p.Cutscene()).Info(strings.Join(parts, " "))
		return tengo.UndefinedValue, nil
	})

	return &tengo.ImmutableMap{Value: values}
}

// cellsBetween counts the empty grid cells between two things on a line.
func cellsBetween(a, b *component.Thing, grid float64) int {
	var gap float64
	switch {
	case b.Top >= a.Bottom():
		gap = b.Top - a.Bottom()
	case a.Top >= b.Bottom():
		gap = a.Top - b.Bottom()
	case b.Left >= a.Right():
		gap = b.Left - a.Right()
	case a.Left >= b.Right():
		gap = a.Left - b.Right()
	}
	if grid <= 0 {
		return 0
	}
	return int(gap/grid + 0.5)
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	case *tengo.Undefined:
		return ""
	default:
		return strings.Trim(v.String(), "\"")
	}
}

func optionalString(args []tengo.Object, i int) string {
	if i >= len(args) {
		return ""
	}
	return objectAsString(args[i])
}

func objectAsInt(obj tengo.Object) int {
	n, _ := tengo.ToInt(obj)
	return n
}

func objectAsEntity(obj tengo.Object) ecs.Entity {
	n, _ := tengo.ToInt64(obj)
	return ecs.Entity(n)
}

func objectAsDirection(obj tengo.Object) (component.Direction, error) {
	if s, ok := obj.(*tengo.String); ok {
		return component.ParseDirection(s.Value)
	}
	d := component.Direction(objectAsInt(obj))
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %s", component.ErrUnknownDirection, obj.String())
	}
	return d, nil
}

func objectAsStrings(obj tengo.Object) []string {
	switch v := obj.(type) {
	case *tengo.Array:
		out := make([]string, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectAsString(item))
		}
		return out
	case *tengo.ImmutableArray:
		out := make([]string, 0, len(v.Value))
		for _, item := range v.Value {
			out = append(out, objectAsString(item))
		}
		return out
	}
	return []string{objectAsString(obj)}
}
