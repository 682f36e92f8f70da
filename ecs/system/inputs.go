package system

import (
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

// Key is a logical game button.
type Key int

const (
	KeyUp Key = iota
	KeyRight
	KeyDown
	KeyLeft
	KeyA
	KeyB
	KeyPause
	KeyMute
	KeySelect
)

// Direction maps a directional key to its direction.
func (k Key) Direction() (component.Direction, bool) {
	if k >= KeyUp && k <= KeyLeft {
		return component.Direction(k), true
	}
	return 0, false
}

var keyDownEvents = [4]string{"onKeyDownUpReal", "onKeyDownRight", "onKeyDownDown", "onKeyDownLeft"}
var keyUpEvents = [4]string{"onKeyUpUp", "onKeyUpRight", "onKeyUpDown", "onKeyUpLeft"}

// InputRouter turns button presses into key state, walking and menu input.
type InputRouter struct {
	ctx        *Context
	walk       *WalkingSystem
	activators *ActivatorSystem
}

func NewInputRouter(ctx *Context, walk *WalkingSystem, activators *ActivatorSystem) *InputRouter {
	return &InputRouter{ctx: ctx, walk: walk, activators: activators}
}

// CanDirectionsTrigger reports whether direction keys do anything: never
// while paused, always for an open menu, otherwise unless input is blocked.
func (r *InputRouter) CanDirectionsTrigger() bool {
	if r.ctx.Screen.Paused {
		return false
	}
	if r.ctx.activeMenu() {
		return true
	}
	return !r.ctx.Screen.BlockInputs
}

func (r *InputRouter) delay(d component.Direction) int {
	delays := r.ctx.Game.InputDelays
	switch d {
	case component.Top:
		return delays.Up
	case component.Right:
		return delays.Right
	case component.Bottom:
		return delays.Down
	}
	return delays.Left
}

// KeyDown routes a press of key by e.
func (r *InputRouter) KeyDown(e ecs.Entity, key Key) error {
	if d, ok := key.Direction(); ok {
		r.KeyDownDirection(e, d)
		return nil
	}
	switch key {
	case KeyA:
		return r.KeyDownA(e)
	case KeyB:
		return r.KeyDownB(e)
	case KeyPause:
		r.KeyDownPause(e)
	case KeyMute:
		r.KeyDownMute(e)
	case KeySelect:
		return r.KeyDownSelect(e)
	}
	return nil
}

// KeyUp routes a release of key by e.
func (r *InputRouter) KeyUp(e ecs.Entity, key Key) {
	if d, ok := key.Direction(); ok {
		r.KeyUpDirection(e, d)
		return
	}
	switch key {
	case KeyA:
		r.KeyUpA(e)
	case KeyB:
		r.KeyUpB(e)
	case KeyPause:
		r.ctx.fire("onKeyUpPause", e, nil)
	}
}

// KeyDownDirection marks d held and confirms it after the direction's input
// delay, so keys pressed together settle first.
func (r *InputRouter) KeyDownDirection(e ecs.Entity, d component.Direction) {
	if !r.CanDirectionsTrigger() {
		return
	}

	if player, ok := r.ctx.player(e); ok {
		player.Keys.Directions[d] = true
	}
	r.ctx.Time.AddEventFor(e, func() error {
		return r.KeyDownDirectionReal(e, d)
	}, r.delay(d))

	r.ctx.fire(keyDownEvents[d], e, d)
}

// KeyDownDirectionReal acts on a direction still held after its delay:
// menus get it as navigation, otherwise the player turns and walks or
// queues the direction for the end of the current step.
func (r *InputRouter) KeyDownDirectionReal(e ecs.Entity, d component.Direction) error {
	player, ok := r.ctx.player(e)
	if !ok || !player.Keys.Held(d) {
		return nil
	}
	t, ch, err := r.walk.lookup("key down direction", e)
	if err != nil {
		return err
	}

	if r.ctx.activeMenu() {
		if err := r.ctx.Menus.RegisterDirection(d); err != nil {
			return err
		}
	} else {
		if t.Direction != d {
			turning := d
			ch.Turning = &turning
		}

		if player.CanKeyWalking && !ch.ShouldWalk {
			r.walk.SetPlayerDirection(e, d)
			player.CanKeyWalking = false
		} else {
			next := d
			player.NextDirection = &next
		}
	}

	r.ctx.fire("onKeyDownDirectionReal", e, d)
	return nil
}

// KeyDownA confirms in a menu, or activates whatever the player faces.
func (r *InputRouter) KeyDownA(e ecs.Entity) error {
	if r.ctx.Screen.Paused {
		return nil
	}

	if r.ctx.activeMenu() {
		if err := r.ctx.Menus.RegisterA(); err != nil {
			return err
		}
	} else if t, ok := r.ctx.thing(e); ok {
		if other, bordered := t.BorderingIn(t.Direction); bordered {
			if err := r.activators.Activate(e, ecs.Entity(other)); err != nil {
				return err
			}
			if player, ok := r.ctx.player(e); ok {
				player.Keys.A = true
			}
		}
	}

	r.ctx.fire("onKeyDownA", e, nil)
	return nil
}

// KeyDownB backs out of a menu.
func (r *InputRouter) KeyDownB(e ecs.Entity) error {
	if r.ctx.Screen.Paused {
		return nil
	}

	if r.ctx.activeMenu() {
		if err := r.ctx.Menus.RegisterB(); err != nil {
			return err
		}
	} else if player, ok := r.ctx.player(e); ok {
		player.Keys.B = true
	}

	r.ctx.fire("onKeyDownB", e, nil)
	return nil
}

func (r *InputRouter) KeyDownPause(e ecs.Entity) {
	if r.ctx.Pause != nil {
		r.ctx.Pause.TogglePauseMenu()
	}
	r.ctx.fire("onKeyDownPause", e, nil)
}

func (r *InputRouter) KeyDownMute(e ecs.Entity) {
	r.ctx.Audio.ToggleMuted()
	r.ctx.fire("onKeyDownMute", e, nil)
}

// KeyDownSelect uses the item registered to the select button.
func (r *InputRouter) KeyDownSelect(e ecs.Entity) error {
	if r.ctx.activeMenu() {
		return nil
	}
	if ch, ok := r.ctx.character(e); ok && ch.Walking() {
		return nil
	}

	r.ctx.fire("onKeyDownSelect", e, nil)

	name := r.ctx.Items.SelectItem()
	if name == "" {
		return nil
	}
	item := r.ctx.ItemDefs[name]
	if item.BagActivate == "" {
		return &component.InvariantError{Op: "key down select", Thing: name, Err: component.ErrMissingBagActivate}
	}

	used, err := r.bagActivate(e, item.BagActivate)
	if err != nil {
		return err
	}
	if !used && r.ctx.Pause != nil {
		r.ctx.Pause.DisplayMessage(e, item.Error)
	}
	return nil
}

// bagActivate runs a bag item's action. Actions are tengo routines so item
// content can add new ones; the routine reports use by not failing.
func (r *InputRouter) bagActivate(e ecs.Entity, action string) (bool, error) {
	if action == "bicycle" {
		return r.toggleCycling(e), nil
	}
	if err := r.ctx.Scenes.PlayRoutine(action, SceneArgs{Player: e}); err != nil {
		r.ctx.logger().WithError(err).WithField("item", action).Debug("bag activate refused")
		return false, nil
	}
	return true, nil
}

func (r *InputRouter) toggleCycling(e ecs.Entity) bool {
	player, ok := r.ctx.player(e)
	t, _ := r.ctx.thing(e)
	if !ok || t == nil || player.Surfing {
		return false
	}
	player.Cycling = !player.Cycling
	if player.Cycling {
		t.AddClass("cycling")
	} else {
		t.RemoveClass("cycling")
	}
	return true
}

// KeyUpDirection releases d and drops it if it was queued.
func (r *InputRouter) KeyUpDirection(e ecs.Entity, d component.Direction) {
	r.ctx.fire(keyUpEvents[d], e, d)

	player, ok := r.ctx.player(e)
	if !ok {
		return
	}
	player.Keys.Directions[d] = false
	if player.NextDirection != nil && *player.NextDirection == d {
		player.NextDirection = nil
	}
}

func (r *InputRouter) KeyUpA(e ecs.Entity) {
	r.ctx.fire("onKeyUpA", e, nil)
	if player, ok := r.ctx.player(e); ok {
		player.Keys.A = false
	}
}

func (r *InputRouter) KeyUpB(e ecs.Entity) {
	r.ctx.fire("onKeyUpB", e, nil)
	if player, ok := r.ctx.player(e); ok {
		player.Keys.B = false
	}
}

// MouseDownRight opens or closes the pause menu.
func (r *InputRouter) MouseDownRight(e ecs.Entity) {
	if r.ctx.Pause != nil {
		r.ctx.Pause.TogglePauseMenu()
	}
	r.ctx.fire("onMouseDownRight", e, nil)
}
