package system

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

// KeySource reports button edges for the current frame.
type KeySource interface {
	JustPressed(k Key) bool
	JustReleased(k Key) bool
	MouseRightPressed() bool
}

var allKeys = []Key{KeyUp, KeyRight, KeyDown, KeyLeft, KeyA, KeyB, KeyPause, KeyMute, KeySelect}

// InputSystem feeds button edges from a KeySource to the router for every
// player.
type InputSystem struct {
	ctx    *Context
	router *InputRouter
	keys   KeySource
}

func NewInputSystem(ctx *Context, router *InputRouter, keys KeySource) *InputSystem {
	return &InputSystem{ctx: ctx, router: router, keys: keys}
}

func (i *InputSystem) Update(w *ecs.World) {
	if w == nil || i.keys == nil {
		return
	}

	ecs.ForEach(w, component.PlayerComponent.Kind(), func(e ecs.Entity, _ *component.Player) {
		for _, k := range allKeys {
			if i.keys.JustPressed(k) {
				if err := i.router.KeyDown(e, k); err != nil {
					i.ctx.Fail(err)
				}
			}
			if i.keys.JustReleased(k) {
				i.router.KeyUp(e, k)
			}
		}
		if i.keys.MouseRightPressed() {
			i.router.MouseDownRight(e)
		}
	})
}

// EbitenKeys reads the keyboard and the first standard gamepad.
type EbitenKeys struct {
	stick [4]bool
	prev  [4]bool
}

var keyboard = map[Key][]ebiten.Key{
	KeyUp:     {ebiten.KeyArrowUp, ebiten.KeyW},
	KeyRight:  {ebiten.KeyArrowRight, ebiten.KeyD},
	KeyDown:   {ebiten.KeyArrowDown, ebiten.KeyS},
	KeyLeft:   {ebiten.KeyArrowLeft, ebiten.KeyA},
	KeyA:      {ebiten.KeyX, ebiten.KeyEnter},
	KeyB:      {ebiten.KeyZ, ebiten.KeyBackspace},
	KeyPause:  {ebiten.KeyP, ebiten.KeyEscape},
	KeyMute:   {ebiten.KeyM},
	KeySelect: {ebiten.KeyShift},
}

var gamepad = map[Key]ebiten.StandardGamepadButton{
	KeyUp:     ebiten.StandardGamepadButtonLeftTop,
	KeyRight:  ebiten.StandardGamepadButtonLeftRight,
	KeyDown:   ebiten.StandardGamepadButtonLeftBottom,
	KeyLeft:   ebiten.StandardGamepadButtonLeftLeft,
	KeyA:      ebiten.StandardGamepadButtonRightBottom,
	KeyB:      ebiten.StandardGamepadButtonRightRight,
	KeyPause:  ebiten.StandardGamepadButtonCenterRight,
	KeySelect: ebiten.StandardGamepadButtonCenterLeft,
}

const stickDeadzone = 0.5

// Poll samples the analog stick. Call it once per frame before the input
// system runs.
func (k *EbitenKeys) Poll() {
	k.prev = k.stick
	k.stick = [4]bool{}

	gamepads := ebiten.GamepadIDs()
	if len(gamepads) == 0 {
		return
	}
	id := gamepads[0]
	x := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickHorizontal)
	y := ebiten.StandardGamepadAxisValue(id, ebiten.StandardGamepadAxisLeftStickVertical)
	if math.Abs(x) > math.Abs(y) {
		k.stick[component.Right] = x > stickDeadzone
		k.stick[component.Left] = x < -stickDeadzone
	} else {
		k.stick[component.Bottom] = y > stickDeadzone
		k.stick[component.Top] = y < -stickDeadzone
	}
}

func (k *EbitenKeys) JustPressed(key Key) bool {
	for _, ek := range keyboard[key] {
		if inpututil.IsKeyJustPressed(ek) {
			return true
		}
	}
	if d, ok := key.Direction(); ok && k.stick[d] && !k.prev[d] {
		return true
	}
	if button, ok := gamepad[key]; ok {
		for _, id := range ebiten.GamepadIDs() {
			if inpututil.IsStandardGamepadButtonJustPressed(id, button) {
				return true
			}
		}
	}
	return false
}

func (k *EbitenKeys) JustReleased(key Key) bool {
	for _, ek := range keyboard[key] {
		if inpututil.IsKeyJustReleased(ek) {
			return true
		}
	}
	if d, ok := key.Direction(); ok && !k.stick[d] && k.prev[d] {
		return true
	}
	if button, ok := gamepad[key]; ok {
		for _, id := range ebiten.GamepadIDs() {
			if inpututil.IsStandardGamepadButtonJustReleased(id, button) {
				return true
			}
		}
	}
	return false
}

func (k *EbitenKeys) MouseRightPressed() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)
}
