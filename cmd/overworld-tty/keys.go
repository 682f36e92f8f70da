package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/overworld/ecs/system"
)

// releaseFrames is how long a key stays held after its last key event.
// Terminals report no key releases, so a release is a pause in the repeats.
const releaseFrames = 32

// TtyKeys turns tcell key events into per-frame press and release edges.
type TtyKeys struct {
	frame    int
	lastSeen map[system.Key]int
	held     map[system.Key]bool
	pressed  map[system.Key]bool
	released map[system.Key]bool
}

func NewTtyKeys() *TtyKeys {
	return &TtyKeys{
		lastSeen: make(map[system.Key]int),
		held:     make(map[system.Key]bool),
		pressed:  make(map[system.Key]bool),
		released: make(map[system.Key]bool),
	}
}

func keyFor(ev *tcell.EventKey) (system.Key, bool) {
	switch ev.Key() {
	case tcell.KeyUp:
		return system.KeyUp, true
	case tcell.KeyRight:
		return system.KeyRight, true
	case tcell.KeyDown:
		return system.KeyDown, true
	case tcell.KeyLeft:
		return system.KeyLeft, true
	case tcell.KeyEnter:
		return system.KeyA, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return system.KeyB, true
	case tcell.KeyTab:
		return system.KeySelect, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'w':
			return system.KeyUp, true
		case 'd':
			return system.KeyRight, true
		case 's':
			return system.KeyDown, true
		case 'a':
			return system.KeyLeft, true
		case 'x', ' ':
			return system.KeyA, true
		case 'z':
			return system.KeyB, true
		case 'p':
			return system.KeyPause, true
		case 'm':
			return system.KeyMute, true
		}
	}
	return 0, false
}

// Feed records a key event for the coming frame.
func (k *TtyKeys) Feed(ev *tcell.EventKey) {
	key, ok := keyFor(ev)
	if !ok {
		return
	}
	if !k.held[key] {
		k.pressed[key] = true
	}
	k.held[key] = true
	k.lastSeen[key] = k.frame
}

// Advance ends the current frame, releasing keys that went quiet.
func (k *TtyKeys) Advance() {
	k.frame++
	clear(k.pressed)
	clear(k.released)
	for key, held := range k.held {
		if held && k.frame-k.lastSeen[key] > releaseFrames {
			k.held[key] = false
			k.released[key] = true
		}
	}
}

func (k *TtyKeys) JustPressed(key system.Key) bool {
	return k.pressed[key]
}

func (k *TtyKeys) JustReleased(key system.Key) bool {
	return k.released[key]
}

func (k *TtyKeys) MouseRightPressed() bool {
	return false
}
