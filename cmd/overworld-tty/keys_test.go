package main

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/overworld/ecs/system"
	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	cases := []struct {
		name string
		ev   *tcell.EventKey
		key  system.Key
		ok   bool
	}{
		{"arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), system.KeyLeft, true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), system.KeyA, true},
		{"wasd", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone), system.KeyDown, true},
		{"pause", tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone), system.KeyPause, true},
		{"unbound", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, ok := keyFor(tc.ev)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.key, key)
		})
	}
}

func TestTtyKeysEdges(t *testing.T) {
	k := NewTtyKeys()
	up := tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)

	k.Feed(up)
	assert.True(t, k.JustPressed(system.KeyUp))
	k.Advance()
	assert.False(t, k.JustPressed(system.KeyUp))

	k.Feed(up)
	assert.False(t, k.JustPressed(system.KeyUp), "a repeat is not a new press")

	released := 0
	for i := 0; i < releaseFrames+1; i++ {
		k.Advance()
		if k.JustReleased(system.KeyUp) {
			released++
		}
	}
	assert.Equal(t, 1, released)
	assert.False(t, k.MouseRightPressed())
}
