package system

import (
	"fmt"
	"testing"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// fixedNumbers replays values, each taken modulo the requested range.
type fixedNumbers struct {
	values []int
	next   int
}

func (f *fixedNumbers) RandomInt(n int) int {
	if n <= 0 || len(f.values) == 0 {
		return 0
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	return v % n
}

// scripts serves cutscene sources from memory.
type scripts map[string]string

func (s scripts) load(name string) ([]byte, error) {
	src, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("no script %q", name)
	}
	return []byte(src), nil
}

func newTestCore(t *testing.T, opts CoreOptions) *Core {
	t.Helper()
	if opts.Log == nil {
		log, _ := test.NewNullLogger()
		opts.Log = log
	}
	if opts.Numbers == nil {
		opts.Numbers = &fixedNumbers{values: []int{0}}
	}
	c, err := NewCore(opts)
	require.NoError(t, err)
	return c
}

func runFrames(t *testing.T, c *Core, frames int) {
	t.Helper()
	for i := 0; i < frames; i++ {
		require.NoError(t, c.Update())
	}
}

// addAt creates title with its top left corner on grid cell (col, row).
func addAt(t *testing.T, c *Core, title string, col, row float64, d component.Direction) (ecs.Entity, *component.Thing) {
	t.Helper()
	e, th, err := c.Things.Add(title, ThingSettings{Direction: d})
	require.NoError(t, err)
	grid := c.Context.Game.GridSize()
	th.SetLeft(col * grid)
	th.SetTop(row * grid)
	return e, th
}

func mustCharacter(t *testing.T, c *Core, e ecs.Entity) *component.Character {
	t.Helper()
	ch, ok := c.Context.character(e)
	require.True(t, ok)
	return ch
}

func mustPlayer(t *testing.T, c *Core, e ecs.Entity) *component.Player {
	t.Helper()
	p, ok := c.Context.player(e)
	require.True(t, ok)
	return p
}

func mustDetector(t *testing.T, c *Core, e ecs.Entity) *component.Detector {
	t.Helper()
	d, ok := c.Context.detector(e)
	require.True(t, ok)
	return d
}

func eventTypes(events []ecs.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}
