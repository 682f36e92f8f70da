package system

import (
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

// textGroup things are fixed to the screen and never scroll.
const textGroup = "Text"

// MapScroller keeps the player centred by shifting every thing, clamped to
// the current area. Screen.Left and Screen.Top track the area coordinate of
// the screen's corner.
type MapScroller struct {
	ctx *Context
}

func NewMapScroller(ctx *Context) *MapScroller {
	return &MapScroller{ctx: ctx}
}

func (s *MapScroller) Update(w *ecs.World) {
	if w == nil || s.ctx.Maps == nil {
		return
	}
	area := s.ctx.Maps.CurrentArea()
	if area == nil {
		return
	}
	pe, ok := ecs.First(w, component.PlayerComponent.Kind())
	if !ok {
		return
	}
	pt, ok := s.ctx.thing(pe)
	if !ok {
		return
	}

	screen := s.ctx.Screen
	unitsize := s.ctx.Game.Unitsize
	dx := scrollDelta(screen.Left, pt.MidX()-screen.Width/2, area.Width*unitsize-screen.Width)
	dy := scrollDelta(screen.Top, pt.MidY()-screen.Height/2, area.Height*unitsize-screen.Height)
	if dx == 0 && dy == 0 {
		return
	}
	s.Scroll(w, dx, dy)
}

// scrollDelta is how far to move a screen edge at offset towards offset+want
// without leaving [0, limit].
func scrollDelta(offset, want, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	target := offset + want
	if target < 0 {
		target = 0
	}
	if target > limit {
		target = limit
	}
	return target - offset
}

// Scroll moves the view by (dx, dy) pixels.
func (s *MapScroller) Scroll(w *ecs.World, dx, dy float64) {
	ecs.ForEach(w, component.ThingComponent.Kind(), func(_ ecs.Entity, t *component.Thing) {
		if t.GroupType == textGroup {
			return
		}
		t.Shift(-dx, -dy)
	})
	screen := s.ctx.Screen
	screen.Left += dx
	screen.Right += dx
	screen.Top += dy
	screen.Bottom += dy
}
