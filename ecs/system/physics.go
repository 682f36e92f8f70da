package system

import (
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

const (
	// borderTolerance is how far apart two edges may be and still touch.
	borderTolerance = 1.0
	// borderInset keeps diagonal neighbours from bordering.
	borderInset = 0.5
)

// GridPhysics is the overworld collision collaborator. Things never push
// each other; physics only answers which things overlap and which solid
// thing sits next to each side of a thing.
type GridPhysics struct{}

func NewGridPhysics() *GridPhysics {
	return &GridPhysics{}
}

// Update refreshes bordering before anything walks this frame.
func (ps *GridPhysics) Update(w *ecs.World) {
	ps.UpdateBordering(w)
}

func box(t *component.Thing) cp.BB {
	return cp.BB{L: t.Left, B: t.Top, R: t.Right(), T: t.Bottom()}
}

// side returns the strip just beyond t's edge in d. Screen y grows down, so
// the box's B is its top edge.
func side(t *component.Thing, d component.Direction) cp.BB {
	switch d {
	case component.Top:
		return cp.BB{L: t.Left + borderInset, B: t.Top - borderTolerance, R: t.Right() - borderInset, T: t.Top}
	case component.Right:
		return cp.BB{L: t.Right(), B: t.Top + borderInset, R: t.Right() + borderTolerance, T: t.Bottom() - borderInset}
	case component.Bottom:
		return cp.BB{L: t.Left + borderInset, B: t.Bottom(), R: t.Right() - borderInset, T: t.Bottom() + borderTolerance}
	case component.Left:
		return cp.BB{L: t.Left - borderTolerance, B: t.Top + borderInset, R: t.Left, T: t.Bottom() - borderInset}
	}
	return cp.BB{}
}

// solid reports whether other blocks t. Triggers and sight lines never
// block; water stops blocking a surfing player.
func solid(w *ecs.World, t *component.Thing, self, e ecs.Entity, other *component.Thing) bool {
	if self == e || !other.Alive || other.NoCollide {
		return false
	}
	if d, ok := ecs.Get(w, e, component.DetectorComponent.Kind()); ok {
		switch d.Kind {
		case component.DetectorNone, component.DetectorTalker, component.DetectorGymStatue, component.DetectorHMCharacter:
		case component.DetectorLedge:
			// ledges only let through what walks their way
			return t.Direction != other.Direction
		default:
			return false
		}
	}
	if p, ok := ecs.Get(w, self, component.PlayerComponent.Kind()); ok && p.Surfing && strings.Contains(other.Title, "Water") {
		return false
	}
	return true
}

// UpdateBordering recomputes Thing.Bordering for every live thing.
func (ps *GridPhysics) UpdateBordering(w *ecs.World) {
	type entry struct {
		e ecs.Entity
		t *component.Thing
	}
	var things []entry
	ecs.ForEach(w, component.ThingComponent.Kind(), func(e ecs.Entity, t *component.Thing) {
		if t.Alive {
			things = append(things, entry{e, t})
		}
	})

	for _, a := range things {
		a.t.Bordering = [4]uint64{}
		if a.t.NoCollide {
			continue
		}
		for _, d := range component.Directions {
			strip := side(a.t, d)
			for _, b := range things {
				if !solid(w, a.t, a.e, b.e, b.t) {
					continue
				}
				if strip.Intersects(box(b.t)) {
					a.t.Bordering[d] = uint64(b.e)
					break
				}
			}
		}
	}
}

// DirectionBordering reports the side of a that b sits against, if any.
func (ps *GridPhysics) DirectionBordering(w *ecs.World, a, b ecs.Entity) (component.Direction, bool) {
	at, ok := ecs.Get(w, a, component.ThingComponent.Kind())
	if !ok {
		return 0, false
	}
	bt, ok := ecs.Get(w, b, component.ThingComponent.Kind())
	if !ok {
		return 0, false
	}
	other := box(bt)
	for _, d := range component.Directions {
		if side(at, d).Intersects(other) {
			return d, true
		}
	}
	return 0, false
}

// Hits reports whether a and b overlap. Edges that only touch do not hit.
func (ps *GridPhysics) Hits(a, b *component.Thing) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Left < b.Right() && b.Left < a.Right() && a.Top < b.Bottom() && b.Top < a.Bottom()
}

// Touches reports whether a and b overlap or sit within the bordering
// tolerance of each other.
func (ps *GridPhysics) Touches(a, b *component.Thing) bool {
	if a == nil || b == nil {
		return false
	}
	grown := cp.BB{L: a.Left - borderTolerance, B: a.Top - borderTolerance, R: a.Right() + borderTolerance, T: a.Bottom() + borderTolerance}
	return grown.Intersects(box(b))
}

// Kill removes a thing and everything scheduled for it.
func (ps *GridPhysics) Kill(w *ecs.World, e ecs.Entity) {
	ecs.DestroyEntity(w, e)
}
