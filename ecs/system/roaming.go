package system

import (
	"fmt"
	"slices"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

const sightUnits = 8

// SpawnCharacter registers a freshly placed character: it gets a sight
// detector when it can see and starts roaming when it roams.
func (s *WalkingSystem) SpawnCharacter(e ecs.Entity) error {
	t, ch, err := s.lookup("spawn character", e)
	if err != nil {
		return err
	}
	if ch.State == nil {
		ch.State = component.NewWalkingState()
	}

	if ch.Sight > 0 {
		detector, dt, err := s.ctx.Things.Add("SightDetector", ThingSettings{
			Width:     float64(ch.Sight * sightUnits),
			Direction: t.Direction,
		})
		if err != nil {
			return fmt.Errorf("spawn character %s: %w", t.ID, err)
		}
		ch.SightDetector = uint64(detector)
		if d, ok := s.ctx.detector(detector); ok {
			d.Viewer = uint64(e)
		} else {
			_ = ecs.Add(s.ctx.World, detector, component.DetectorComponent.Kind(), &component.Detector{
				Kind:      component.DetectorSight,
				Active:    true,
				KeepAlive: true,
				Viewer:    uint64(e),
			})
		}
		dt.Direction = t.Direction
		if err := s.PositionSightDetector(e); err != nil {
			return err
		}
	}

	if ch.Roaming {
		s.ctx.Time.AddEventFor(e, func() error {
			_, err := s.Roam(e)
			return err
		}, s.ctx.Numbers.RandomInt(s.ctx.Game.Roaming.First))
	}
	return nil
}

// PositionSightDetector places a character's sight detector directly in
// front of it. The detector is only resized when the facing changed.
func (s *WalkingSystem) PositionSightDetector(e ecs.Entity) error {
	t, ch, err := s.lookup("position sight detector", e)
	if err != nil {
		return err
	}
	detector, ok := s.ctx.thing(ecs.Entity(ch.SightDetector))
	if !ok {
		return &component.InvariantError{Op: "position sight detector", Thing: t.ID, Err: component.ErrMissingSightDetector}
	}

	unitsize := s.ctx.Game.Unitsize
	direction := t.Direction
	if detector.Direction != direction {
		if direction.Vertical() {
			detector.SetWidth(t.Width, unitsize)
			detector.SetHeight(float64(ch.Sight*sightUnits), unitsize)
		} else {
			detector.SetWidth(float64(ch.Sight*sightUnits), unitsize)
			detector.SetHeight(t.Height, unitsize)
		}
		detector.Direction = direction
	}

	switch direction {
	case component.Top:
		detector.SetBottom(t.Top)
		detector.SetMidX(t.MidX())
	case component.Right:
		detector.SetLeft(t.Right())
		detector.SetMidY(t.MidY())
	case component.Bottom:
		detector.SetTop(t.Bottom())
		detector.SetMidX(t.MidX())
	case component.Left:
		detector.SetRight(t.Left)
		detector.SetMidY(t.MidY())
	default:
		return &component.InvariantError{Op: "position sight detector", Thing: t.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, direction)}
	}
	return nil
}

// Roam is one roaming beat: reschedule the next beat, then wander unless the
// character is busy. It reports true once the character is dead.
func (s *WalkingSystem) Roam(e ecs.Entity) (bool, error) {
	t, ch, err := s.lookup("roam", e)
	if err != nil || !t.Alive {
		return true, nil
	}

	roaming := s.ctx.Game.Roaming
	s.ctx.Time.AddEventFor(e, func() error {
		_, err := s.Roam(e)
		return err
	}, roaming.Base+s.ctx.Numbers.RandomInt(roaming.Spread))

	if !ch.Talking && !s.ctx.activeMenu() {
		return false, s.StartWalkingRandom(e)
	}
	return false, nil
}

// StartWalkingRandom walks one step in a random unblocked direction. An
// unblocked direction the character may not roam in only turns it.
func (s *WalkingSystem) StartWalkingRandom(e ecs.Entity) error {
	t, ch, err := s.lookup("start walking random", e)
	if err != nil {
		return err
	}
	if ch.RoamingDirections == nil {
		return &component.InvariantError{Op: "start walking random", Thing: t.ID, Err: component.ErrMissingRoamingDirections}
	}

	open := make([]component.Direction, 0, len(component.Directions))
	for _, d := range component.Directions {
		if _, blocked := t.BorderingIn(d); !blocked {
			open = append(open, d)
		}
	}
	if len(open) == 0 {
		return nil
	}

	direction := open[s.ctx.Numbers.RandomInt(len(open))]
	if !slices.Contains(ch.RoamingDirections, direction) {
		s.SetDirection(e, direction)
		return nil
	}
	return s.StartWalking(e, direction, nil)
}
