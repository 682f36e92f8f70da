package system

import (
	"fmt"

	"github.com/milk9111/overworld/common"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

const (
	classWalking  = "walking"
	classStanding = "standing"
	cycleWalking  = "walking"
)

// WalkingSystem is the grid walking state machine. Steps are driven by
// TimeHandler intervals; Update moves walking characters one tick and
// starts walks requested by input.
type WalkingSystem struct {
	ctx *Context
}

func NewWalkingSystem(ctx *Context) *WalkingSystem {
	s := &WalkingSystem{ctx: ctx}
	ecs.OnDestroy(ctx.World, s.unlinkFollow)
	return s
}

func (s *WalkingSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.ThingComponent.Kind(), component.CharacterComponent.Kind(), func(e ecs.Entity, t *component.Thing, ch *component.Character) {
		if !t.Alive {
			return
		}
		if ch.Walking() {
			if _, blocked := t.BorderingIn(t.Direction); !blocked {
				t.Shift(t.XVel, t.YVel)
			}
			return
		}
		if ch.ShouldWalk && !s.ctx.activeMenu() {
			ch.ShouldWalk = false
			if err := s.StartWalking(e, t.Direction, nil); err != nil {
				s.ctx.Fail(err)
			}
		}
	})
}

func (s *WalkingSystem) lookup(op string, e ecs.Entity) (*component.Thing, *component.Character, error) {
	t, ok := s.ctx.thing(e)
	if !ok {
		return nil, nil, &component.InvariantError{Op: op, Thing: e.String(), Err: component.ErrNotCharacter}
	}
	ch, ok := s.ctx.character(e)
	if !ok {
		return nil, nil, &component.InvariantError{Op: op, Thing: t.ID, Err: component.ErrNotCharacter}
	}
	return t, ch, nil
}

// transition fires event on the character's walking FSM. Events the current
// state does not accept are ignored, so stopping a frozen character keeps it
// frozen.
func transition(ch *component.Character, event string) {
	if ch.State == nil {
		ch.State = component.NewWalkingState()
	}
	if !ch.State.Can(event) {
		return
	}
	// walk while walking is a self transition and reports NoTransitionError
	_ = ch.State.Event(event)
}

// SetDistanceVelocity points the character's velocity along its facing and
// records where the current step ends.
func (s *WalkingSystem) SetDistanceVelocity(e ecs.Entity, distance float64) error {
	t, ch, err := s.lookup("set distance velocity", e)
	if err != nil {
		return err
	}
	ch.Distance = distance

	switch t.Direction {
	case component.Top:
		t.XVel, t.YVel = 0, -ch.Speed
		ch.Destination = t.Top - distance
	case component.Right:
		t.XVel, t.YVel = ch.Speed, 0
		ch.Destination = t.Right() + distance
	case component.Bottom:
		t.XVel, t.YVel = 0, ch.Speed
		ch.Destination = t.Bottom() + distance
	case component.Left:
		t.XVel, t.YVel = -ch.Speed, 0
		ch.Destination = t.Left - distance
	default:
		return &component.InvariantError{Op: "set distance velocity", Thing: t.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, t.Direction)}
	}
	return nil
}

// StartWalking takes one step toward direction. onStop runs when the step
// completes.
func (s *WalkingSystem) StartWalking(e ecs.Entity, direction component.Direction, onStop component.OnStop) error {
	t, ch, err := s.lookup("start walking", e)
	if err != nil {
		return err
	}
	if !direction.Valid() {
		return &component.InvariantError{Op: "start walking", Thing: t.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, direction)}
	}

	repeats := s.ctx.Game.WalkingRepeats(ch.Speed)
	distance := float64(repeats) * ch.Speed

	transition(ch, "walk")
	s.SetDirection(e, direction)
	if err := s.SetDistanceVelocity(e, distance); err != nil {
		return err
	}

	if _, cycling := t.Cycle(cycleWalking); !cycling {
		s.ctx.Time.AddClassCycle(e, t, []string{classWalking, classStanding}, cycleWalking, max(1, repeats/2))
	}

	if ch.WalkingFlipping == 0 {
		ch.WalkingFlipping = s.ctx.Time.AddEventIntervalFor(e, func() error {
			s.SwitchFlipOnDirection(e)
			return nil
		}, repeats, ecs.Infinite)
	}

	if ch.Sight > 0 {
		if detector, ok := s.ctx.thing(ecs.Entity(ch.SightDetector)); ok {
			detector.NoCollide = true
		}
	}

	s.ctx.Time.AddEventIntervalFor(e, func() error {
		done, err := s.onWalkingStop(e, onStop)
		if err != nil {
			return err
		}
		if done {
			return ecs.ErrStopEvent
		}
		return nil
	}, repeats, ecs.Infinite)

	if _, blocked := t.BorderingIn(direction); !blocked {
		t.Shift(t.XVel, t.YVel)
	}
	return nil
}

func (s *WalkingSystem) onWalkingStop(e ecs.Entity, onStop component.OnStop) (bool, error) {
	if _, ok := s.ctx.player(e); ok {
		return s.PlayerStopWalking(e, onStop)
	}
	return s.StopWalking(e, onStop)
}

// StartWalkingCycle walks a multi-leg plan. A zero-distance head either runs
// the next callback or turns toward the next leg without moving.
func (s *WalkingSystem) StartWalkingCycle(e ecs.Entity, direction component.Direction, plan *component.Sequence) error {
	if plan.Len() == 0 {
		return nil
	}
	t, ch, err := s.lookup("start walking cycle", e)
	if err != nil {
		return err
	}

	switch head := plan.Steps[0].(type) {
	case component.Invoke:
		_, err := invoke(head.Fn)
		return err
	case component.Move:
		if head.Distance > 0 {
			break
		}
		if plan.Len() == 1 {
			return nil
		}
		switch next := plan.Steps[1].(type) {
		case component.Invoke:
			_, err := invoke(next.Fn)
			return err
		case component.Move:
			turn, err := next.Direction.Alias()
			if err != nil {
				return err
			}
			s.SetDirection(e, turn)
			return s.StartWalkingCycle(e, turn, plan.Rest())
		}
		return nil
	default:
		return &component.InvariantError{Op: "start walking cycle", Thing: t.ID, Err: fmt.Errorf("%w: step %T", component.ErrUnknownOnStop, head)}
	}

	if ch.Follower != 0 {
		ch.WalkingCommands = append(ch.WalkingCommands, direction)
	}

	if err := s.StartWalking(e, direction, plan); err != nil {
		return err
	}

	// the pre-emptive shift is taken back; the plan starts on the next tick
	if _, blocked := t.BorderingIn(direction); !blocked {
		t.Shift(-t.XVel, -t.YVel)
	}
	return nil
}

func invoke(fn component.Callback) (bool, error) {
	if fn == nil {
		return true, nil
	}
	return fn()
}

// RepeatWalking takes another step in the current facing, unless a turn was
// requested and its key is no longer held.
func (s *WalkingSystem) RepeatWalking(e ecs.Entity, onStop component.OnStop) error {
	t, ch, err := s.lookup("repeat walking", e)
	if err != nil {
		return err
	}
	player, isPlayer := s.ctx.player(e)
	if ch.Frozen() {
		return nil
	}

	if ch.Turning != nil {
		turning := *ch.Turning
		ch.Turning = nil
		if !isPlayer || !player.Keys.Held(turning) {
			s.SetDirection(e, turning)
			return nil
		}
	}

	if isPlayer {
		player.CanKeyWalking = false
	}
	return s.StartWalking(e, t.Direction, onStop)
}

// StopWalking ends the current step and interprets onStop. It reports
// whether the character is fully stopped, unless a callback decides.
func (s *WalkingSystem) StopWalking(e ecs.Entity, onStop component.OnStop) (bool, error) {
	t, ch, err := s.lookup("stop walking", e)
	if err != nil {
		return false, err
	}

	t.XVel, t.YVel = 0, 0
	transition(ch, "stop")

	t.RemoveClasses(classWalking, classStanding)
	s.ctx.Time.CancelClassCycle(t, cycleWalking)

	if ch.WalkingFlipping != 0 {
		s.ctx.Time.CancelEvent(ch.WalkingFlipping)
		ch.WalkingFlipping = 0
	}

	s.SnapToGrid(e)

	if ch.Sight > 0 {
		if detector, ok := s.ctx.thing(ecs.Entity(ch.SightDetector)); ok {
			detector.NoCollide = false
		}
		if err := s.PositionSightDetector(e); err != nil {
			return false, err
		}
	}

	switch stop := onStop.(type) {
	case nil:
		return true, nil
	case component.Repeat:
		if stop.Count <= 0 {
			return true, nil
		}
		var next component.OnStop
		if stop.Count > 1 {
			next = component.Repeat{Count: stop.Count - 1}
		}
		if err := s.RepeatWalking(e, next); err != nil {
			return false, err
		}
	case *component.Sequence:
		if stop.Len() == 0 {
			return true, nil
		}
		switch head := stop.Steps[0].(type) {
		case component.Move:
			if head.Distance > 0 {
				stop.Steps[0] = component.Move{Direction: t.Direction, Distance: head.Distance - 1}
				if err := s.StartWalkingCycle(e, t.Direction, stop); err != nil {
					return false, err
				}
				break
			}
			if stop.Len() == 1 {
				break
			}
			switch next := stop.Steps[1].(type) {
			case component.Invoke:
				return invoke(next.Fn)
			case component.Move:
				direction, err := next.Direction.Alias()
				if err != nil {
					return false, err
				}
				if err := s.StartWalkingCycle(e, direction, stop.Rest()); err != nil {
					return false, err
				}
			}
		case component.Invoke:
			return invoke(head.Fn)
		}
	case component.Then:
		return invoke(component.Callback(stop))
	default:
		return false, &component.InvariantError{Op: "stop walking", Thing: t.ID, Err: fmt.Errorf("%w: %T", component.ErrUnknownOnStop, onStop)}
	}
	return true, nil
}

// PlayerStopWalking is StopWalking with the player's extra checks: grass
// encounters, held keys and a queued turn.
func (s *WalkingSystem) PlayerStopWalking(e ecs.Entity, onStop component.OnStop) (bool, error) {
	t, ch, err := s.lookup("player stop walking", e)
	if err != nil {
		return false, err
	}
	player, ok := s.ctx.player(e)
	if !ok {
		return s.StopWalking(e, onStop)
	}

	if s.ctx.Battles != nil && s.ctx.Battles.CheckGrassBattle(e) {
		player.CanKeyWalking = true
		return false, nil
	}

	if ch.Following != 0 {
		return s.StopWalking(e, onStop)
	}

	if !s.ctx.activeMenu() && player.Keys.Held(t.Direction) {
		return false, s.SetDistanceVelocity(e, ch.Distance)
	}

	if player.NextDirection != nil {
		if *player.NextDirection != t.Direction && ch.Ledge == 0 {
			s.SetPlayerDirection(e, *player.NextDirection)
		}
		player.NextDirection = nil
	} else {
		player.CanKeyWalking = true
	}

	return s.StopWalking(e, onStop)
}

// SetPlayerDirection faces the player toward d and asks Update to walk.
func (s *WalkingSystem) SetPlayerDirection(e ecs.Entity, d component.Direction) {
	t, ch, err := s.lookup("set player direction", e)
	if err != nil {
		return
	}
	t.Direction = d
	ch.ShouldWalk = true
}

// PreventWalking stops key walking and blocks input until released.
func (s *WalkingSystem) PreventWalking(e ecs.Entity) {
	if t, ch, err := s.lookup("prevent walking", e); err == nil {
		ch.ShouldWalk = false
		t.XVel, t.YVel = 0, 0
	}
	if player, ok := s.ctx.player(e); ok {
		player.Keys = component.Keys{}
	}
	s.ctx.Screen.BlockInputs = true
}

// DialogFreeze holds a character in place while a dialog plays.
func (s *WalkingSystem) DialogFreeze(e ecs.Entity) {
	s.PreventWalking(e)

	t, ch, err := s.lookup("dialog freeze", e)
	if err != nil {
		return
	}
	s.ctx.Time.CancelClassCycle(t, cycleWalking)
	if ch.WalkingFlipping != 0 {
		s.ctx.Time.CancelEvent(ch.WalkingFlipping)
		ch.WalkingFlipping = 0
	}
	transition(ch, "freeze")
}

// Thaw releases a character held by DialogFreeze.
func (s *WalkingSystem) Thaw(e ecs.Entity) {
	if _, ch, err := s.lookup("thaw", e); err == nil {
		transition(ch, "thaw")
	}
}

// SetDirection faces a thing toward direction. Right-facing sprites are the
// left sprites mirrored.
func (s *WalkingSystem) SetDirection(e ecs.Entity, direction component.Direction) {
	t, ok := s.ctx.thing(e)
	if !ok || !direction.Valid() {
		return
	}
	t.Direction = direction
	if !direction.Vertical() {
		t.FlipHoriz = false
	}

	t.RemoveClasses(component.DirectionClasses[:]...)
	t.AddClass(direction.Class())

	if direction == component.Right {
		t.FlipHoriz = true
		t.AddClass(component.Left.Class())
	}
}

// SetDirectionRandom faces a thing in a random direction.
func (s *WalkingSystem) SetDirectionRandom(e ecs.Entity) {
	s.SetDirection(e, component.Direction(s.ctx.Numbers.RandomInt(len(component.Directions))))
}

// SwitchFlipOnDirection alternates the mirror of vertically facing sprites
// so walking up or down reads as a stride.
func (s *WalkingSystem) SwitchFlipOnDirection(e ecs.Entity) {
	t, ok := s.ctx.thing(e)
	if !ok || !t.Direction.Vertical() {
		return
	}
	t.FlipHoriz = !t.FlipHoriz
}

// SnapToGrid rounds a thing's position to the nearest map cell.
func (s *WalkingSystem) SnapToGrid(e ecs.Entity) {
	t, ok := s.ctx.thing(e)
	if !ok {
		return
	}
	grid := s.ctx.Game.GridSize()
	t.SetLeft(common.SnapToGrid(t.Left, s.ctx.Screen.Left, grid))
	t.SetTop(common.SnapToGrid(t.Top, s.ctx.Screen.Top, grid))
}
