package system

import (
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

// Follow links e behind leader. The leader logs its steps in
// WalkingCommands and e replays one of them every step interval.
func (s *WalkingSystem) Follow(e, leader ecs.Entity) error {
	t, ch, err := s.lookup("follow", e)
	if err != nil {
		return err
	}
	lt, lch, err := s.lookup("follow", leader)
	if err != nil {
		return err
	}

	direction, ok := s.ctx.Physics.DirectionBordering(s.ctx.World, e, leader)
	if !ok {
		return &component.InvariantError{Op: "follow", Thing: t.ID, Err: component.ErrTooFarToFollow}
	}

	t.NoCollide = true
	if player, ok := s.ctx.player(e); ok {
		player.AllowDirectionAsKeys = true
		ch.ShouldWalk = false
	}

	ch.Following = uint64(leader)
	lch.Follower = uint64(e)

	if s.ctx.State != nil {
		s.ctx.State.AddStateHistory(t.ID, "speed", ch.Speed)
	}
	ch.Speed = lch.Speed
	lch.WalkingCommands = []component.Direction{}

	s.SetDirection(e, direction)
	switch direction {
	case component.Top:
		t.SetTop(lt.Bottom())
	case component.Right:
		t.SetRight(lt.Left)
	case component.Bottom:
		t.SetBottom(lt.Top)
	case component.Left:
		t.SetLeft(lt.Right())
	}

	if err := s.StartWalking(e, direction, nil); err != nil {
		return err
	}

	ch.FollowingLoop = s.ctx.Time.AddEventIntervalFor(e, func() error {
		return s.FollowContinue(e, leader)
	}, s.ctx.Game.WalkingRepeats(ch.Speed), ecs.Infinite)
	return nil
}

// FollowContinue replays the leader's oldest logged step, if any.
func (s *WalkingSystem) FollowContinue(e, leader ecs.Entity) error {
	if !ecs.IsAlive(s.ctx.World, leader) {
		s.FollowStop(e)
		return ecs.ErrStopEvent
	}
	lt, lch, err := s.lookup("follow continue", leader)
	if err != nil {
		return err
	}
	if lch.WalkingCommands == nil {
		return &component.InvariantError{Op: "follow continue", Thing: lt.ID, Err: component.ErrMissingWalkingCommands}
	}
	if len(lch.WalkingCommands) == 0 {
		return nil
	}

	direction := lch.WalkingCommands[0]
	lch.WalkingCommands = lch.WalkingCommands[1:]
	return s.StartWalking(e, direction, component.Repeat{})
}

// FollowStop unlinks e from its leader and cancels the replay loop. Both
// sides of the link are cleared here and nowhere else.
func (s *WalkingSystem) FollowStop(e ecs.Entity) bool {
	t, ch, err := s.lookup("follow stop", e)
	if err != nil || ch.Following == 0 {
		return true
	}

	leader := ecs.Entity(ch.Following)
	t.NoCollide = false
	ch.Following = 0
	if s.ctx.State != nil {
		if speed, ok := s.ctx.State.PopStateHistory(t.ID, "speed"); ok {
			if v, ok := speed.(float64); ok {
				ch.Speed = v
			}
		}
	}
	if lch, ok := s.ctx.character(leader); ok && lch.Follower == uint64(e) {
		lch.Follower = 0
		lch.WalkingCommands = nil
	}

	if _, err := s.StopWalking(e, nil); err != nil {
		s.ctx.logger().WithError(err).WithField("thing", t.ID).Warn("follow stop")
	}
	s.ctx.Time.CancelEvent(ch.FollowingLoop)
	ch.FollowingLoop = 0
	return true
}

// unlinkFollow tears down any follow link e is part of when e is destroyed.
func (s *WalkingSystem) unlinkFollow(e ecs.Entity) {
	ch, ok := s.ctx.character(e)
	if !ok {
		return
	}
	if ch.Follower != 0 {
		s.FollowStop(ecs.Entity(ch.Follower))
	}
	if ch.Following != 0 {
		s.FollowStop(e)
	}
}
