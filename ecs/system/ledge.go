package system

import (
	"fmt"

	"github.com/milk9111/overworld/ecs"
)

// HopLedge plays a ledge jump on top of the current step: a shadow stays on
// the ground while the character's OffsetY rises and falls back.
func (s *WalkingSystem) HopLedge(e, ledge ecs.Entity) error {
	t, ch, err := s.lookup("hop ledge", e)
	if err != nil {
		return err
	}

	shadow, st, err := s.ctx.Things.Add("Shadow", ThingSettings{})
	if err != nil {
		return fmt.Errorf("hop ledge %s: %w", t.ID, err)
	}

	steps := s.ctx.Game.Ledge.Steps
	speed := s.ctx.Game.Ledge.Speed
	duration := steps * speed
	dy := -s.ctx.Game.Unitsize
	changed := 0

	ch.Shadow = uint64(shadow)
	ch.Ledge = uint64(ledge)

	st.SetMidX(t.MidX())
	st.SetBottom(t.Bottom())

	// keep moving off the ledge if the step ended early
	s.ctx.Time.AddEventIntervalFor(e, func() error {
		if ch.Walking() {
			return nil
		}
		if err := s.SetDistanceVelocity(e, ch.Distance); err != nil {
			return err
		}
		return ecs.ErrStopEvent
	}, 1, duration-1)

	s.ctx.Time.AddEventIntervalFor(e, func() error {
		st.SetBottom(t.Bottom())
		if changed%speed == 0 {
			t.OffsetY += dy
		}
		changed++
		return nil
	}, 1, duration)

	s.ctx.Time.AddEventFor(e, func() error {
		dy = -dy
		return nil
	}, duration/2)

	// bound to the shadow so it clears even if the hopper dies mid-hop
	s.ctx.Time.AddEventFor(shadow, func() error {
		s.ctx.kill(shadow)
		return nil
	}, duration)

	s.ctx.Time.AddEventFor(e, func() error {
		ch.Ledge = 0
		ch.Shadow = 0

		if !ch.Walking() {
			if _, err := s.StopWalking(e, nil); err != nil {
				return err
			}
		}
		if player, ok := s.ctx.player(e); ok {
			player.CanKeyWalking = true
			s.ctx.Screen.BlockInputs = false
		}
		return nil
	}, duration)
	return nil
}
