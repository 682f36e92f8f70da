package system

import "github.com/milk9111/overworld/ecs"

// TimeSystem advances the deferred event scheduler one tick per frame.
type TimeSystem struct {
	ctx *Context
}

func NewTimeSystem(ctx *Context) *TimeSystem {
	return &TimeSystem{ctx: ctx}
}

func (s *TimeSystem) Update(_ *ecs.World) {
	if s.ctx.Screen.Paused {
		return
	}
	if err := s.ctx.Time.Tick(); err != nil {
		s.ctx.Fail(err)
	}
}
