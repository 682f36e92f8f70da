package system

import (
	"fmt"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
)

// Animator chains visual effects out of scheduled events. Nothing here runs
// per frame; every effect re-registers itself with the TimeHandler until it
// is done.
type Animator struct {
	ctx *Context
}

func NewAnimator(ctx *Context) *Animator {
	return &Animator{ctx: ctx}
}

// ColorFade configures FadeToColor and FadeFromColor. Zero fields take the
// game defaults.
type ColorFade struct {
	Color    string
	Change   float64
	Speed    int
	Callback func() error
}

func (a *Animator) complete(fn func() error) error {
	if fn == nil {
		return nil
	}
	return fn()
}

func reached(value, change, goal float64) bool {
	if change > 0 {
		return value >= goal
	}
	return value <= goal
}

// FadeAttribute changes attr by change now and then every speed ticks until
// it reaches goal. The goal is clamped to exactly, onCompletion runs once and
// no further event is pending.
func (a *Animator) FadeAttribute(e ecs.Entity, attr component.Attribute, change, goal float64, speed int, onCompletion func() error) (ecs.EventID, error) {
	t, ok := a.ctx.thing(e)
	if !ok {
		return 0, nil
	}

	attr.Set(t, attr.Get(t)+change)
	if reached(attr.Get(t), change, goal) {
		attr.Set(t, goal)
		return 0, a.complete(onCompletion)
	}

	return a.ctx.Time.AddEventFor(e, func() error {
		_, err := a.FadeAttribute(e, attr, change, goal, speed, onCompletion)
		return err
	}, speed), nil
}

// SlideHorizontal shifts a thing by change every speed ticks until its
// horizontal midpoint reaches goal.
func (a *Animator) SlideHorizontal(e ecs.Entity, change, goal float64, speed int, onCompletion func() error) error {
	t, ok := a.ctx.thing(e)
	if !ok {
		return nil
	}

	t.Shift(change, 0)
	if reached(t.MidX(), change, goal) {
		t.SetMidX(goal)
		return a.complete(onCompletion)
	}

	a.ctx.Time.AddEventFor(e, func() error {
		return a.SlideHorizontal(e, change, goal, speed, onCompletion)
	}, speed)
	return nil
}

// SlideVertical is SlideHorizontal along the vertical midpoint.
func (a *Animator) SlideVertical(e ecs.Entity, change, goal float64, speed int, onCompletion func() error) error {
	t, ok := a.ctx.thing(e)
	if !ok {
		return nil
	}

	t.Shift(0, change)
	if reached(t.MidY(), change, goal) {
		t.SetMidY(goal)
		return a.complete(onCompletion)
	}

	a.ctx.Time.AddEventFor(e, func() error {
		return a.SlideVertical(e, change, goal, speed, onCompletion)
	}, speed)
	return nil
}

// ThingCorners creates four copies of title meeting at (x, y), mirrored so
// each one points away from the point.
func (a *Animator) ThingCorners(x, y float64, title, group string) ([4]ecs.Entity, error) {
	var ents [4]ecs.Entity
	var things [4]*component.Thing
	for i := range ents {
		e, t, err := a.ctx.Things.Add(title, ThingSettings{GroupType: group})
		if err != nil {
			return ents, fmt.Errorf("thing corners %s: %w", title, err)
		}
		ents[i], things[i] = e, t
	}

	things[0].SetLeft(x)
	things[1].SetLeft(x)
	things[2].SetRight(x)
	things[3].SetRight(x)

	things[0].SetBottom(y)
	things[3].SetBottom(y)
	things[1].SetTop(y)
	things[2].SetTop(y)

	things[0].FlipHoriz = true
	things[1].FlipHoriz = true
	things[1].FlipVert = true
	things[2].FlipVert = true

	return ents, nil
}

// ExpandCorners moves four corner things away from their shared point.
func (a *Animator) ExpandCorners(ents [4]ecs.Entity, amount float64) {
	shifts := [4][2]float64{
		{amount, -amount},
		{amount, amount},
		{-amount, amount},
		{-amount, -amount},
	}
	for i, e := range ents {
		if t, ok := a.ctx.thing(e); ok {
			t.Shift(shifts[i][0], shifts[i][1])
		}
	}
}

func (a *Animator) killAll(ents [4]ecs.Entity) {
	for _, e := range ents {
		a.ctx.kill(e)
	}
}

// SmokeSmall starts the three stage smoke puff at (x, y). Every stage is
// scheduled now, at offsets from this tick, and callback runs when the last
// stage clears.
func (a *Animator) SmokeSmall(x, y float64, callback func() error) error {
	things, err := a.ThingCorners(x, y, "SmokeSmall", "Text")
	if err != nil {
		return err
	}
	stage := a.ctx.Game.SmokeStage

	a.ctx.Time.AddEvent(func() error {
		a.killAll(things)
		return nil
	}, stage)
	return a.smokeMedium(x, y, stage, callback)
}

func (a *Animator) SmokeMedium(x, y float64, callback func() error) error {
	return a.smokeMedium(x, y, 0, callback)
}

func (a *Animator) SmokeLarge(x, y float64, callback func() error) error {
	return a.smokeLarge(x, y, 0, callback)
}

// spawnAt runs spawn now when at is zero and at tick offset at otherwise.
func (a *Animator) spawnAt(at int, spawn func() error) error {
	if at <= 0 {
		return spawn()
	}
	a.ctx.Time.AddEvent(spawn, at)
	return nil
}

func (a *Animator) smokeMedium(x, y float64, at int, callback func() error) error {
	stage := a.ctx.Game.SmokeStage

	var things [4]ecs.Entity
	err := a.spawnAt(at, func() error {
		var err error
		things, err = a.ThingCorners(x, y, "SmokeMedium", "Text")
		return err
	})
	if err != nil {
		return err
	}

	a.ctx.Time.AddEvent(func() error {
		a.ExpandCorners(things, a.ctx.Game.Unitsize)
		return nil
	}, at+stage)
	a.ctx.Time.AddEvent(func() error {
		a.killAll(things)
		return nil
	}, at+stage*2)
	return a.smokeLarge(x, y, at+stage*2, callback)
}

func (a *Animator) smokeLarge(x, y float64, at int, callback func() error) error {
	stage := a.ctx.Game.SmokeStage
	unitsize := a.ctx.Game.Unitsize

	var things [4]ecs.Entity
	err := a.spawnAt(at, func() error {
		var err error
		if things, err = a.ThingCorners(x, y, "SmokeLarge", "Text"); err != nil {
			return err
		}
		a.ExpandCorners(things, unitsize*2.5)
		return nil
	})
	if err != nil {
		return err
	}

	a.ctx.Time.AddEvent(func() error {
		a.ExpandCorners(things, unitsize*2)
		return nil
	}, at+stage)
	a.ctx.Time.AddEvent(func() error {
		a.killAll(things)
		return nil
	}, at+stage*3)
	if callback != nil {
		a.ctx.Time.AddEvent(callback, at+stage*3)
	}
	return nil
}

// Exclamation shows an exclamation mark above e for timeout ticks, or the
// default timeout when zero.
func (a *Animator) Exclamation(e ecs.Entity, timeout int, callback func() error) (ecs.Entity, error) {
	t, ok := a.ctx.thing(e)
	if !ok {
		return 0, nil
	}
	mark, mt, err := a.ctx.Things.Add("Exclamation", ThingSettings{})
	if err != nil {
		return 0, fmt.Errorf("exclamation over %s: %w", t.ID, err)
	}
	if timeout <= 0 {
		timeout = a.ctx.Game.Exclamation
	}

	mt.SetMidX(t.MidX())
	mt.SetBottom(t.Top)

	a.ctx.Time.AddEvent(func() error {
		a.ctx.kill(mark)
		return nil
	}, timeout)
	if callback != nil {
		a.ctx.Time.AddEvent(callback, timeout)
	}
	return mark, nil
}

func (a *Animator) colorFade(settings ColorFade, from bool) (ecs.Entity, error) {
	defaults := a.ctx.Game.Fade
	if settings.Color == "" {
		settings.Color = defaults.Color
	}
	if settings.Change == 0 {
		settings.Change = defaults.Change
	}
	if settings.Speed == 0 {
		settings.Speed = defaults.Speed
	}

	opacity, change, goal := 0.0, settings.Change, 1.0
	if from {
		opacity, change, goal = 1, -settings.Change, 0
	}

	blank, _, err := a.ctx.Things.Add(settings.Color+"Square", ThingSettings{
		Width:   a.ctx.Screen.Width / a.ctx.Game.Unitsize,
		Height:  a.ctx.Screen.Height / a.ctx.Game.Unitsize,
		Opacity: &opacity,
	})
	if err != nil {
		return 0, fmt.Errorf("fade %s: %w", settings.Color, err)
	}

	_, err = a.FadeAttribute(blank, component.AttributeOpacity, change, goal, settings.Speed, func() error {
		a.ctx.kill(blank)
		return a.complete(settings.Callback)
	})
	return blank, err
}

// FadeToColor covers the screen with a square of settings.Color that fades
// in, is removed, and then calls back.
func (a *Animator) FadeToColor(settings ColorFade) (ecs.Entity, error) {
	return a.colorFade(settings, false)
}

// FadeFromColor covers the screen with an opaque square that fades out.
func (a *Animator) FadeFromColor(settings ColorFade) (ecs.Entity, error) {
	return a.colorFade(settings, true)
}

// Flicker toggles e's visibility every interval ticks cleartime times. The
// thing is always left visible one tick after the last toggle.
func (a *Animator) Flicker(e ecs.Entity, cleartime, interval int, callback func() error) ecs.EventID {
	t, ok := a.ctx.thing(e)
	if !ok {
		return 0
	}
	if cleartime <= 0 {
		cleartime = a.ctx.Game.Flicker.Cleartime
	}
	if interval <= 0 {
		interval = a.ctx.Game.Flicker.Interval
	}

	t.Flickering = true
	a.ctx.Time.AddEventIntervalFor(e, func() error {
		t.Hidden = !t.Hidden
		if !t.Hidden {
			t.SpriteRefreshes++
		}
		return nil
	}, interval, cleartime)

	return a.ctx.Time.AddEventFor(e, func() error {
		t.Flickering = false
		t.Hidden = false
		t.SpriteRefreshes++
		return a.complete(callback)
	}, cleartime*interval+1)
}

// ScreenShake shifts every thing by (dx, dy) each tick and reverses the
// shift every interval ticks, so the screen oscillates around its start.
func (a *Animator) ScreenShake(dx, dy float64, cleartime, interval int, callback func() error) ecs.EventID {
	if cleartime <= 0 {
		cleartime = a.ctx.Game.Shake.Cleartime
	}
	if interval <= 0 {
		interval = a.ctx.Game.Shake.Interval
	}

	a.ctx.Time.AddEventInterval(func() error {
		ecs.ForEach(a.ctx.World, component.ThingComponent.Kind(), func(_ ecs.Entity, t *component.Thing) {
			t.Shift(dx, dy)
		})
		return nil
	}, 1, cleartime*interval)

	return a.ctx.Time.AddEvent(func() error {
		dx, dy = -dx, -dy

		a.ctx.Time.AddEventInterval(func() error {
			dx, dy = -dx, -dy
			return nil
		}, interval, cleartime)

		if callback != nil {
			a.ctx.Time.AddEvent(callback, interval*cleartime)
		}
		return nil
	}, interval/2)
}
