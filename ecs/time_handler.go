package ecs

import (
	"errors"
	"fmt"
)

// Infinite repeats an interval event until it is cancelled or stops itself.
const Infinite = -1

// ErrStopEvent ends an interval event when returned from its callback. It
// is never surfaced from Tick.
var ErrStopEvent = errors.New("ecs: stop event")

// EventID identifies a scheduled event. Zero is never issued.
type EventID = uint64

// EventFunc is a scheduled callback. Returning ErrStopEvent stops an
// interval; any other error aborts the tick and is returned from Tick.
type EventFunc func() error

// Cycler is anything that carries visual classes and named class cycles.
type Cycler interface {
	AddClass(name string)
	RemoveClass(name string)
	Cycle(name string) (EventID, bool)
	SetCycle(name string, id EventID)
	ClearCycle(name string)
}

type timedEvent struct {
	id        EventID
	fn        EventFunc
	interval  int
	remaining int
	owner     Entity
	cancelled bool
}

// TimeHandler is the deferred event scheduler. Events are bucketed by the
// tick they are due on and fire in registration order within a tick.
type TimeHandler struct {
	world  *World
	time   int
	nextID EventID
	events map[int][]*timedEvent
	byID   map[EventID]*timedEvent
	owned  map[Entity]map[EventID]struct{}
}

// NewTimeHandler creates a scheduler. When w is non-nil, events bound to an
// entity are cancelled as soon as that entity is destroyed.
func NewTimeHandler(w *World) *TimeHandler {
	th := &TimeHandler{
		world:  w,
		events: make(map[int][]*timedEvent),
		byID:   make(map[EventID]*timedEvent),
		owned:  make(map[Entity]map[EventID]struct{}),
	}
	OnDestroy(w, th.CancelOwned)
	return th
}

// Time returns the number of ticks handled so far.
func (th *TimeHandler) Time() int {
	return th.time
}

// Pending reports the number of live scheduled events.
func (th *TimeHandler) Pending() int {
	return len(th.byID)
}

// AddEvent runs fn once after delay ticks. Delays below one are treated as
// one so nothing ever fires inside the call that scheduled it.
func (th *TimeHandler) AddEvent(fn EventFunc, delay int) EventID {
	return th.schedule(0, fn, delay, 0, 1)
}

// AddEventFor is AddEvent bound to an owner entity.
func (th *TimeHandler) AddEventFor(owner Entity, fn EventFunc, delay int) EventID {
	return th.schedule(owner, fn, delay, 0, 1)
}

// AddEventInterval runs fn every interval ticks, repeat times or forever
// with Infinite.
func (th *TimeHandler) AddEventInterval(fn EventFunc, interval, repeat int) EventID {
	return th.schedule(0, fn, interval, interval, repeat)
}

// AddEventIntervalFor is AddEventInterval bound to an owner entity.
func (th *TimeHandler) AddEventIntervalFor(owner Entity, fn EventFunc, interval, repeat int) EventID {
	return th.schedule(owner, fn, interval, interval, repeat)
}

func (th *TimeHandler) schedule(owner Entity, fn EventFunc, delay, interval, repeat int) EventID {
	if fn == nil || repeat == 0 {
		return 0
	}
	if delay < 1 {
		delay = 1
	}
	if interval < 0 {
		interval = 0
	}
	th.nextID++
	ev := &timedEvent{
		id:        th.nextID,
		fn:        fn,
		interval:  interval,
		remaining: repeat,
		owner:     owner,
	}
	th.byID[ev.id] = ev
	if owner.Valid() {
		set := th.owned[owner]
		if set == nil {
			set = make(map[EventID]struct{})
			th.owned[owner] = set
		}
		set[ev.id] = struct{}{}
	}
	th.enqueue(ev, th.time+delay)
	return ev.id
}

func (th *TimeHandler) enqueue(ev *timedEvent, at int) {
	th.events[at] = append(th.events[at], ev)
}

// CancelEvent stops a pending event. Cancelling an unknown or finished id
// is a no-op.
func (th *TimeHandler) CancelEvent(id EventID) {
	ev, ok := th.byID[id]
	if !ok {
		return
	}
	th.retire(ev)
}

// CancelOwned cancels every event bound to e.
func (th *TimeHandler) CancelOwned(e Entity) {
	for id := range th.owned[e] {
		if ev, ok := th.byID[id]; ok {
			ev.cancelled = true
			delete(th.byID, id)
		}
	}
	delete(th.owned, e)
}

func (th *TimeHandler) retire(ev *timedEvent) {
	ev.cancelled = true
	delete(th.byID, ev.id)
	if set, ok := th.owned[ev.owner]; ok {
		delete(set, ev.id)
		if len(set) == 0 {
			delete(th.owned, ev.owner)
		}
	}
}

// AddClassCycle applies classes[0] now and rotates through classes every
// interval ticks. Empty class names stand for "no class". An existing cycle
// of the same name is replaced.
func (th *TimeHandler) AddClassCycle(owner Entity, c Cycler, classes []string, name string, interval int) EventID {
	if c == nil || len(classes) == 0 {
		return 0
	}
	th.CancelClassCycle(c, name)

	index := 0
	if classes[0] != "" {
		c.AddClass(classes[0])
	}
	id := th.AddEventIntervalFor(owner, func() error {
		if classes[index] != "" {
			c.RemoveClass(classes[index])
		}
		index = (index + 1) % len(classes)
		if classes[index] != "" {
			c.AddClass(classes[index])
		}
		return nil
	}, interval, Infinite)
	c.SetCycle(name, id)
	return id
}

// CancelClassCycle stops a named class cycle. The classes it applied are
// left in place for the caller to remove.
func (th *TimeHandler) CancelClassCycle(c Cycler, name string) {
	if c == nil {
		return
	}
	if id, ok := c.Cycle(name); ok {
		th.CancelEvent(id)
		c.ClearCycle(name)
	}
}

// Tick advances time by one and fires everything due. Events bound to a
// dead owner are dropped without running.
func (th *TimeHandler) Tick() error {
	th.time++
	due := th.events[th.time]
	delete(th.events, th.time)

	for i, ev := range due {
		if ev.cancelled {
			continue
		}
		if ev.owner.Valid() && th.world != nil && !IsAlive(th.world, ev.owner) {
			th.retire(ev)
			continue
		}

		err := ev.fn()
		if ev.cancelled {
			// cancelled from inside its own callback
			continue
		}
		if errors.Is(err, ErrStopEvent) {
			th.retire(ev)
			continue
		}
		if err != nil {
			th.retire(ev)
			th.events[th.time+1] = append(append([]*timedEvent(nil), due[i+1:]...), th.events[th.time+1]...)
			return fmt.Errorf("ecs: event %d at tick %d: %w", ev.id, th.time, err)
		}

		if ev.remaining != Infinite {
			ev.remaining--
		}
		if ev.interval == 0 || ev.remaining == 0 {
			th.retire(ev)
			continue
		}
		th.enqueue(ev, th.time+ev.interval)
	}
	return nil
}
