package ecs

import (
	"testing"

	"github.com/milk9111/overworld/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y float64 }
type label struct{ Name string }

var (
	positionComponent = component.NewComponent[position]()
	labelComponent    = component.NewComponent[label]()
)

func TestEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_destroy_middle", 3, 1},
		{"none_destroyed", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, CreateEntity(w))
			}
			require.Len(t, Entities(w), c.create)
			if c.destroyIndex < 0 {
				return
			}

			e := ents[c.destroyIndex]
			require.True(t, DestroyEntity(w, e))
			assert.False(t, IsAlive(w, e))
			assert.False(t, DestroyEntity(w, e), "second destroy")
			assert.Len(t, Entities(w), c.create-1)
		})
	}
}

func TestRecycledSlotDoesNotResolveOldHandle(t *testing.T) {
	w := NewWorld()
	old := CreateEntity(w)
	require.NoError(t, Add(w, old, labelComponent.Kind(), &label{Name: "old"}))
	require.True(t, DestroyEntity(w, old))

	fresh := CreateEntity(w)
	assert.Equal(t, old.id(), fresh.id())
	assert.NotEqual(t, old, fresh)
	assert.False(t, IsAlive(w, old))

	_, ok := Get(w, fresh, labelComponent.Kind())
	assert.False(t, ok, "components do not survive into a recycled slot")
	_, ok = Get(w, old, labelComponent.Kind())
	assert.False(t, ok)
}

func TestComponents(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)

	tests := []struct {
		name  string
		run   func() error
		check func(t *testing.T)
	}{
		{
			name: "add",
			run:  func() error { return Add(w, e, positionComponent.Kind(), &position{X: 1, Y: 2}) },
			check: func(t *testing.T) {
				p, ok := Get(w, e, positionComponent.Kind())
				require.True(t, ok)
				assert.Equal(t, position{X: 1, Y: 2}, *p)
			},
		},
		{
			name: "replace",
			run:  func() error { return Add(w, e, positionComponent.Kind(), &position{X: 3}) },
			check: func(t *testing.T) {
				p, _ := Get(w, e, positionComponent.Kind())
				assert.Equal(t, 3.0, p.X)
			},
		},
		{
			name: "remove",
			run: func() error {
				Remove(w, e, positionComponent.Kind())
				return nil
			},
			check: func(t *testing.T) {
				assert.False(t, Has(w, e, positionComponent.Kind()))
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.run())
			tc.check(t)
		})
	}
}

func TestAddErrors(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	dead := CreateEntity(w)
	DestroyEntity(w, dead)

	assert.ErrorIs(t, Add(w, dead, labelComponent.Kind(), &label{}), component.ErrEntityNotAlive)
	assert.ErrorIs(t, Add[label](w, e, labelComponent.Kind(), nil), component.ErrNilComponent)
	assert.ErrorIs(t, Add(w, e, component.ComponentKind[label]{}, &label{}), component.ErrInvalidComponentKind)
}

func TestForEachToleratesDestroyDuringIteration(t *testing.T) {
	w := NewWorld()
	var ents []Entity
	for i := 0; i < 4; i++ {
		e := CreateEntity(w)
		require.NoError(t, Add(w, e, labelComponent.Kind(), &label{}))
		ents = append(ents, e)
	}

	visited := 0
	ForEach(w, labelComponent.Kind(), func(e Entity, _ *label) {
		visited++
		if e == ents[0] {
			DestroyEntity(w, ents[3])
		}
	})
	assert.Equal(t, 3, visited)
}

func TestForEach2AndFirst(t *testing.T) {
	w := NewWorld()
	both := CreateEntity(w)
	onlyLabel := CreateEntity(w)
	require.NoError(t, Add(w, both, labelComponent.Kind(), &label{Name: "both"}))
	require.NoError(t, Add(w, both, positionComponent.Kind(), &position{}))
	require.NoError(t, Add(w, onlyLabel, labelComponent.Kind(), &label{Name: "label"}))

	var names []string
	ForEach2(w, labelComponent.Kind(), positionComponent.Kind(), func(_ Entity, l *label, _ *position) {
		names = append(names, l.Name)
	})
	assert.Equal(t, []string{"both"}, names)

	first, ok := First(w, positionComponent.Kind())
	require.True(t, ok)
	assert.Equal(t, both, first)

	_, ok = First(NewWorld(), positionComponent.Kind())
	assert.False(t, ok)
}

func TestOnDestroyRunsBeforeComponentsDrop(t *testing.T) {
	w := NewWorld()
	e := CreateEntity(w)
	require.NoError(t, Add(w, e, labelComponent.Kind(), &label{Name: "gone"}))

	var seen string
	OnDestroy(w, func(d Entity) {
		l, ok := Get(w, d, labelComponent.Kind())
		if ok {
			seen = l.Name
		}
	})
	DestroyEntity(w, e)
	assert.Equal(t, "gone", seen)
}

func TestEventQueueDrain(t *testing.T) {
	w := NewWorld()
	w.Events().Push(Event{Type: "a"})
	w.Events().Push(Event{Type: "b"})
	require.Equal(t, 2, w.Events().Len())

	got := w.Events().Drain()
	assert.Equal(t, []Event{{Type: "a"}, {Type: "b"}}, got)
	assert.Nil(t, w.Events().Drain())
}

func TestSchedulerRunsInOrder(t *testing.T) {
	var order []int
	s := NewScheduler(
		SystemFunc(func(*World) { order = append(order, 1) }),
		nil,
		SystemFunc(func(*World) { order = append(order, 2) }),
	)
	s.Update(NewWorld())
	assert.Equal(t, []int{1, 2}, order)
}
