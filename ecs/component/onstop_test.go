package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceFromLegacy(t *testing.T) {
	t.Run("legs", func(t *testing.T) {
		seq, err := SequenceFromLegacy(Left, 2, Top, 1, float64(Right), 3)
		require.NoError(t, err)
		assert.Equal(t, []Step{
			Move{Direction: Left, Distance: 2},
			Move{Direction: Top, Distance: 1},
			Move{Direction: Right, Distance: 3},
		}, seq.Steps)
	})

	t.Run("trailing_direction_turns", func(t *testing.T) {
		seq, err := SequenceFromLegacy(Left, 1, Bottom)
		require.NoError(t, err)
		assert.Equal(t, Move{Direction: Bottom}, seq.Steps[1])
	})

	t.Run("callback_ends_the_plan", func(t *testing.T) {
		called := false
		seq, err := SequenceFromLegacy(Top, 1, func() (bool, error) {
			called = true
			return true, nil
		})
		require.NoError(t, err)
		require.Equal(t, 2, seq.Len())
		inv, ok := seq.Steps[1].(Invoke)
		require.True(t, ok)
		_, _ = inv.Fn()
		assert.True(t, called)
	})

	t.Run("callback_not_last", func(t *testing.T) {
		_, err := SequenceFromLegacy(Top, 1, Callback(func() (bool, error) { return true, nil }), 2)
		assert.ErrorIs(t, err, ErrUnknownOnStop)
	})

	t.Run("bad_distance", func(t *testing.T) {
		_, err := SequenceFromLegacy(Top, "far")
		assert.ErrorIs(t, err, ErrUnknownOnStop)
	})

	t.Run("bad_direction", func(t *testing.T) {
		_, err := SequenceFromLegacy(Top, 1, 8)
		assert.ErrorIs(t, err, ErrUnknownDirection)
	})
}

func TestSequenceCloneAndRest(t *testing.T) {
	seq := Walk(Top, 2, Move{Direction: Left, Distance: 1})
	clone := seq.Clone()
	clone.Steps[0] = Move{Direction: Top, Distance: 1}
	assert.Equal(t, Move{Direction: Top, Distance: 2}, seq.Steps[0])

	rest := seq.Rest()
	assert.Equal(t, []Step{Move{Direction: Left, Distance: 1}}, rest.Steps)
	assert.Zero(t, rest.Rest().Len())

	var none *Sequence
	assert.Zero(t, none.Len())
	assert.Nil(t, none.Clone())
}

func TestThingClassesAndEdges(t *testing.T) {
	th := &Thing{Left: 8, Top: 4}
	th.SetWidth(2, 4)
	th.SetHeight(3, 4)
	assert.Equal(t, 16.0, th.Right())
	assert.Equal(t, 16.0, th.Bottom())

	th.SetMidX(0)
	assert.Equal(t, -4.0, th.Left)

	th.AddClass("walking")
	th.AddClass("up")
	th.AddClass("")
	assert.Equal(t, []string{"up", "walking"}, th.Classes())
	th.RemoveClasses("up", "missing")
	assert.True(t, th.HasClass("walking"))
	assert.False(t, th.HasClass("up"))

	_, ok := th.BorderingIn(Direction(5))
	assert.False(t, ok)
	th.Bordering[Left] = 7
	id, ok := th.BorderingIn(Left)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), id)
}
