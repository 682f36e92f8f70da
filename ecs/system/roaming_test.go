package system

import (
	"testing"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowLinksBehindLeader(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, ft := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 2, 1, component.Top)
	fch, lch := mustCharacter(t, c, f), mustCharacter(t, c, leader)
	lch.Speed = 2

	require.NoError(t, c.Walk.Follow(f, leader))
	assert.Equal(t, uint64(leader), fch.Following)
	assert.Equal(t, uint64(f), lch.Follower)
	assert.Equal(t, component.Right, ft.Direction)
	assert.True(t, ft.NoCollide)
	assert.True(t, fch.Walking())
	assert.Equal(t, 2.0, fch.Speed)
	assert.NotNil(t, lch.WalkingCommands)
	assert.NotZero(t, fch.FollowingLoop)

	require.NoError(t, c.Walk.StartWalkingCycle(leader, component.Bottom, component.Walk(component.Bottom, 1)))
	assert.Equal(t, []component.Direction{component.Bottom}, lch.WalkingCommands)

	assert.True(t, c.Walk.FollowStop(f))
	assert.Zero(t, fch.Following)
	assert.Zero(t, lch.Follower)
	assert.Zero(t, fch.FollowingLoop)
	assert.False(t, ft.NoCollide)
	assert.Equal(t, 1.0, fch.Speed, "speed comes back from the state history")
	assert.False(t, fch.Walking())
}

func TestFollowTooFar(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, _ := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 4, 1, component.Top)

	assert.ErrorIs(t, c.Walk.Follow(f, leader), component.ErrTooFarToFollow)
}

func TestFollowContinue(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, ft := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 1, 2, component.Top)
	lch := mustCharacter(t, c, leader)

	assert.ErrorIs(t, c.Walk.FollowContinue(f, leader), component.ErrMissingWalkingCommands)

	lch.WalkingCommands = []component.Direction{component.Left, component.Bottom}
	require.NoError(t, c.Walk.FollowContinue(f, leader))
	assert.Equal(t, component.Left, ft.Direction)
	assert.True(t, mustCharacter(t, c, f).Walking())
	assert.Equal(t, []component.Direction{component.Bottom}, lch.WalkingCommands)
}

func TestFollowerStopsWhenLeaderDies(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, _ := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 1, 2, component.Top)
	require.NoError(t, c.Walk.Follow(f, leader))

	ecs.DestroyEntity(c.World, leader)
	runFrames(t, c, c.Context.Game.WalkingRepeats(1))

	fch := mustCharacter(t, c, f)
	assert.Zero(t, fch.Following)
	assert.Zero(t, fch.FollowingLoop)
}

func TestLeaderForgetsDeadFollower(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, _ := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 1, 2, component.Top)
	lch := mustCharacter(t, c, leader)
	require.NoError(t, c.Walk.Follow(f, leader))

	ecs.DestroyEntity(c.World, f)
	assert.Zero(t, lch.Follower)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Walk.StartWalkingCycle(leader, component.Bottom, component.Walk(component.Bottom, 1)))
		runFrames(t, c, c.Context.Game.WalkingRepeats(1))
	}
	assert.Zero(t, lch.Follower)
	assert.Empty(t, lch.WalkingCommands)
}

func TestFollowerStaysPutAfterFollowStop(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	f, ft := addAt(t, c, "Character", 1, 1, component.Top)
	leader, _ := addAt(t, c, "Character", 1, 2, component.Top)
	require.NoError(t, c.Walk.Follow(f, leader))
	repeats := c.Context.Game.WalkingRepeats(1)

	require.NoError(t, c.Walk.StartWalkingCycle(leader, component.Bottom, component.Walk(component.Bottom, 3)))
	runFrames(t, c, repeats+repeats/2)

	c.Walk.FollowStop(f)
	left, top := ft.Left, ft.Top

	runFrames(t, c, repeats*4)
	assert.Equal(t, left, ft.Left)
	assert.Equal(t, top, ft.Top)
	assert.False(t, mustCharacter(t, c, f).Walking())
}

func TestRoaming(t *testing.T) {
	cases := []struct {
		name    string
		numbers []int
		allowed []component.Direction
		facing  component.Direction
		walks   bool
	}{
		{"walks_allowed_direction", []int{0, 0, 3}, []component.Direction{component.Left}, component.Left, true},
		{"turns_toward_other_directions", []int{0, 0, 1}, []component.Direction{component.Left}, component.Right, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCore(t, CoreOptions{Numbers: &fixedNumbers{values: tc.numbers}})
			e, th := addAt(t, c, "Character", 3, 3, component.Bottom)
			ch := mustCharacter(t, c, e)
			ch.Roaming = true
			ch.RoamingDirections = tc.allowed

			require.NoError(t, c.Act.Spawn(e))
			runFrames(t, c, 1)

			assert.Equal(t, tc.facing, th.Direction)
			assert.Equal(t, tc.walks, ch.Walking())
		})
	}
}

func TestRoamingPausesWhileTalking(t *testing.T) {
	c := newTestCore(t, CoreOptions{Numbers: &fixedNumbers{values: []int{0, 0, 3}}})
	e, th := addAt(t, c, "Character", 3, 3, component.Bottom)
	ch := mustCharacter(t, c, e)
	ch.RoamingDirections = []component.Direction{component.Left}
	ch.Talking = true

	done, err := c.Walk.Roam(e)
	require.NoError(t, err)
	assert.False(t, done)
	assert.False(t, ch.Walking())
	assert.Equal(t, component.Bottom, th.Direction)
	assert.Equal(t, 1, c.Time.Pending(), "the next beat is still scheduled")
}

func TestStartWalkingRandom(t *testing.T) {
	t.Run("needs_directions", func(t *testing.T) {
		c := newTestCore(t, CoreOptions{})
		e, _ := addAt(t, c, "Character", 3, 3, component.Bottom)
		assert.ErrorIs(t, c.Walk.StartWalkingRandom(e), component.ErrMissingRoamingDirections)
	})

	t.Run("skips_blocked_sides", func(t *testing.T) {
		c := newTestCore(t, CoreOptions{Numbers: &fixedNumbers{values: []int{0}}})
		e, th := addAt(t, c, "Character", 3, 3, component.Bottom)
		addAt(t, c, "Solid", 3, 2, component.Top)
		mustCharacter(t, c, e).RoamingDirections = component.Directions[:]
		c.Physics.UpdateBordering(c.World)

		require.NoError(t, c.Walk.StartWalkingRandom(e))
		assert.Equal(t, component.Right, th.Direction, "top is blocked so the first open side is right")
		assert.True(t, mustCharacter(t, c, e).Walking())
	})
}

func TestSightDetector(t *testing.T) {
	cases := []struct {
		name      string
		direction component.Direction
		check     func(t *testing.T, owner, sight *component.Thing)
	}{
		{"left", component.Left, func(t *testing.T, owner, sight *component.Thing) {
			assert.Equal(t, owner.Left, sight.Right())
			assert.Equal(t, owner.MidY(), sight.MidY())
			assert.Equal(t, 128.0, sight.UnitWidth)
		}},
		{"bottom", component.Bottom, func(t *testing.T, owner, sight *component.Thing) {
			assert.Equal(t, owner.Bottom(), sight.Top)
			assert.Equal(t, owner.MidX(), sight.MidX())
			assert.Equal(t, 128.0, sight.UnitHeight)
			assert.Equal(t, owner.UnitWidth, sight.UnitWidth)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCore(t, CoreOptions{})
			e, th := addAt(t, c, "Trainer", 5, 5, component.Left)
			require.NoError(t, c.Act.Spawn(e))

			ch := mustCharacter(t, c, e)
			require.NotZero(t, ch.SightDetector)
			sd := mustDetector(t, c, ecs.Entity(ch.SightDetector))
			assert.Equal(t, uint64(e), sd.Viewer)

			c.Walk.SetDirection(e, tc.direction)
			require.NoError(t, c.Walk.PositionSightDetector(e))
			st, ok := c.Context.thing(ecs.Entity(ch.SightDetector))
			require.True(t, ok)
			tc.check(t, th, st)
		})
	}
}

func TestSightDetectorSpotsPlayer(t *testing.T) {
	src := scripts{"TrainerSpotted": `
routines := {
	Entry: func(engine, args) {
		engine.add_item("Spotted")
	}
}
`}
	c := newTestCore(t, CoreOptions{Scripts: src.load})
	trainer, _ := addAt(t, c, "Trainer", 5, 1, component.Left)
	require.NoError(t, c.Act.Spawn(trainer))
	addAt(t, c, "Player", 2, 1, component.Top)

	runFrames(t, c, 1)
	assert.Equal(t, 1, c.Store.BagCount("Spotted"))
	assert.True(t, mustCharacter(t, c, trainer).Talking)
	assert.True(t, c.Context.Screen.BlockInputs)

	runFrames(t, c, 3)
	assert.Equal(t, 1, c.Store.BagCount("Spotted"), "a sight line fires once")
}
