package system

import (
	"testing"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldMoveCore(t *testing.T, target string, moves ...string) (*Core, ecs.Entity, ecs.Entity) {
	t.Helper()
	c := newTestCore(t, CoreOptions{})
	pe, _ := addAt(t, c, "Player", 2, 2, component.Top)
	other, _ := addAt(t, c, target, 2, 1, component.Top)
	c.Store.SetParty([]component.PartyMember{{Title: "BULBASAUR", Moves: moves}})
	c.Physics.UpdateBordering(c.World)
	return c, pe, other
}

func TestCut(t *testing.T) {
	cases := []struct {
		name    string
		badge   bool
		moves   []string
		removed bool
	}{
		{"with_badge_and_move", true, []string{"Tackle", "Cut"}, true},
		{"without_badge", false, []string{"Cut"}, false},
		{"nobody_knows_cut", true, []string{"Tackle"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, pe, tree := fieldMoveCore(t, "CuttableTree", tc.moves...)
			if tc.badge {
				c.Store.AddBadge("Brock")
			}

			require.NoError(t, c.Router.KeyDown(pe, KeyA))
			assert.Equal(t, tc.removed, !ecs.IsAlive(c.World, tree))
		})
	}
}

func TestCutNeedsToFaceTree(t *testing.T) {
	c, pe, tree := fieldMoveCore(t, "CuttableTree", "Cut")
	c.Store.AddBadge("Brock")
	c.Walk.SetDirection(pe, component.Left)

	require.NoError(t, c.Act.ActivateHMCharacter(pe, tree))
	assert.True(t, ecs.IsAlive(c.World, tree))
}

func TestStrengthPushesBoulder(t *testing.T) {
	c, pe, boulder := fieldMoveCore(t, "StrengthBoulder", "Strength")
	c.Store.AddBadge("Brock")
	bt, _ := c.Context.thing(boulder)

	require.NoError(t, c.Act.Activate(pe, boulder))
	runFrames(t, c, c.Context.Game.StrengthPush)
	assert.Equal(t, 0.0, bt.Top)

	runFrames(t, c, 4)
	assert.Equal(t, 0.0, bt.Top, "the push is one cell")
}

func TestStrengthBlockedBoulderStays(t *testing.T) {
	c, pe, boulder := fieldMoveCore(t, "StrengthBoulder", "Strength")
	c.Store.AddBadge("Brock")
	addAt(t, c, "Solid", 2, 0, component.Top)
	c.Physics.UpdateBordering(c.World)
	bt, _ := c.Context.thing(boulder)

	require.NoError(t, c.Act.Activate(pe, boulder))
	runFrames(t, c, c.Context.Game.StrengthPush)
	assert.Equal(t, 32.0, bt.Top)
}

func TestStrengthNeedsBoulderInReach(t *testing.T) {
	c, pe, boulder := fieldMoveCore(t, "StrengthBoulder", "Strength")
	c.Store.AddBadge("Brock")
	bt, _ := c.Context.thing(boulder)
	bt.SetTop(-64)

	require.NoError(t, c.Act.PartyActivateStrength(pe))
	runFrames(t, c, c.Context.Game.StrengthPush)
	assert.Equal(t, -64.0, bt.Top)
}

func TestSurfWalksOntoWater(t *testing.T) {
	c, pe, _ := fieldMoveCore(t, "Water", "Surf")
	c.Store.AddBadge("Brock")
	pt, _ := c.Context.thing(pe)

	require.NoError(t, c.Router.KeyDown(pe, KeyA))
	p := mustPlayer(t, c, pe)
	assert.True(t, p.Surfing)
	assert.True(t, pt.HasClass("surfing"))

	runFrames(t, c, 32)
	assert.Equal(t, 32.0, pt.Top, "water never blocks a surfer")
}

func TestSurfRefusedWhileCycling(t *testing.T) {
	c, pe, water := fieldMoveCore(t, "Water", "Surf")
	c.Store.AddBadge("Brock")
	mustPlayer(t, c, pe).Cycling = true

	require.NoError(t, c.Act.Activate(pe, water))
	assert.False(t, mustPlayer(t, c, pe).Surfing)
}
