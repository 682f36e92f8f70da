package system

import (
	"testing"

	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionKeyStartsWalkingAfterDelay(t *testing.T) {
	cases := []struct {
		name      string
		key       Key
		direction component.Direction
		frames    int
	}{
		{"up_has_no_delay", KeyUp, component.Top, 1},
		{"right_has_no_delay", KeyRight, component.Right, 1},
		{"down_waits", KeyDown, component.Bottom, 2},
		{"left_waits", KeyLeft, component.Left, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCore(t, CoreOptions{})
			e, th := addAt(t, c, "Player", 2, 2, component.Top)
			ch := mustCharacter(t, c, e)

			require.NoError(t, c.Router.KeyDown(e, tc.key))
			assert.True(t, mustPlayer(t, c, e).Keys.Held(tc.direction))

			if tc.frames > 1 {
				runFrames(t, c, tc.frames-1)
				assert.False(t, ch.Walking())
			}
			runFrames(t, c, 1)
			assert.True(t, ch.Walking())
			assert.Equal(t, tc.direction, th.Direction)
			assert.Contains(t, eventTypes(c.Events()), "onKeyDownDirectionReal")
		})
	}
}

func TestHeldDirectionKeepsWalking(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 1, 1, component.Right)
	ch := mustCharacter(t, c, e)

	require.NoError(t, c.Router.KeyDown(e, KeyRight))
	runFrames(t, c, 40)
	assert.True(t, ch.Walking())
	assert.Greater(t, th.Left, 64.0)

	c.Router.KeyUp(e, KeyRight)
	runFrames(t, c, 32)
	assert.False(t, ch.Walking())
	assert.Equal(t, 96.0, th.Left)
}

func TestReleasedBeforeDelayDoesNothing(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 1, 1, component.Top)

	require.NoError(t, c.Router.KeyDown(e, KeyLeft))
	c.Router.KeyUp(e, KeyLeft)
	runFrames(t, c, 5)

	assert.False(t, mustCharacter(t, c, e).Walking())
	assert.Equal(t, component.Top, th.Direction)
}

func TestDirectionsIgnoredWhileBlockedOrPaused(t *testing.T) {
	cases := []struct {
		name  string
		setup func(c *Core)
	}{
		{"blocked", func(c *Core) { c.Context.Screen.BlockInputs = true }},
		{"paused", func(c *Core) { c.Context.Screen.Paused = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCore(t, CoreOptions{})
			e, _ := addAt(t, c, "Player", 1, 1, component.Top)
			tc.setup(c)

			require.NoError(t, c.Router.KeyDown(e, KeyRight))
			runFrames(t, c, 3)
			assert.False(t, mustPlayer(t, c, e).Keys.Held(component.Right))
			assert.False(t, mustCharacter(t, c, e).Walking())
		})
	}
}

func TestDirectionsNavigateActiveMenu(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)
	c.Context.Screen.BlockInputs = true

	c.Menus.CreateMenu("Pick", nil)
	c.Menus.AddMenuList("Pick", []menu.Option{{Text: "ONE"}, {Text: "TWO"}, {Text: "THREE"}})
	c.Menus.SetActiveMenu("Pick")

	require.NoError(t, c.Router.KeyDown(e, KeyDown))
	runFrames(t, c, 2)

	m, ok := c.Menus.Menu("Pick")
	require.True(t, ok)
	assert.Equal(t, 1, m.Selected)
	assert.False(t, mustCharacter(t, c, e).Walking())

	require.NoError(t, c.Router.KeyDown(e, KeyB))
	assert.False(t, c.Menus.HasMenu("Pick"))
}

func TestATalksToBorderingCharacter(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Right)
	other, ot := addAt(t, c, "Character", 2, 1, component.Bottom)
	mustDetector(t, c, other).Dialog = []string{"Hello %%%%%%%PLAYER%%%%%%%!", "Bye."}
	runFrames(t, c, 1)

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Equal(t, menu.GeneralText, c.Menus.ActiveMenu())
	m, _ := c.Menus.Menu(menu.GeneralText)
	assert.Equal(t, "Hello RED!", m.Text())
	assert.Equal(t, component.Left, ot.Direction, "the talker turns to face the player")
	assert.True(t, mustCharacter(t, c, other).Talking)
	assert.True(t, c.Context.Screen.BlockInputs)

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Equal(t, "Bye.", m.Text())

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Empty(t, c.Menus.ActiveMenu())
	assert.False(t, mustCharacter(t, c, other).Talking)
	assert.False(t, mustCharacter(t, c, e).Talking)
	assert.False(t, c.Context.Screen.BlockInputs)
	assert.True(t, mustPlayer(t, c, e).CanKeyWalking)

	runFrames(t, c, 1)
	assert.Contains(t, eventTypes(c.Events()), "onDialogFinish")
}

func TestAWithNothingInFrontOnlyFires(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Right)
	runFrames(t, c, 1)

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Empty(t, c.Menus.ActiveMenu())
	assert.False(t, mustPlayer(t, c, e).Keys.A)

	runFrames(t, c, 1)
	assert.Contains(t, eventTypes(c.Events()), "onKeyDownA")
}

func TestSelectUsesRegisteredItem(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 1, 1, component.Top)
	p := mustPlayer(t, c, e)

	require.NoError(t, c.Router.KeyDown(e, KeySelect))
	assert.False(t, p.Cycling, "nothing registered")

	c.Store.SetSelectItem("Bicycle")
	require.NoError(t, c.Router.KeyDown(e, KeySelect))
	assert.True(t, p.Cycling)
	assert.True(t, th.HasClass("cycling"))

	require.NoError(t, c.Router.KeyDown(e, KeySelect))
	assert.False(t, p.Cycling)
	assert.False(t, th.HasClass("cycling"))
}

func TestSelectRefusedShowsItemError(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)
	mustPlayer(t, c, e).Surfing = true

	c.Store.SetSelectItem("Bicycle")
	require.NoError(t, c.Router.KeyDown(e, KeySelect))

	m, ok := c.Menus.Menu(menu.GeneralText)
	require.True(t, ok)
	assert.Equal(t, "No cycling allowed here.", m.Text())
}

func TestSelectItemWithoutActionFails(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)

	c.Store.SetSelectItem("Mystery")
	err := c.Router.KeyDown(e, KeySelect)
	assert.ErrorIs(t, err, component.ErrMissingBagActivate)
}

func TestSelectPlaysItemRoutine(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)

	c.Store.SetSelectItem("Town Map")
	require.NoError(t, c.Router.KeyDown(e, KeySelect))

	m, ok := c.Menus.Menu(menu.GeneralText)
	require.True(t, ok)
	assert.Equal(t, "A map of the KANTO region.", m.Text())
}

func TestPauseAndMuteKeys(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)

	require.NoError(t, c.Router.KeyDown(e, KeyPause))
	assert.True(t, c.Context.Screen.Paused)
	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Empty(t, c.Menus.ActiveMenu())

	c.Router.MouseDownRight(e)
	assert.False(t, c.Context.Screen.Paused)

	require.NoError(t, c.Router.KeyDown(e, KeyMute))
	assert.True(t, c.Music.Muted())
}

type stubKeys struct {
	pressed  map[Key]bool
	released map[Key]bool
}

func (s stubKeys) JustPressed(k Key) bool  { return s.pressed[k] }
func (s stubKeys) JustReleased(k Key) bool { return s.released[k] }
func (s stubKeys) MouseRightPressed() bool { return false }

func TestInputSystemFeedsRouter(t *testing.T) {
	keys := &stubKeys{pressed: map[Key]bool{KeyRight: true}, released: map[Key]bool{}}
	c := newTestCore(t, CoreOptions{Keys: keys})
	e, _ := addAt(t, c, "Player", 1, 1, component.Top)

	runFrames(t, c, 1)
	keys.pressed = map[Key]bool{}
	assert.True(t, mustPlayer(t, c, e).Keys.Held(component.Right))

	keys.released = map[Key]bool{KeyRight: true}
	runFrames(t, c, 1)
	assert.False(t, mustPlayer(t, c, e).Keys.Held(component.Right))
}
