package system

import (
	"testing"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/levels"
	"github.com/milk9111/overworld/menu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testMap is a two room map: Room at the top, Yard below it.
func testMap() *levels.Map {
	m := &levels.Map{
		Name: "test",
		Areas: map[string]*levels.Area{
			"Room": {
				Width: 40, Height: 40, Theme: "Room Theme",
				Things: []levels.Placement{
					{Title: "Solid", ID: "Crate", X: 24, Y: 24},
					{Title: "Door", ID: "RoomDoor", X: 16, Y: 32},
				},
			},
			"Yard": {
				Width: 40, Height: 40,
				Things: []levels.Placement{
					{Title: "Solid", ID: "YardRock", X: 0, Y: 0},
				},
			},
		},
		Locations: map[string]*levels.Location{
			"Start": {Area: "Room", X: 8, Y: 8, Direction: component.Top},
			"Back":  {Area: "Yard", X: 16, Y: 16, Direction: component.Bottom},
		},
	}
	for name, a := range m.Areas {
		a.Name, a.Map = name, m.Name
	}
	for name, l := range m.Locations {
		l.Name = name
	}
	return m
}

func startTestMap(t *testing.T, c *Core) ecs.Entity {
	t.Helper()
	c.Maps.Add(testMap())
	require.NoError(t, c.Start("test", "Start"))
	pe, ok := ecs.First(c.World, component.PlayerComponent.Kind())
	require.True(t, ok)
	return pe
}

func findThing(c *Core, id string) (ecs.Entity, *component.Thing, bool) {
	var (
		found ecs.Entity
		thing *component.Thing
	)
	ecs.ForEach(c.World, component.ThingComponent.Kind(), func(e ecs.Entity, t *component.Thing) {
		if t.ID == id {
			found, thing = e, t
		}
	})
	return found, thing, thing != nil
}

type fakeTrack struct {
	playing bool
	volume  float64
	rewinds int
}

func (f *fakeTrack) Play()               { f.playing = true }
func (f *fakeTrack) Pause()              { f.playing = false }
func (f *fakeTrack) Rewind() error       { f.rewinds++; return nil }
func (f *fakeTrack) SetVolume(v float64) { f.volume = v }
func (f *fakeTrack) IsPlaying() bool     { return f.playing }

func trackLoader(tracks map[string]*fakeTrack) TrackLoader {
	return func(name string) (Track, error) {
		t, ok := tracks[name]
		if !ok {
			t = &fakeTrack{}
			tracks[name] = t
		}
		return t, nil
	}
}

func TestMenuTriggererOpensDialogAndReleases(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Right)
	trig, _ := addAt(t, c, "MenuTriggerer", 2, 1, component.Top)
	mustDetector(t, c, trig).Dialog = []string{"Watch your step."}

	require.NoError(t, c.Walk.StartWalking(e, component.Right, nil))
	runFrames(t, c, 2)

	assert.Equal(t, menu.GeneralText, c.Menus.ActiveMenu())
	assert.True(t, c.Context.Screen.BlockInputs)
	assert.False(t, ecs.IsAlive(c.World, trig), "single use triggers are removed")
	assert.Equal(t, uint64(trig), mustPlayer(t, c, e).CollidedTrigger)

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Empty(t, c.Menus.ActiveMenu())
	assert.False(t, c.Context.Screen.BlockInputs)
	assert.Zero(t, mustPlayer(t, c, e).CollidedTrigger)
}

func TestMenuTriggererWithoutDialogFails(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Right)
	trig, _ := addAt(t, c, "MenuTriggerer", 1, 1, component.Top)

	err := c.Act.ActivateMenuTriggerer(e, trig)
	assert.ErrorIs(t, err, component.ErrMissingDialog)
}

func TestMenuTriggererPushesPlayerBack(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 2, 1, component.Right)
	trig, _ := addAt(t, c, "MenuTriggerer", 2, 1, component.Top)
	d := mustDetector(t, c, trig)
	d.Dialog = []string{"You can't go out there!"}
	left := component.Left
	d.PushDirection = &left
	d.PushSteps = component.Walk(component.Left, 1)

	require.NoError(t, c.Act.ActivateMenuTriggerer(e, trig))
	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.True(t, c.Context.Screen.BlockInputs, "held until the push ends")

	runFrames(t, c, 32)
	assert.Equal(t, 32.0, th.Left)
	assert.Equal(t, component.Left, th.Direction)
	assert.False(t, c.Context.Screen.BlockInputs)
}

func TestLedgeHop(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 1, 1, component.Bottom)
	addAt(t, c, "LedgeDown", 1, 2, component.Bottom)
	ch := mustCharacter(t, c, e)
	runFrames(t, c, 1)
	assert.Zero(t, th.Bordering[component.Bottom], "ledges let through what walks their way")

	require.NoError(t, c.Walk.StartWalking(e, component.Bottom, nil))
	runFrames(t, c, 1)
	require.NotZero(t, ch.Ledge)
	require.NotZero(t, ch.Shadow)
	shadow := ecs.Entity(ch.Shadow)
	assert.True(t, c.Context.Screen.BlockInputs)

	runFrames(t, c, 14)
	assert.Less(t, th.OffsetY, 0.0)

	runFrames(t, c, 17)
	assert.Zero(t, ch.Ledge)
	assert.Zero(t, th.OffsetY)
	assert.False(t, ecs.IsAlive(c.World, shadow))
	assert.False(t, c.Context.Screen.BlockInputs)
	assert.False(t, ch.Walking())
	assert.Equal(t, 64.0, th.Top)
}

func TestLedgeShadowOutlivesHopper(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Player", 1, 1, component.Bottom)
	addAt(t, c, "LedgeDown", 1, 2, component.Bottom)
	ch := mustCharacter(t, c, e)
	runFrames(t, c, 1)

	require.NoError(t, c.Walk.StartWalking(e, component.Bottom, nil))
	runFrames(t, c, 1)
	require.NotZero(t, ch.Shadow)
	shadow := ecs.Entity(ch.Shadow)

	runFrames(t, c, 5)
	c.Context.kill(e)
	assert.True(t, ecs.IsAlive(c.World, shadow))

	ledge := c.Context.Game.Ledge
	runFrames(t, c, ledge.Steps*ledge.Speed)
	assert.False(t, ecs.IsAlive(c.World, shadow))
}

func TestLedgeBlocksOtherDirections(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Player", 1, 1, component.Top)
	ledge, lt := addAt(t, c, "LedgeDown", 1, 0, component.Bottom)
	lt.SetBottom(th.Top)
	runFrames(t, c, 1)

	assert.Equal(t, uint64(ledge), th.Bordering[component.Top])
	require.NoError(t, c.Walk.StartWalking(e, component.Top, nil))
	runFrames(t, c, 32)
	assert.Equal(t, 32.0, th.Top)
	assert.False(t, mustCharacter(t, c, e).Walking())
}

func TestCutsceneTriggererStartsCutscene(t *testing.T) {
	src := scripts{"Intro": `
routines := {
	Entry: func(engine, args) {
		engine.dialog(["Wait!"], "Second")
	},
	Second: func(engine, args) {
		engine.unblock_inputs()
		engine.stop_cutscene()
	}
}
`}
	c := newTestCore(t, CoreOptions{Scripts: src.load})
	e, _ := addAt(t, c, "Player", 1, 1, component.Right)
	trig, tt := addAt(t, c, "CutsceneTriggerer", 2, 1, component.Top)
	mustDetector(t, c, trig).Cutscene = "Intro"
	id := tt.ID

	require.NoError(t, c.Walk.StartWalking(e, component.Right, nil))
	runFrames(t, c, 2)

	assert.Equal(t, "Intro", c.Scenes.Cutscene())
	assert.False(t, ecs.IsAlive(c.World, trig))
	assert.Equal(t, false, c.Store.Changes(id)["alive"])
	m, ok := c.Menus.Menu(menu.GeneralText)
	require.True(t, ok)
	assert.Equal(t, "Wait!", m.Text())
	assert.True(t, c.Context.Screen.BlockInputs)

	require.NoError(t, c.Router.KeyDown(e, KeyA))
	assert.Empty(t, c.Scenes.Cutscene())
	assert.False(t, c.Context.Screen.BlockInputs)
}

func TestThemeDetectorSwitchesTheme(t *testing.T) {
	tracks := map[string]*fakeTrack{}
	c := newTestCore(t, CoreOptions{Tracks: trackLoader(tracks)})
	addAt(t, c, "Player", 1, 1, component.Top)
	det, _ := addAt(t, c, "ThemeDetector", 1, 1, component.Top)
	mustDetector(t, c, det).Theme = "Route 1"

	runFrames(t, c, 1)
	assert.Equal(t, "Route 1", c.Music.ThemeName())
	require.Contains(t, tracks, "Route 1")
	assert.True(t, tracks["Route 1"].playing)

	runFrames(t, c, 5)
	assert.Equal(t, 1, tracks["Route 1"].rewinds, "staying inside does not restart the theme")
}

func TestSpawnerRunsPayload(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, _ := addAt(t, c, "Spawner", 0, 0, component.Top)

	assert.ErrorIs(t, c.Act.Spawn(e), component.ErrMissingActivate)

	var got uint64
	mustDetector(t, c, e).Activate = func(self uint64) error {
		got = self
		return nil
	}
	require.NoError(t, c.Act.Spawn(e))
	assert.Equal(t, uint64(e), got)
}

func TestWindowDetectorWaitsUntilOnScreen(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	e, th := addAt(t, c, "Window", 20, 1, component.Top)
	calls := 0
	mustDetector(t, c, e).Activate = func(uint64) error {
		calls++
		return nil
	}

	require.NoError(t, c.Act.Spawn(e))
	assert.Zero(t, calls)
	assert.True(t, ecs.IsAlive(c.World, e))

	th.SetLeft(64)
	runFrames(t, c, c.Context.Game.WindowPoll)
	assert.Equal(t, 1, calls)
	assert.False(t, ecs.IsAlive(c.World, e))

	runFrames(t, c, c.Context.Game.WindowPoll*2)
	assert.Equal(t, 1, calls)
}

func TestEnterAreaPlacesThingsAndPlayer(t *testing.T) {
	tracks := map[string]*fakeTrack{}
	c := newTestCore(t, CoreOptions{Tracks: trackLoader(tracks)})
	stray, _ := addAt(t, c, "Solid", 5, 5, component.Top)

	pe := startTestMap(t, c)
	pt, ok := c.Context.thing(pe)
	require.True(t, ok)

	assert.False(t, ecs.IsAlive(c.World, stray))
	assert.Equal(t, 32.0, pt.Left)
	assert.Equal(t, 32.0, pt.Top)
	assert.Equal(t, component.Top, pt.Direction)
	assert.Equal(t, "Room", c.Maps.CurrentArea().Name)
	assert.Equal(t, "test::Room", c.Store.Collection())
	assert.Equal(t, "Room Theme", c.Music.ThemeName())

	area, _ := c.Store.Item("area")
	assert.Equal(t, "Room", area)

	_, crate, ok := findThing(c, "Crate")
	require.True(t, ok)
	assert.Equal(t, 96.0, crate.Left)
	assert.Equal(t, 96.0, crate.Top)
}

func TestEnterAreaSkipsRemovedThings(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	c.Store.SetCollection("test::Room")
	c.Store.AddChange("Crate", "alive", false)

	startTestMap(t, c)
	_, _, ok := findThing(c, "Crate")
	assert.False(t, ok)
	_, _, ok = findThing(c, "RoomDoor")
	assert.True(t, ok)
}

func TestTransporterFadesThenMoves(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	pe := startTestMap(t, c)
	door, _, ok := findThing(c, "RoomDoor")
	require.True(t, ok)
	d := mustDetector(t, c, door)
	d.Transport = &component.Transport{Location: "Back"}

	require.NoError(t, c.Act.ActivateTransporter(pe, door))
	assert.False(t, d.Active)
	assert.Equal(t, "Room", c.Maps.CurrentArea().Name, "the move waits for the fade")

	runFrames(t, c, 30)
	assert.Equal(t, "Yard", c.Maps.CurrentArea().Name)
	pt, _ := c.Context.thing(pe)
	assert.Equal(t, 64.0, pt.Left)
	assert.Equal(t, 64.0, pt.Top)
	assert.Equal(t, component.Bottom, pt.Direction)
	_, _, ok = findThing(c, "YardRock")
	assert.True(t, ok)
}

func TestTransporterWithoutTransportFails(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	pe := startTestMap(t, c)
	door, _, ok := findThing(c, "RoomDoor")
	require.True(t, ok)
	mustDetector(t, c, door).Transport = nil

	assert.ErrorIs(t, c.Act.ActivateTransporter(pe, door), component.ErrMissingTransport)
}

func TestAreaSpawnerPlacesNeighbour(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	startTestMap(t, c)

	sp, st := addAt(t, c, "AreaSpawner", 2, 0, component.Top)
	d := mustDetector(t, c, sp)
	d.Map, d.Area, d.Direction = "test", "Yard", component.Top
	left, bottom := st.Left, st.Bottom()

	require.NoError(t, c.Act.Spawn(sp))
	assert.False(t, ecs.IsAlive(c.World, sp))

	_, rock, ok := findThing(c, "YardRock")
	require.True(t, ok)
	assert.Equal(t, left, rock.Left)
	assert.Equal(t, bottom-160, rock.Top)
	assert.Equal(t, "Room", c.Maps.CurrentArea().Name)
}

func TestAreaSpawnerForCurrentAreaIsDropped(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	startTestMap(t, c)

	sp, _ := addAt(t, c, "AreaSpawner", 2, 0, component.Top)
	d := mustDetector(t, c, sp)
	d.Map, d.Area, d.Direction = "test", "Room", component.Top

	require.NoError(t, c.Act.Spawn(sp))
	assert.False(t, ecs.IsAlive(c.World, sp))
	_, _, ok := findThing(c, "YardRock")
	assert.False(t, ok)
}

func TestAreaGateMovesScreenIntoArea(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	pe := startTestMap(t, c)
	pt, _ := c.Context.thing(pe)

	gate, _ := addAt(t, c, "AreaGate", 1, 1, component.Top)
	d := mustDetector(t, c, gate)
	d.Map, d.Area, d.Direction, d.Active = "test", "Yard", component.Top, true

	require.NoError(t, c.Walk.StartWalking(pe, component.Top, nil))
	top := pt.Top
	require.NoError(t, c.Act.ActivateAreaGate(pe, gate))

	assert.Equal(t, "Yard", c.Maps.CurrentArea().Name)
	assert.Equal(t, "test::Yard", c.Store.Collection())
	assert.Equal(t, 160-pt.UnitHeight-top, c.Context.Screen.Top)
	assert.False(t, d.Active)
	_, hasLocation := c.Store.Item("location")
	assert.False(t, hasLocation)
}

func TestAreaGateIgnoresWrongDirection(t *testing.T) {
	c := newTestCore(t, CoreOptions{})
	pe := startTestMap(t, c)

	gate, _ := addAt(t, c, "AreaGate", 1, 1, component.Top)
	d := mustDetector(t, c, gate)
	d.Map, d.Area, d.Direction, d.Active = "test", "Yard", component.Bottom, true

	require.NoError(t, c.Walk.StartWalking(pe, component.Top, nil))
	require.NoError(t, c.Act.ActivateAreaGate(pe, gate))
	assert.Equal(t, "Room", c.Maps.CurrentArea().Name)
	assert.True(t, d.Active)
}
