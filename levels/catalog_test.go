package levels

import (
	"testing"

	"github.com/milk9111/overworld/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedMap(t *testing.T) {
	names, err := MapNames()
	require.NoError(t, err)
	assert.Contains(t, names, "pallet")

	m, err := LoadMapFromFS("pallet")
	require.NoError(t, err)
	assert.Equal(t, "pallet", m.Name)

	town := m.Areas["Town"]
	require.NotNil(t, town)
	assert.Equal(t, "Town", town.Name)
	assert.Equal(t, "pallet::Town", town.Key())
	assert.Equal(t, "Pallet Town", town.Theme)

	door := m.Locations["House Door"]
	require.NotNil(t, door)
	assert.Equal(t, "House Door", door.Name)
	assert.Equal(t, "House", door.Area)
	assert.Equal(t, component.Top, door.Direction)
}

func TestCatalogSetMap(t *testing.T) {
	c := NewCatalog()
	var entered []string
	c.OnEnter = func(m *Map, area *Area, loc *Location) error {
		entered = append(entered, area.Key()+"@"+loc.Name)
		return nil
	}

	require.NoError(t, c.SetMap("pallet", "Start"))
	assert.Equal(t, "pallet", c.CurrentMap().Name)
	assert.Equal(t, "Town", c.CurrentArea().Name)

	require.NoError(t, c.SetLocation("House Door"))
	assert.Equal(t, []string{"pallet::Town@Start", "pallet::House@House Door"}, entered)
}

func TestCatalogErrors(t *testing.T) {
	c := NewCatalog()
	assert.ErrorIs(t, c.SetLocation("Start"), ErrUnknownMap)
	assert.ErrorIs(t, c.SetMap("atlantis", "Start"), ErrUnknownMap)
	assert.ErrorIs(t, c.SetMap("pallet", "Moon"), ErrUnknownLocation)

	_, err := c.Area("pallet", "Cave")
	assert.ErrorIs(t, err, ErrUnknownArea)

	c.Add(&Map{Name: "broken", Locations: map[string]*Location{"Start": {Name: "Start", Area: "Nowhere"}}})
	assert.ErrorIs(t, c.SetMap("broken", "Start"), ErrUnknownArea)
}

func TestCatalogSetAreaSkipsEnter(t *testing.T) {
	c := NewCatalog()
	c.OnEnter = func(*Map, *Area, *Location) error {
		t.Fatal("entering is not expected")
		return nil
	}

	a, err := c.SetArea("pallet", "Route 1")
	require.NoError(t, err)
	assert.Equal(t, "pallet::Route 1", a.Key())
	assert.Same(t, a, c.CurrentArea())
}

func TestCatalogSpawnHook(t *testing.T) {
	c := NewCatalog()
	area, err := c.Area("pallet", "Route 1")
	require.NoError(t, err)
	require.NoError(t, c.ActivateAreaSpawner(3, area), "no hook is a no-op")

	var got uint64
	c.OnSpawn = func(spawner uint64, a *Area) error {
		got = spawner
		return nil
	}
	require.NoError(t, c.ActivateAreaSpawner(3, area))
	assert.Equal(t, uint64(3), got)
}

func TestCatalogForget(t *testing.T) {
	c := NewCatalog(&Map{Name: "scratch"})
	assert.True(t, c.Forget("scratch"))
	assert.False(t, c.Forget("scratch"))

	_, err := c.SetArea("pallet", "Town")
	require.NoError(t, err)
	assert.False(t, c.Forget("pallet"), "the current map stays loaded")
}
