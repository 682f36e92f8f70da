package levels

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMap      = errors.New("unknown map")
	ErrUnknownArea     = errors.New("unknown area")
	ErrUnknownLocation = errors.New("unknown location")
)

// EnterFunc rebuilds the scene for a new area and entry location.
type EnterFunc func(m *Map, area *Area, loc *Location) error

// SpawnFunc places a neighbouring area next to the current one.
type SpawnFunc func(spawner uint64, area *Area) error

// Catalog tracks loaded maps and the current map and area.
type Catalog struct {
	maps    map[string]*Map
	current *Map
	area    *Area

	OnEnter EnterFunc
	OnSpawn SpawnFunc
}

func NewCatalog(maps ...*Map) *Catalog {
	c := &Catalog{maps: make(map[string]*Map)}
	for _, m := range maps {
		c.Add(m)
	}
	return c
}

func (c *Catalog) Add(m *Map) {
	if m == nil {
		return
	}
	c.maps[m.Name] = m
}

// Map returns a loaded map, loading it from disk or the embedded set on
// first use.
func (c *Catalog) Map(name string) (*Map, error) {
	if m, ok := c.maps[name]; ok {
		return m, nil
	}
	m, err := LoadMapFromFS(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrUnknownMap, name, err)
	}
	c.maps[m.Name] = m
	return m, nil
}

// Forget drops a cached map so the next use reads it again. The current map
// stays loaded until it is left.
func (c *Catalog) Forget(name string) bool {
	if _, ok := c.maps[name]; !ok || (c.current != nil && c.current.Name == name) {
		return false
	}
	delete(c.maps, name)
	return true
}

func (c *Catalog) Area(mapName, areaName string) (*Area, error) {
	m, err := c.Map(mapName)
	if err != nil {
		return nil, err
	}
	a, ok := m.Areas[areaName]
	if !ok {
		return nil, fmt.Errorf("%w %q in map %q", ErrUnknownArea, areaName, mapName)
	}
	return a, nil
}

func (c *Catalog) CurrentMap() *Map {
	return c.current
}

func (c *Catalog) CurrentArea() *Area {
	return c.area
}

// SetMap switches to a map and enters it at location.
func (c *Catalog) SetMap(name, location string) error {
	m, err := c.Map(name)
	if err != nil {
		return err
	}
	c.current = m
	return c.SetLocation(location)
}

// SetLocation enters the current map at a named location.
func (c *Catalog) SetLocation(name string) error {
	if c.current == nil {
		return fmt.Errorf("%w: no current map", ErrUnknownMap)
	}
	loc, ok := c.current.Locations[name]
	if !ok {
		return fmt.Errorf("%w %q in map %q", ErrUnknownLocation, name, c.current.Name)
	}
	area, ok := c.current.Areas[loc.Area]
	if !ok {
		return fmt.Errorf("%w %q in map %q", ErrUnknownArea, loc.Area, c.current.Name)
	}
	c.area = area
	if c.OnEnter != nil {
		return c.OnEnter(c.current, area, loc)
	}
	return nil
}

// ActivateAreaSpawner hands a neighbouring area to the spawn hook.
func (c *Catalog) ActivateAreaSpawner(spawner uint64, area *Area) error {
	if c.OnSpawn == nil {
		return nil
	}
	return c.OnSpawn(spawner, area)
}

// SetArea marks an area current without rebuilding the scene, as when the
// player walks through a gate into an area that is already spawned.
func (c *Catalog) SetArea(mapName, areaName string) (*Area, error) {
	m, err := c.Map(mapName)
	if err != nil {
		return nil, err
	}
	a, ok := m.Areas[areaName]
	if !ok {
		return nil, fmt.Errorf("%w %q in map %q", ErrUnknownArea, areaName, mapName)
	}
	c.current = m
	c.area = a
	return a, nil
}
