package levels

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/milk9111/overworld/ecs/component"
	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var LevelsFS embed.FS

// Map is a named set of areas and the locations players can enter at.
type Map struct {
	Name      string               `yaml:"name"`
	Areas     map[string]*Area     `yaml:"areas"`
	Locations map[string]*Location `yaml:"locations"`
}

// Area is one screen-connected region of a map, measured in game units.
type Area struct {
	Name      string      `yaml:"-"`
	Map       string      `yaml:"-"`
	Width     float64     `yaml:"width"`
	Height    float64     `yaml:"height"`
	Theme     string      `yaml:"theme"`
	SpawnedBy string      `yaml:"spawned_by"`
	Things    []Placement `yaml:"things"`
}

// Location is an entry point into an area.
type Location struct {
	Name      string              `yaml:"-"`
	Area      string              `yaml:"area"`
	X         float64             `yaml:"x"`
	Y         float64             `yaml:"y"`
	Direction component.Direction `yaml:"direction"`
}

// Placement puts a thing template into an area. Props are decoded by the
// entity builder.
type Placement struct {
	Title string         `yaml:"title"`
	ID    string         `yaml:"id"`
	X     float64        `yaml:"x"`
	Y     float64        `yaml:"y"`
	Props map[string]any `yaml:"props,omitempty"`
}

// Key is the state collection name of an area.
func (a *Area) Key() string {
	return a.Map + "::" + a.Name
}

func LoadMapFromFS(name string) (*Map, error) {
	clean := name
	if !strings.HasSuffix(clean, ".yaml") {
		clean += ".yaml"
	}
	data, err := os.ReadFile(filepath.Join("levels", clean))
	if err != nil {
		data, err = fs.ReadFile(LevelsFS, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	var m Map
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal map: %w", err)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(clean, ".yaml")
	}
	for areaName, area := range m.Areas {
		area.Name = areaName
		area.Map = m.Name
	}
	for locName, loc := range m.Locations {
		loc.Name = locName
	}
	return &m, nil
}

// MapNames lists the embedded maps.
func MapNames() ([]string, error) {
	entries, err := fs.ReadDir(LevelsFS, ".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(out)
	return out, nil
}
