package prefabs

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// GameSpec holds the tuning constants of the overworld.
type GameSpec struct {
	Unitsize     float64               `yaml:"unitsize"`
	GridUnits    float64               `yaml:"grid_units"`
	WalkingUnits float64               `yaml:"walking_units"`
	Screen       ScreenSpec            `yaml:"screen"`
	InputDelays  InputDelaySpec        `yaml:"input_delays"`
	Roaming      RoamingSpec           `yaml:"roaming"`
	Fade         FadeSpec              `yaml:"fade"`
	Exclamation  int                   `yaml:"exclamation_timeout"`
	Flicker      RepeatSpec            `yaml:"flicker"`
	Shake        RepeatSpec            `yaml:"shake"`
	Ledge        LedgeSpec             `yaml:"ledge"`
	SmokeStage   int                   `yaml:"smoke_stage"`
	WindowPoll   int                   `yaml:"window_poll"`
	GateCooldown int                   `yaml:"gate_cooldown"`
	StrengthPush int                   `yaml:"strength_push"`
	HMMoves      map[string]HMMoveSpec `yaml:"hm_moves"`
}

type ScreenSpec struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// InputDelaySpec is the tick delay before a held direction key is acted on.
type InputDelaySpec struct {
	Up    int `yaml:"up"`
	Right int `yaml:"right"`
	Down  int `yaml:"down"`
	Left  int `yaml:"left"`
}

type RoamingSpec struct {
	First  int `yaml:"first"`
	Base   int `yaml:"base"`
	Spread int `yaml:"spread"`
}

type FadeSpec struct {
	Color  string  `yaml:"color"`
	Change float64 `yaml:"change"`
	Speed  int     `yaml:"speed"`
}

type RepeatSpec struct {
	Cleartime int `yaml:"cleartime"`
	Interval  int `yaml:"interval"`
}

type LedgeSpec struct {
	Steps int `yaml:"steps"`
	Speed int `yaml:"speed"`
}

// HMMoveSpec ties a field move to the thing it works on.
type HMMoveSpec struct {
	CharacterName string `yaml:"character_name"`
	Action        string `yaml:"action"`
}

// DefaultGameSpec returns the built-in tuning.
func DefaultGameSpec() GameSpec {
	return GameSpec{
		Unitsize:     4,
		GridUnits:    8,
		WalkingUnits: 8,
		Screen:       ScreenSpec{Width: 320, Height: 288},
		InputDelays:  InputDelaySpec{Up: 0, Right: 0, Down: 2, Left: 3},
		Roaming:      RoamingSpec{First: 70, Base: 70, Spread: 210},
		Fade:         FadeSpec{Color: "White", Change: 0.33, Speed: 4},
		Exclamation:  140,
		Flicker:      RepeatSpec{Cleartime: 49, Interval: 2},
		Shake:        RepeatSpec{Cleartime: 8, Interval: 8},
		Ledge:        LedgeSpec{Steps: 14, Speed: 2},
		SmokeStage:   7,
		WindowPoll:   7,
		GateCooldown: 2,
		StrengthPush: 8,
		HMMoves: map[string]HMMoveSpec{
			"Cut":      {CharacterName: "CuttableTree", Action: "cut"},
			"Strength": {CharacterName: "StrengthBoulder", Action: "strength"},
			"Surf":     {CharacterName: "Water", Action: "surf"},
		},
	}
}

// LoadGameSpec reads game.yaml over the defaults.
func LoadGameSpec() (GameSpec, error) {
	spec := DefaultGameSpec()
	data, err := Load("game.yaml")
	if err != nil {
		return spec, fmt.Errorf("prefabs: load game.yaml: %w", err)
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return spec, fmt.Errorf("prefabs: unmarshal game.yaml: %w", err)
	}
	return spec, nil
}

// GridSize is the pixel size of one map cell.
func (g GameSpec) GridSize() float64 {
	return g.Unitsize * g.GridUnits
}

// WalkingRepeats is the tick count of one step at speed.
func (g GameSpec) WalkingRepeats(speed float64) int {
	if speed <= 0 {
		speed = 1
	}
	n := int(g.WalkingUnits*g.Unitsize/speed + 0.999)
	if n < 1 {
		n = 1
	}
	return n
}

type ThingsSpec struct {
	Things []ThingSpec `yaml:"things"`
}

func LoadThingsSpec() (map[string]ThingSpec, error) {
	spec, err := LoadSpec[ThingsSpec]("things.yaml")
	if err != nil {
		return nil, err
	}
	out := make(map[string]ThingSpec, len(spec.Things))
	for _, t := range spec.Things {
		out[t.Title] = t
	}
	return out, nil
}

// ItemSpec describes a bag item as the select key sees it.
type ItemSpec struct {
	Name        string `yaml:"name"`
	BagActivate string `yaml:"bag_activate"`
	Error       string `yaml:"error"`
}

type ItemsSpec struct {
	Items []ItemSpec `yaml:"items"`
}

func LoadItemsSpec() (map[string]ItemSpec, error) {
	spec, err := LoadSpec[ItemsSpec]("items.yaml")
	if err != nil {
		return nil, err
	}
	out := make(map[string]ItemSpec, len(spec.Items))
	for _, it := range spec.Items {
		out[it.Name] = it
	}
	return out, nil
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
