package prefabs

import (
	"fmt"

	"github.com/milk9111/overworld/ecs/component"
	"gopkg.in/yaml.v3"
)

// DecodeComponentSpec re-decodes a loosely typed yaml value, such as a
// placement's props, into T.
func DecodeComponentSpec[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

// ThingSpec is a thing template. Map placements refer to it by title and
// may override the character and detector blocks.
type ThingSpec struct {
	Title     string               `yaml:"title"`
	Width     float64              `yaml:"width"`
	Height    float64              `yaml:"height"`
	Group     string               `yaml:"group"`
	Color     *YAMLColor           `yaml:"color"`
	Hidden    bool                 `yaml:"hidden"`
	NoCollide bool                 `yaml:"no_collide"`
	Direction *component.Direction `yaml:"direction"`
	Player    bool                 `yaml:"player"`
	Character *CharacterSpec       `yaml:"character"`
	Detector  *DetectorSpec        `yaml:"detector"`
}

// CharacterSpec marks a thing that walks.
type CharacterSpec struct {
	Speed             float64               `yaml:"speed"`
	Sight             int                   `yaml:"sight"`
	Roaming           bool                  `yaml:"roaming"`
	RoamingDirections []component.Direction `yaml:"roaming_directions"`
}

// DetectorSpec is the interaction block of a trigger or talkable thing.
type DetectorSpec struct {
	Kind               string                   `yaml:"kind"`
	Inactive           bool                     `yaml:"inactive"`
	KeepAlive          bool                     `yaml:"keep_alive"`
	Cutscene           string                   `yaml:"cutscene"`
	Routine            string                   `yaml:"routine"`
	Menu               string                   `yaml:"menu"`
	MenuAttributes     map[string]any           `yaml:"menu_attributes"`
	Dialog             []string                 `yaml:"dialog"`
	DialogNext         []string                 `yaml:"dialog_next"`
	DialogOptions      *component.DialogOptions `yaml:"dialog_options"`
	DirectionPreferred *component.Direction     `yaml:"direction_preferred"`
	PushDirection      *component.Direction     `yaml:"push_direction"`
	PushSteps          []any                    `yaml:"push_steps"`
	Gift               string                   `yaml:"gift"`
	Trainer            bool                     `yaml:"trainer"`
	Transport          *component.Transport     `yaml:"transport"`
	Map                string                   `yaml:"map"`
	Area               string                   `yaml:"area"`
	Direction          component.Direction      `yaml:"direction"`
	Theme              string                   `yaml:"theme"`
	Gym                string                   `yaml:"gym"`
	Leader             string                   `yaml:"leader"`
	MoveName           string                   `yaml:"move_name"`
	RequiredBadge      string                   `yaml:"required_badge"`
}

// PlacementProps are the per-placement overrides of a template.
type PlacementProps struct {
	Direction *component.Direction `yaml:"direction"`
	Width     float64              `yaml:"width"`
	Height    float64              `yaml:"height"`
	Character *CharacterSpec       `yaml:"character"`
	Detector  *DetectorSpec        `yaml:"detector"`
}

// Apply returns the template with props laid over it.
func (p PlacementProps) Apply(spec ThingSpec) ThingSpec {
	if p.Direction != nil {
		spec.Direction = p.Direction
	}
	if p.Width > 0 {
		spec.Width = p.Width
	}
	if p.Height > 0 {
		spec.Height = p.Height
	}
	if p.Character != nil {
		spec.Character = p.Character
	}
	if p.Detector != nil {
		spec.Detector = p.Detector
	}
	return spec
}

// PushPlan converts push_steps into a walking plan. Directions in the flat
// list may be written by name.
func (d *DetectorSpec) PushPlan() (*component.Sequence, error) {
	if d == nil || d.PushDirection == nil || len(d.PushSteps) == 0 {
		return nil, nil
	}
	items := make([]any, 0, len(d.PushSteps))
	for i, item := range d.PushSteps {
		if s, ok := item.(string); ok {
			dir, err := component.ParseDirection(s)
			if err != nil {
				return nil, fmt.Errorf("push step %d: %w", i, err)
			}
			item = dir
		}
		items = append(items, item)
	}
	return component.SequenceFromLegacy(*d.PushDirection, items...)
}

// Detector builds the runtime detector record.
func (d *DetectorSpec) Detector() (*component.Detector, error) {
	kind, ok := component.ParseDetectorKind(d.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown detector kind %q", d.Kind)
	}
	plan, err := d.PushPlan()
	if err != nil {
		return nil, err
	}
	return &component.Detector{
		Kind:               kind,
		Active:             !d.Inactive,
		KeepAlive:          d.KeepAlive,
		Cutscene:           d.Cutscene,
		Routine:            d.Routine,
		Menu:               d.Menu,
		MenuAttributes:     d.MenuAttributes,
		Dialog:             d.Dialog,
		DialogNext:         d.DialogNext,
		DialogOptions:      d.DialogOptions,
		DirectionPreferred: d.DirectionPreferred,
		PushDirection:      d.PushDirection,
		PushSteps:          plan,
		Gift:               d.Gift,
		Trainer:            d.Trainer,
		Transport:          d.Transport,
		Map:                d.Map,
		Area:               d.Area,
		Direction:          d.Direction,
		Theme:              d.Theme,
		Gym:                d.Gym,
		Leader:             d.Leader,
		MoveName:           d.MoveName,
		RequiredBadge:      d.RequiredBadge,
	}, nil
}
