package system

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/levels"
	"github.com/milk9111/overworld/prefabs"
	"github.com/twinj/uuid"
)

// anonymousPrefix starts the id of every thing placed without one.
const anonymousPrefix = "Anonymous"

// Things creates things from prefab templates.
type Things struct {
	ctx       *Context
	templates map[string]prefabs.ThingSpec
}

func NewThings(ctx *Context, templates map[string]prefabs.ThingSpec) *Things {
	return &Things{ctx: ctx, templates: templates}
}

// SetTemplates swaps the template set, as after a prefab reload.
func (f *Things) SetTemplates(templates map[string]prefabs.ThingSpec) {
	f.templates = templates
}

// Add creates a thing from the title template with settings laid over it.
// Zero settings keep the template values.
func (f *Things) Add(title string, settings ThingSettings) (ecs.Entity, *component.Thing, error) {
	spec, ok := f.templates[title]
	if !ok {
		return 0, nil, fmt.Errorf("things: unknown template %q", title)
	}
	if settings.Width > 0 {
		spec.Width = settings.Width
	}
	if settings.Height > 0 {
		spec.Height = settings.Height
	}
	if settings.GroupType != "" {
		spec.Group = settings.GroupType
	}
	direction := settings.Direction
	spec.Direction = &direction

	e, t, err := f.build("", spec)
	if err != nil {
		return 0, nil, err
	}
	if settings.Opacity != nil {
		t.Opacity = *settings.Opacity
	}
	return e, t, nil
}

// Place creates the thing a map placement describes, with its top left
// corner at the placement's grid position relative to (originX, originY).
func (f *Things) Place(p levels.Placement, originX, originY float64) (ecs.Entity, *component.Thing, error) {
	spec, ok := f.templates[p.Title]
	if !ok {
		return 0, nil, fmt.Errorf("things: placement %q: unknown template %q", p.ID, p.Title)
	}
	props, err := prefabs.DecodeComponentSpec[prefabs.PlacementProps](p.Props)
	if err != nil {
		return 0, nil, fmt.Errorf("things: placement %q props: %w", p.ID, err)
	}
	spec = props.Apply(spec)

	e, t, err := f.build(p.ID, spec)
	if err != nil {
		return 0, nil, fmt.Errorf("things: placement %q: %w", p.ID, err)
	}
	unitsize := f.ctx.Game.Unitsize
	t.SetLeft(originX + p.X*unitsize)
	t.SetTop(originY + p.Y*unitsize)
	return e, t, nil
}

func (f *Things) build(id string, spec prefabs.ThingSpec) (ecs.Entity, *component.Thing, error) {
	if id == "" {
		id = anonymousPrefix + strings.ReplaceAll(uuid.NewV4().String(), "-", "")
	}

	w := f.ctx.World
	unitsize := f.ctx.Game.Unitsize
	e := ecs.CreateEntity(w)

	t := &component.Thing{
		ID:        id,
		Title:     spec.Title,
		GroupType: spec.Group,
		Opacity:   1,
		Hidden:    spec.Hidden,
		Alive:     true,
		NoCollide: spec.NoCollide,
	}
	t.SetWidth(spec.Width, unitsize)
	t.SetHeight(spec.Height, unitsize)
	if spec.Direction != nil {
		t.Direction = *spec.Direction
	}
	if err := ecs.Add(w, e, component.ThingComponent.Kind(), t); err != nil {
		return 0, nil, err
	}

	if c := spec.Character; c != nil || spec.Player {
		ch := &component.Character{Speed: 1, State: component.NewWalkingState()}
		if c != nil {
			if c.Speed > 0 {
				ch.Speed = c.Speed
			}
			ch.Sight = c.Sight
			ch.Roaming = c.Roaming
			ch.RoamingDirections = c.RoamingDirections
		}
		if err := ecs.Add(w, e, component.CharacterComponent.Kind(), ch); err != nil {
			return 0, nil, err
		}
	}

	if spec.Player {
		if err := ecs.Add(w, e, component.PlayerComponent.Kind(), &component.Player{CanKeyWalking: true}); err != nil {
			return 0, nil, err
		}
	}

	if spec.Detector != nil {
		d, err := spec.Detector.Detector()
		if err != nil {
			return 0, nil, err
		}
		if d.Kind == component.DetectorSpawner || d.Kind == component.DetectorWindow {
			f.bindActivate(d)
		}
		if err := ecs.Add(w, e, component.DetectorComponent.Kind(), d); err != nil {
			return 0, nil, err
		}
	}

	return e, t, nil
}

// bindActivate makes a spawner run its routine when activated.
func (f *Things) bindActivate(d *component.Detector) {
	if d.Routine == "" {
		return
	}
	routine := d.Routine
	d.Activate = func(self uint64) error {
		return f.ctx.Scenes.PlayRoutine(routine, SceneArgs{Triggerer: ecs.Entity(self)})
	}
}

// Color returns the template fill for title, or nil.
func (f *Things) Color(title string) color.Color {
	spec, ok := f.templates[title]
	if !ok || spec.Color == nil {
		return nil
	}
	return spec.Color.Color
}
