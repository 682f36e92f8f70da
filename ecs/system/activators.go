package system

import (
	"fmt"
	"strings"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
)

// ActivatorSystem bridges collisions and the A button to cutscenes, menus,
// map changes and field moves.
type ActivatorSystem struct {
	ctx  *Context
	walk *WalkingSystem
	anim *Animator
}

func NewActivatorSystem(ctx *Context, walk *WalkingSystem, anim *Animator) *ActivatorSystem {
	return &ActivatorSystem{ctx: ctx, walk: walk, anim: anim}
}

// Update checks every player against the live trigger detectors it overlaps.
func (s *ActivatorSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach(w, component.PlayerComponent.Kind(), func(pe ecs.Entity, player *component.Player) {
		pt, ok := s.ctx.thing(pe)
		if !ok || !pt.Alive {
			return
		}

		if player.CollidedTrigger != 0 {
			if other, ok := s.ctx.thing(ecs.Entity(player.CollidedTrigger)); !ok || !s.ctx.Physics.Hits(pt, other) {
				if !s.ctx.Screen.BlockInputs {
					player.CollidedTrigger = 0
				}
			}
		}

		ecs.ForEach2(w, component.ThingComponent.Kind(), component.DetectorComponent.Kind(), func(de ecs.Entity, dt *component.Thing, d *component.Detector) {
			if de == pe || !dt.Alive || dt.NoCollide || !d.Active || !collides(d.Kind) {
				return
			}
			if !s.ctx.Physics.Hits(pt, dt) {
				return
			}
			if err := s.Activate(pe, de); err != nil {
				s.ctx.Fail(err)
			}
		})
	})
}

func collides(kind component.DetectorKind) bool {
	switch kind {
	case component.DetectorSight,
		component.DetectorCutsceneTriggerer,
		component.DetectorMenuTriggerer,
		component.DetectorTheme,
		component.DetectorTransporter,
		component.DetectorAreaGate,
		component.DetectorLedge:
		return true
	}
	return false
}

// Activate runs other's response to thing. Touching a trigger and pressing
// A at a bordering thing both land here.
func (s *ActivatorSystem) Activate(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if !ok {
		return nil
	}

	switch d.Kind {
	case component.DetectorSight:
		return s.ActivateSightDetector(thing, other)
	case component.DetectorCutsceneTriggerer:
		return s.ActivateCutsceneTriggerer(thing, other)
	case component.DetectorCutsceneResponder:
		return s.ActivateCutsceneResponder(thing, other)
	case component.DetectorMenuTriggerer:
		return s.ActivateMenuTriggerer(thing, other)
	case component.DetectorTheme:
		return s.ActivateThemePlayer(thing, other)
	case component.DetectorTransporter:
		return s.ActivateTransporter(thing, other)
	case component.DetectorAreaGate:
		return s.ActivateAreaGate(thing, other)
	case component.DetectorGymStatue:
		return s.ActivateGymStatue(thing, other)
	case component.DetectorHMCharacter:
		return s.ActivateHMCharacter(thing, other)
	case component.DetectorTalker:
		return s.Talk(thing, other)
	case component.DetectorLedge:
		return s.ActivateLedge(thing, other)
	}
	return nil
}

// Spawn registers a freshly placed thing with whatever it needs at spawn
// time: characters get sight and roaming, spawners run.
func (s *ActivatorSystem) Spawn(e ecs.Entity) error {
	if _, ok := s.ctx.character(e); ok {
		if err := s.walk.SpawnCharacter(e); err != nil {
			return err
		}
	}

	d, ok := s.ctx.detector(e)
	if !ok {
		return nil
	}
	switch d.Kind {
	case component.DetectorSpawner:
		return s.ActivateSpawner(e)
	case component.DetectorWindow:
		return s.SpawnWindowDetector(e)
	case component.DetectorAreaSpawner:
		return s.SpawnAreaSpawner(e)
	}
	return nil
}

func (s *ActivatorSystem) triggerer(thing ecs.Entity) (*component.Player, bool) {
	return s.ctx.player(thing)
}

// ActivateCutsceneTriggerer freezes the player and starts the detector's
// cutscene and routine. Single-use triggers are removed for good.
func (s *ActivatorSystem) ActivateCutsceneTriggerer(thing, other ecs.Entity) error {
	t, ok := s.ctx.thing(other)
	d, _ := s.ctx.detector(other)
	if !ok || !t.Alive || d == nil {
		return nil
	}
	player, isPlayer := s.triggerer(thing)
	if isPlayer && player.CollidedTrigger == uint64(other) {
		return nil
	}

	if isPlayer {
		player.CollidedTrigger = uint64(other)
	}
	s.walk.DialogFreeze(thing)

	if !d.KeepAlive {
		if strings.Contains(t.ID, anonymousPrefix) {
			s.ctx.logger().WithField("thing", t.ID).Warn("deleting anonymous cutscene triggerer")
		}
		if s.ctx.State != nil {
			s.ctx.State.AddChange(t.ID, "alive", false)
		}
		s.ctx.kill(other)
	}

	args := SceneArgs{Player: thing, Triggerer: other}
	if d.Cutscene != "" {
		if err := s.ctx.Scenes.StartCutscene(d.Cutscene, args); err != nil {
			return err
		}
	}
	if d.Routine != "" {
		if err := s.ctx.Scenes.PlayRoutine(d.Routine, args); err != nil {
			return err
		}
	}
	return nil
}

// ActivateThemePlayer switches the area theme when the player walks in.
func (s *ActivatorSystem) ActivateThemePlayer(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if _, isPlayer := s.ctx.player(thing); !isPlayer || !ok {
		return nil
	}
	if s.ctx.Audio.ThemeName() == d.Theme {
		return nil
	}
	return s.ctx.Audio.PlayTheme(d.Theme)
}

// ActivateCutsceneResponder plays the responder's dialog if it has one and
// its cutscene otherwise.
func (s *ActivatorSystem) ActivateCutsceneResponder(thing, other ecs.Entity) error {
	t, ok := s.ctx.thing(other)
	d, _ := s.ctx.detector(other)
	if _, isPlayer := s.ctx.player(thing); !isPlayer || !ok || !t.Alive || d == nil {
		return nil
	}
	if len(d.Dialog) > 0 {
		return s.ActivateMenuTriggerer(thing, other)
	}
	return s.ctx.Scenes.StartCutscene(d.Cutscene, SceneArgs{Player: thing, Triggerer: other})
}

// ActivateMenuTriggerer opens the detector's dialog. When it closes the
// player is optionally pushed along PushSteps before input is released.
func (s *ActivatorSystem) ActivateMenuTriggerer(thing, other ecs.Entity) error {
	t, ok := s.ctx.thing(other)
	d, _ := s.ctx.detector(other)
	if !ok || !t.Alive || d == nil {
		return nil
	}
	player, isPlayer := s.triggerer(thing)
	if isPlayer && player.CollidedTrigger == uint64(other) {
		return nil
	}
	if len(d.Dialog) == 0 {
		return &component.InvariantError{Op: "activate menu triggerer", Thing: t.ID, Err: component.ErrMissingDialog}
	}

	name := d.Menu
	if name == "" {
		name = menu.GeneralText
	}

	if isPlayer {
		player.CollidedTrigger = uint64(other)
	}
	s.walk.PreventWalking(thing)

	if !d.KeepAlive {
		s.ctx.kill(other)
	}

	release := func() {
		s.ctx.Screen.BlockInputs = false
		if isPlayer {
			player.CollidedTrigger = 0
		}
	}

	if !s.ctx.Menus.HasMenu(name) {
		s.ctx.Menus.CreateMenu(name, d.MenuAttributes)
	}
	s.ctx.Menus.AddMenuDialog(name, d.Dialog, func() error {
		s.ctx.Menus.DeleteMenu(menu.GeneralText)

		if d.PushDirection == nil {
			release()
			return nil
		}
		if d.PushSteps == nil {
			return nil
		}
		plan := d.PushSteps.Clone()
		plan.Append(component.Invoke{Fn: func() (bool, error) {
			release()
			return true, nil
		}})
		return s.walk.StartWalkingCycle(thing, *d.PushDirection, plan)
	})
	s.ctx.Menus.SetActiveMenu(name)
	return nil
}

// ActivateSightDetector starts the spotted cutscene of the detector's
// viewer, once.
func (s *ActivatorSystem) ActivateSightDetector(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if !ok {
		return nil
	}
	if _, isPlayer := s.ctx.player(thing); !isPlayer {
		return nil
	}
	viewer := ecs.Entity(d.Viewer)
	vch, ok := s.ctx.character(viewer)
	if !ok || vch.Talking {
		return nil
	}

	vch.Talking = true
	d.Active = false
	s.ctx.Screen.BlockInputs = true

	return s.ctx.Scenes.StartCutscene("TrainerSpotted", SceneArgs{
		Player:        thing,
		Triggerer:     viewer,
		SightDetector: other,
	})
}

// ActivateLedge hops a character walking the ledge's way down it.
func (s *ActivatorSystem) ActivateLedge(thing, other ecs.Entity) error {
	t, ch, err := s.walk.lookup("activate ledge", thing)
	if err != nil {
		return nil
	}
	lt, ok := s.ctx.thing(other)
	if !ok || ch.Ledge != 0 || !ch.Walking() || t.Direction != lt.Direction {
		return nil
	}
	if player, ok := s.ctx.player(thing); ok {
		if player.CollidedTrigger == uint64(other) {
			return nil
		}
		player.CollidedTrigger = uint64(other)
		player.CanKeyWalking = false
		s.ctx.Screen.BlockInputs = true
	}
	return s.walk.HopLedge(thing, other)
}

// ActivateTransporter fades to black and then moves the player to the
// transport's map or location.
func (s *ActivatorSystem) ActivateTransporter(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if _, isPlayer := s.ctx.player(thing); !isPlayer || !ok || !d.Active {
		return nil
	}
	if d.Transport == nil {
		return &component.InvariantError{Op: "activate transporter", Thing: s.id(other), Err: component.ErrMissingTransport}
	}

	transport := *d.Transport
	var callback func() error
	switch {
	case transport.Map != "":
		callback = func() error { return s.ctx.Maps.SetMap(transport.Map, transport.Location) }
	case transport.Location != "":
		callback = func() error { return s.ctx.Maps.SetLocation(transport.Location) }
	default:
		return &component.InvariantError{Op: "activate transporter", Thing: s.id(other), Err: fmt.Errorf("%w: %+v", component.ErrUnknownTransport, transport)}
	}

	d.Active = false
	_, err := s.anim.FadeToColor(ColorFade{Color: "Black", Callback: callback})
	return err
}

// ActivateGymStatue reads out the gym's leader when looked at from below.
func (s *ActivatorSystem) ActivateGymStatue(thing, other ecs.Entity) error {
	t, ok := s.ctx.thing(thing)
	d, _ := s.ctx.detector(other)
	if !ok || d == nil || t.Direction != component.Top {
		return nil
	}

	dialog := []string{
		strings.ToUpper(d.Gym) + " \n %%%%%%%POKEMON%%%%%%% GYM \n LEADER: " + strings.ToUpper(d.Leader),
		"WINNING TRAINERS: %%%%%%%RIVAL%%%%%%%",
	}
	if s.ctx.Items.HasBadge(d.Leader) {
		dialog[1] += " \n %%%%%%%PLAYER%%%%%%%"
	}

	s.ctx.Menus.CreateMenu(menu.GeneralText, nil)
	s.ctx.Menus.AddMenuDialog(menu.GeneralText, dialog, nil)
	s.ctx.Menus.SetActiveMenu(menu.GeneralText)
	return nil
}

// ActivateSpawner runs a spawner's payload.
func (s *ActivatorSystem) ActivateSpawner(e ecs.Entity) error {
	d, ok := s.ctx.detector(e)
	if !ok || d.Activate == nil {
		return &component.InvariantError{Op: "activate spawner", Thing: s.id(e), Err: component.ErrMissingActivate}
	}
	return d.Activate(uint64(e))
}

// SpawnWindowDetector activates a window detector as soon as it is on
// screen, polling until then.
func (s *ActivatorSystem) SpawnWindowDetector(e ecs.Entity) error {
	done, err := s.CheckWindowDetector(e)
	if err != nil || done {
		return err
	}
	s.ctx.Time.AddEventIntervalFor(e, func() error {
		done, err := s.CheckWindowDetector(e)
		if err != nil {
			return err
		}
		if done {
			return ecs.ErrStopEvent
		}
		return nil
	}, s.ctx.Game.WindowPoll, ecs.Infinite)
	return nil
}

// CheckWindowDetector activates and removes e if any of it is on screen.
func (s *ActivatorSystem) CheckWindowDetector(e ecs.Entity) (bool, error) {
	t, ok := s.ctx.thing(e)
	if !ok || !s.ctx.Screen.InFrame(t) {
		return false, nil
	}
	d, ok := s.ctx.detector(e)
	if !ok || d.Activate == nil {
		return false, &component.InvariantError{Op: "check window detector", Thing: t.ID, Err: component.ErrMissingActivate}
	}
	if err := d.Activate(uint64(e)); err != nil {
		return false, err
	}
	s.ctx.kill(e)
	return true, nil
}

// SpawnAreaSpawner spawns the neighbouring area it points at unless that
// area is current or was spawned by the same chain.
func (s *ActivatorSystem) SpawnAreaSpawner(e ecs.Entity) error {
	d, ok := s.ctx.detector(e)
	if !ok {
		return nil
	}
	area, err := s.ctx.Maps.Area(d.Map, d.Area)
	if err != nil {
		return fmt.Errorf("spawn area spawner %s: %w", s.id(e), err)
	}
	current := s.ctx.Maps.CurrentArea()

	if area == current {
		s.ctx.kill(e)
		return nil
	}
	spawnedBy := ""
	if current != nil {
		spawnedBy = current.SpawnedBy
	}
	if area.SpawnedBy != "" && area.SpawnedBy == spawnedBy {
		s.ctx.kill(e)
		return nil
	}

	area.SpawnedBy = spawnedBy
	return s.ctx.Maps.ActivateAreaSpawner(uint64(e), area)
}

// ActivateAreaGate moves the screen into the gate's area so the player keeps
// its on-screen position across the boundary.
func (s *ActivatorSystem) ActivateAreaGate(thing, other ecs.Entity) error {
	t, ch, err := s.walk.lookup("activate area gate", thing)
	if err != nil {
		return nil
	}
	gate, ok := s.ctx.thing(other)
	d, _ := s.ctx.detector(other)
	if _, isPlayer := s.ctx.player(thing); !isPlayer || !ok || d == nil || !d.Active {
		return nil
	}
	if !ch.Walking() || t.Direction != d.Direction {
		return nil
	}

	area, err := s.ctx.Maps.Area(d.Map, d.Area)
	if err != nil {
		return fmt.Errorf("activate area gate %s: %w", gate.ID, err)
	}

	unitsize := s.ctx.Game.Unitsize
	var areaOffsetX, areaOffsetY float64
	switch t.Direction {
	case component.Top:
		areaOffsetX = t.Left - gate.Left
		areaOffsetY = area.Height*unitsize - t.UnitHeight
	case component.Right:
		areaOffsetX = 0
		areaOffsetY = t.Top - gate.Top
	case component.Bottom:
		areaOffsetX = t.Left - gate.Left
		areaOffsetY = 0
	case component.Left:
		areaOffsetX = area.Width*unitsize - t.UnitWidth
		areaOffsetY = t.Top - gate.Top
	default:
		return &component.InvariantError{Op: "activate area gate", Thing: t.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, t.Direction)}
	}

	screen := s.ctx.Screen
	offsetX := areaOffsetX - t.Left
	offsetY := areaOffsetY - t.Top
	screen.Top = offsetY
	screen.Right = offsetX + screen.Width
	screen.Bottom = offsetY + screen.Height
	screen.Left = offsetX

	s.ctx.Items.SetItem("map", d.Map)
	s.ctx.Items.SetItem("area", d.Area)
	s.ctx.Items.SetItem("location", nil)
	if _, err := s.ctx.Maps.SetArea(d.Map, d.Area); err != nil {
		return err
	}
	if s.ctx.State != nil {
		s.ctx.State.SetCollection(d.Map + "::" + d.Area)
	}

	d.Active = false
	s.ctx.Time.AddEventFor(other, func() error {
		d.Active = true
		return nil
	}, s.ctx.Game.GateCooldown)
	return nil
}

func (s *ActivatorSystem) id(e ecs.Entity) string {
	if t, ok := s.ctx.thing(e); ok {
		return t.ID
	}
	return e.String()
}
