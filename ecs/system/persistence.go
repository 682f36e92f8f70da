package system

import (
	"fmt"
	"sort"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/levels"
	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	saveObject   = "saves"
	saveProperty = "slot"
)

// SaveData is everything the overworld persists between runs.
type SaveData struct {
	Items       map[string]any                       `yaml:"items"`
	Bag         map[string]int                       `yaml:"bag"`
	Badges      []string                             `yaml:"badges"`
	Party       []component.PartyMember              `yaml:"party"`
	Select      string                               `yaml:"select"`
	Collections map[string]map[string]map[string]any `yaml:"collections"`
}

func newSaveData() SaveData {
	return SaveData{
		Items:       make(map[string]any),
		Bag:         make(map[string]int),
		Collections: make(map[string]map[string]map[string]any),
	}
}

// Persistence holds the player's items and the per-thing changes of every
// area collection. A nil manager keeps everything in memory.
type Persistence struct {
	manager *gdata.Manager
	log     logrus.FieldLogger

	data       SaveData
	collection string
	history    map[string]map[string][]any

	// AutoSaving writes to storage after every finished conversation.
	AutoSaving bool
}

func NewPersistence(manager *gdata.Manager, log logrus.FieldLogger) *Persistence {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Persistence{
		manager: manager,
		log:     log,
		data:    newSaveData(),
		history: make(map[string]map[string][]any),
	}
}

// Load reads the save slot. A missing slot leaves a fresh save.
func (p *Persistence) Load() error {
	if p.manager == nil || !p.manager.ObjectPropExists(saveObject, saveProperty) {
		return nil
	}
	raw, err := p.manager.LoadObjectProp(saveObject, saveProperty)
	if err != nil {
		return fmt.Errorf("persistence: load: %w", err)
	}
	data := newSaveData()
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("persistence: unmarshal: %w", err)
	}
	if data.Items == nil {
		data.Items = make(map[string]any)
	}
	if data.Bag == nil {
		data.Bag = make(map[string]int)
	}
	if data.Collections == nil {
		data.Collections = make(map[string]map[string]map[string]any)
	}
	p.data = data
	p.log.WithField("collections", len(data.Collections)).Info("save loaded")
	return nil
}

// Save writes the save slot.
func (p *Persistence) Save() error {
	if p.manager == nil {
		return nil
	}
	raw, err := p.Snapshot()
	if err != nil {
		return err
	}
	if err := p.manager.SaveObjectProp(saveObject, saveProperty, raw); err != nil {
		return fmt.Errorf("persistence: save: %w", err)
	}
	p.log.Debug("save written")
	return nil
}

// Snapshot encodes the current save as yaml.
func (p *Persistence) Snapshot() ([]byte, error) {
	raw, err := yaml.Marshal(p.data)
	if err != nil {
		return nil, fmt.Errorf("persistence: marshal: %w", err)
	}
	return raw, nil
}

func (p *Persistence) AutoSave() error {
	if !p.AutoSaving {
		return nil
	}
	return p.Save()
}

func (p *Persistence) HasBadge(leader string) bool {
	for _, b := range p.data.Badges {
		if b == leader {
			return true
		}
	}
	return false
}

func (p *Persistence) AddBadge(leader string) {
	if leader == "" || p.HasBadge(leader) {
		return
	}
	p.data.Badges = append(p.data.Badges, leader)
}

func (p *Persistence) Party() []component.PartyMember {
	return p.data.Party
}

func (p *Persistence) SetParty(party []component.PartyMember) {
	p.data.Party = party
}

// AddItemToBag adds amount of item. Counts that reach zero drop the item.
func (p *Persistence) AddItemToBag(item string, amount int) {
	if item == "" {
		return
	}
	n := p.data.Bag[item] + amount
	if n <= 0 {
		delete(p.data.Bag, item)
		return
	}
	p.data.Bag[item] = n
}

// Bag lists the held items by name.
func (p *Persistence) Bag() []string {
	out := make([]string, 0, len(p.data.Bag))
	for item := range p.data.Bag {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

func (p *Persistence) BagCount(item string) int {
	return p.data.Bag[item]
}

// SelectItem is the item registered to the select key.
func (p *Persistence) SelectItem() string {
	return p.data.Select
}

func (p *Persistence) SetSelectItem(item string) {
	p.data.Select = item
}

// SetItem stores a loose value. Nil removes it.
func (p *Persistence) SetItem(key string, value any) {
	if value == nil {
		delete(p.data.Items, key)
		return
	}
	p.data.Items[key] = value
}

func (p *Persistence) Item(key string) (any, bool) {
	v, ok := p.data.Items[key]
	return v, ok
}

// SetCollection picks the area collection AddChange writes to.
func (p *Persistence) SetCollection(name string) {
	p.collection = name
}

func (p *Persistence) Collection() string {
	return p.collection
}

// AddChange records that a thing in the current collection changed.
func (p *Persistence) AddChange(id, key string, value any) {
	if id == "" {
		return
	}
	things, ok := p.data.Collections[p.collection]
	if !ok {
		things = make(map[string]map[string]any)
		p.data.Collections[p.collection] = things
	}
	changes, ok := things[id]
	if !ok {
		changes = make(map[string]any)
		things[id] = changes
	}
	changes[key] = value
}

// Changes returns the recorded changes for a thing in the current
// collection.
func (p *Persistence) Changes(id string) map[string]any {
	return p.data.Collections[p.collection][id]
}

// AddStateHistory saves a value a cutscene is about to overwrite.
func (p *Persistence) AddStateHistory(id, key string, value any) {
	keys, ok := p.history[id]
	if !ok {
		keys = make(map[string][]any)
		p.history[id] = keys
	}
	keys[key] = append(keys[key], value)
}

func (p *Persistence) PopStateHistory(id, key string) (any, bool) {
	values := p.history[id][key]
	if len(values) == 0 {
		return nil, false
	}
	last := values[len(values)-1]
	p.history[id][key] = values[:len(values)-1]
	return last, true
}

// AreaLoader rebuilds the world when the player enters an area and places
// neighbouring areas when an area spawner fires.
type AreaLoader struct {
	ctx    *Context
	things *Things
	act    *ActivatorSystem
	store  *Persistence
}

func NewAreaLoader(ctx *Context, things *Things, act *ActivatorSystem, store *Persistence) *AreaLoader {
	return &AreaLoader{ctx: ctx, things: things, act: act, store: store}
}

// Enter drops every non-player thing, places the area and puts the player at
// the location.
func (l *AreaLoader) Enter(m *levels.Map, area *levels.Area, loc *levels.Location) error {
	w := l.ctx.World
	l.prune(w)

	screen := l.ctx.Screen
	screen.Left, screen.Top = 0, 0
	screen.Right, screen.Bottom = screen.Width, screen.Height
	screen.BlockInputs = false

	if l.store != nil {
		l.store.SetCollection(area.Key())
	}
	l.ctx.Items.SetItem("map", m.Name)
	l.ctx.Items.SetItem("area", area.Name)
	l.ctx.Items.SetItem("location", loc.Name)

	placed, err := l.place(area, 0, 0)
	if err != nil {
		return err
	}

	player, err := l.player()
	if err != nil {
		return err
	}
	l.position(player, loc)

	for _, e := range placed {
		if !ecs.IsAlive(w, e) {
			continue
		}
		if err := l.act.Spawn(e); err != nil {
			return err
		}
	}

	l.ctx.Physics.UpdateBordering(w)

	if area.Theme != "" && l.ctx.Audio != nil {
		if err := l.ctx.Audio.PlayTheme(area.Theme); err != nil {
			l.ctx.logger().WithError(err).WithField("area", area.Key()).Warn("area theme")
		}
	}

	l.ctx.logger().WithFields(logrus.Fields{
		"map":      m.Name,
		"area":     area.Name,
		"location": loc.Name,
		"things":   len(placed),
	}).Info("entered area")
	return nil
}

// SpawnArea places area against the side of the current one the spawner
// faces, then removes the spawner.
func (l *AreaLoader) SpawnArea(spawner uint64, area *levels.Area) error {
	se := ecs.Entity(spawner)
	st, ok := l.ctx.thing(se)
	d, _ := l.ctx.detector(se)
	if !ok || d == nil {
		return nil
	}

	unitsize := l.ctx.Game.Unitsize
	var x, y float64
	switch d.Direction {
	case component.Top:
		x, y = st.Left, st.Bottom()-area.Height*unitsize
	case component.Right:
		x, y = st.Left, st.Top
	case component.Bottom:
		x, y = st.Left, st.Top
	case component.Left:
		x, y = st.Right()-area.Width*unitsize, st.Top
	default:
		return &component.InvariantError{Op: "spawn area", Thing: st.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, d.Direction)}
	}

	l.ctx.kill(se)

	placed, err := l.place(area, x, y)
	if err != nil {
		return err
	}
	for _, e := range placed {
		if !ecs.IsAlive(l.ctx.World, e) {
			continue
		}
		if err := l.act.Spawn(e); err != nil {
			return err
		}
	}
	l.ctx.Physics.UpdateBordering(l.ctx.World)

	l.ctx.logger().WithFields(logrus.Fields{"area": area.Key(), "things": len(placed)}).Debug("spawned area")
	return nil
}

func (l *AreaLoader) prune(w *ecs.World) {
	toDestroy := make([]ecs.Entity, 0)
	for _, e := range ecs.Entities(w) {
		if ecs.Has(w, e, component.PlayerComponent.Kind()) {
			continue
		}
		toDestroy = append(toDestroy, e)
	}
	for _, e := range toDestroy {
		ecs.DestroyEntity(w, e)
	}
}

// place creates the area's things with its top left corner at (x, y) and
// replays the recorded changes on them.
func (l *AreaLoader) place(area *levels.Area, x, y float64) ([]ecs.Entity, error) {
	placed := make([]ecs.Entity, 0, len(area.Things))
	for _, p := range area.Things {
		var changes map[string]any
		if l.store != nil && p.ID != "" {
			l.store.SetCollection(area.Key())
			changes = l.store.Changes(p.ID)
			if alive, ok := changes["alive"].(bool); ok && !alive {
				continue
			}
		}

		e, _, err := l.things.Place(p, x, y)
		if err != nil {
			return nil, err
		}
		applyChanges(l.ctx, e, changes)
		placed = append(placed, e)
	}
	if l.store != nil {
		if current := l.ctx.Maps.CurrentArea(); current != nil {
			l.store.SetCollection(current.Key())
		}
	}
	return placed, nil
}

func applyChanges(ctx *Context, e ecs.Entity, changes map[string]any) {
	if len(changes) == 0 {
		return
	}
	d, hasDetector := ctx.detector(e)
	ch, hasCharacter := ctx.character(e)
	for key, value := range changes {
		switch key {
		case "gift":
			if hasDetector {
				d.Gift = ""
			}
		case "dialog":
			if hasDetector {
				d.Dialog = asStrings(value)
			}
		case "dialogNext":
			if hasDetector {
				d.DialogNext = asStrings(value)
			}
		case "trainer":
			if v, ok := value.(bool); ok && hasDetector {
				d.Trainer = v
			}
		case "alreadyBattled":
			if v, ok := value.(bool); ok && hasDetector {
				d.AlreadyBattled = v
			}
		case "sight":
			if hasCharacter {
				ch.Sight = 0
			}
		}
	}
}

func asStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func (l *AreaLoader) player() (ecs.Entity, error) {
	if e, ok := ecs.First(l.ctx.World, component.PlayerComponent.Kind()); ok {
		return e, nil
	}
	e, _, err := l.things.Add("Player", ThingSettings{Direction: component.Bottom})
	if err != nil {
		return 0, fmt.Errorf("area loader: player: %w", err)
	}
	return e, nil
}

func (l *AreaLoader) position(e ecs.Entity, loc *levels.Location) {
	t, ok := l.ctx.thing(e)
	if !ok {
		return
	}
	unitsize := l.ctx.Game.Unitsize
	t.SetLeft(loc.X * unitsize)
	t.SetTop(loc.Y * unitsize)
	t.OffsetY = 0
	t.XVel, t.YVel = 0, 0
	t.Alive = true

	l.ctx.Time.CancelOwned(e)
	if ch, ok := l.ctx.character(e); ok {
		ch.ShouldWalk = false
		ch.Turning = nil
		ch.Ledge, ch.Shadow = 0, 0
		ch.WalkingFlipping = 0
		ch.Following, ch.Follower, ch.FollowingLoop = 0, 0, 0
		ch.State = component.NewWalkingState()
	}
	if player, ok := l.ctx.player(e); ok {
		player.CanKeyWalking = true
		player.NextDirection = nil
		player.CollidedTrigger = 0
	}
	l.act.walk.SetDirection(e, loc.Direction)
}
