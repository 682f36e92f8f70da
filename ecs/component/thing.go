package component

import "sort"

// Thing is the positional and visual record every overworld object carries.
// Left and Top are pixels; Width and Height are game units and UnitWidth and
// UnitHeight their pixel extents.
type Thing struct {
	ID        string
	Title     string
	GroupType string

	Left       float64
	Top        float64
	Width      float64
	Height     float64
	UnitWidth  float64
	UnitHeight float64

	XVel    float64
	YVel    float64
	OffsetX float64
	OffsetY float64
	Opacity float64

	Hidden     bool
	Flickering bool
	FlipHoriz  bool
	FlipVert   bool

	// SpriteRefreshes counts forced sprite redraws.
	SpriteRefreshes int

	Alive     bool
	NoCollide bool
	Direction Direction

	// Bordering holds the entity adjacent in each direction, refreshed by
	// the physics collaborator every tick. Zero means nothing.
	Bordering [4]uint64

	classes map[string]struct{}
	cycles  map[string]uint64
}

var ThingComponent = NewComponent[Thing]()

func (t *Thing) Right() float64  { return t.Left + t.UnitWidth }
func (t *Thing) Bottom() float64 { return t.Top + t.UnitHeight }
func (t *Thing) MidX() float64   { return t.Left + t.UnitWidth/2 }
func (t *Thing) MidY() float64   { return t.Top + t.UnitHeight/2 }

func (t *Thing) SetLeft(v float64)   { t.Left = v }
func (t *Thing) SetTop(v float64)    { t.Top = v }
func (t *Thing) SetRight(v float64)  { t.Left = v - t.UnitWidth }
func (t *Thing) SetBottom(v float64) { t.Top = v - t.UnitHeight }
func (t *Thing) SetMidX(v float64)   { t.Left = v - t.UnitWidth/2 }
func (t *Thing) SetMidY(v float64)   { t.Top = v - t.UnitHeight/2 }

// Shift moves the thing by a pixel delta.
func (t *Thing) Shift(dx, dy float64) {
	t.Left += dx
	t.Top += dy
}

// SetWidth sets the width in game units.
func (t *Thing) SetWidth(units, unitsize float64) {
	t.Width = units
	t.UnitWidth = units * unitsize
}

// SetHeight sets the height in game units.
func (t *Thing) SetHeight(units, unitsize float64) {
	t.Height = units
	t.UnitHeight = units * unitsize
}

// BorderingIn returns the entity adjacent in d, if any.
func (t *Thing) BorderingIn(d Direction) (uint64, bool) {
	if !d.Valid() {
		return 0, false
	}
	e := t.Bordering[d]
	return e, e != 0
}

func (t *Thing) AddClass(name string) {
	if name == "" {
		return
	}
	if t.classes == nil {
		t.classes = make(map[string]struct{})
	}
	t.classes[name] = struct{}{}
}

func (t *Thing) RemoveClass(name string) {
	delete(t.classes, name)
}

func (t *Thing) RemoveClasses(names ...string) {
	for _, name := range names {
		delete(t.classes, name)
	}
}

func (t *Thing) HasClass(name string) bool {
	_, ok := t.classes[name]
	return ok
}

// Classes returns the sorted class list.
func (t *Thing) Classes() []string {
	out := make([]string, 0, len(t.classes))
	for name := range t.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (t *Thing) Cycle(name string) (uint64, bool) {
	id, ok := t.cycles[name]
	return id, ok
}

func (t *Thing) SetCycle(name string, id uint64) {
	if t.cycles == nil {
		t.cycles = make(map[string]uint64)
	}
	t.cycles[name] = id
}

func (t *Thing) ClearCycle(name string) {
	delete(t.cycles, name)
}
