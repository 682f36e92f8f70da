package system

import (
	"image/color"
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
	"golang.org/x/image/colornames"
)

// groupOrder is the draw order of render groups.
var groupOrder = map[string]int{
	"Terrain":   0,
	"Solid":     1,
	"Character": 2,
	textGroup:   3,
}

var groupColors = map[string]color.Color{
	"Terrain":   colornames.Darkseagreen,
	"Solid":     colornames.Dimgray,
	"Character": colornames.Steelblue,
	textGroup:   colornames.White,
}

// ColorSource returns the fill of a thing template.
type ColorSource interface {
	Color(title string) color.Color
}

// RenderSystem draws every visible thing as a filled box in group order,
// then the active menu.
type RenderSystem struct {
	colors ColorSource
	menus  *menu.Grapher
	scale  float64
}

func NewRenderSystem(colors ColorSource, menus *menu.Grapher, scale float64) *RenderSystem {
	if scale <= 0 {
		scale = 1
	}
	return &RenderSystem{colors: colors, menus: menus, scale: scale}
}

func (r *RenderSystem) Draw(w *ecs.World, screen *ebiten.Image) {
	if r == nil || w == nil || screen == nil {
		return
	}

	type drawn struct {
		e ecs.Entity
		t *component.Thing
	}
	var things []drawn
	ecs.ForEach(w, component.ThingComponent.Kind(), func(e ecs.Entity, t *component.Thing) {
		if t.Alive && !t.Hidden && t.Opacity > 0 {
			things = append(things, drawn{e, t})
		}
	})
	sort.SliceStable(things, func(i, j int) bool {
		gi, gj := groupOrder[things[i].t.GroupType], groupOrder[things[j].t.GroupType]
		if gi != gj {
			return gi < gj
		}
		return uint64(things[i].e) < uint64(things[j].e)
	})

	for _, d := range things {
		t := d.t
		fill := r.fill(t)
		x := float32((t.Left + t.OffsetX) * r.scale)
		y := float32((t.Top + t.OffsetY) * r.scale)
		vector.FillRect(screen, x, y, float32(t.UnitWidth*r.scale), float32(t.UnitHeight*r.scale), fill, false)
		if _, ok := ecs.Get(w, d.e, component.CharacterComponent.Kind()); ok {
			r.drawFacing(screen, t)
		}
	}

	r.drawMenu(screen)
}

func (r *RenderSystem) fill(t *component.Thing) color.Color {
	var c color.Color
	if r.colors != nil {
		c = r.colors.Color(t.Title)
	}
	if c == nil {
		c = groupColors[t.GroupType]
	}
	if c == nil {
		c = colornames.Magenta
	}
	if t.Opacity >= 1 {
		return c
	}
	cr, cg, cb, ca := c.RGBA()
	o := t.Opacity
	return color.RGBA64{
		R: uint16(float64(cr) * o),
		G: uint16(float64(cg) * o),
		B: uint16(float64(cb) * o),
		A: uint16(float64(ca) * o),
	}
}

// drawFacing marks the edge a character looks towards.
func (r *RenderSystem) drawFacing(screen *ebiten.Image, t *component.Thing) {
	const mark = 2.0
	x, y := t.Left+t.OffsetX, t.Top+t.OffsetY
	w, h := t.UnitWidth, t.UnitHeight
	switch t.Direction {
	case component.Top:
		h = mark
	case component.Right:
		x, w = x+w-mark, mark
	case component.Bottom:
		y, h = y+h-mark, mark
	case component.Left:
		w = mark
	}
	vector.FillRect(screen, float32(x*r.scale), float32(y*r.scale), float32(w*r.scale), float32(h*r.scale), colornames.Black, false)
}

func (r *RenderSystem) drawMenu(screen *ebiten.Image) {
	if r.menus == nil {
		return
	}
	m, ok := r.menus.Menu(r.menus.ActiveMenu())
	if !ok {
		return
	}
	bounds := screen.Bounds()
	boxH := float32(bounds.Dy()) / 4
	vector.FillRect(screen, 0, float32(bounds.Dy())-boxH, float32(bounds.Dx()), boxH, colornames.White, false)
	vector.StrokeRect(screen, 2, float32(bounds.Dy())-boxH+2, float32(bounds.Dx())-4, boxH-4, 2, colornames.Black, false)

	x := 8
	y := bounds.Dy() - int(boxH) + 8
	if len(m.Options) == 0 {
		ebitenutil.DebugPrintAt(screen, m.Text(), x, y)
		return
	}
	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+opt.Text, x, y+i*16)
	}
}
