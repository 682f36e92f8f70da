package system

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"golang.org/x/image/colornames"
)

// DrawBorderingDebug outlines every thing and marks the sides that border
// something solid.
func DrawBorderingDebug(w *ecs.World, screen *ebiten.Image, scale float64) {
	if w == nil || screen == nil {
		return
	}
	ecs.ForEach(w, component.ThingComponent.Kind(), func(_ ecs.Entity, t *component.Thing) {
		if !t.Alive {
			return
		}
		vector.StrokeRect(screen, float32(t.Left*scale), float32(t.Top*scale), float32(t.UnitWidth*scale), float32(t.UnitHeight*scale), 1, colornames.Yellow, false)
		for _, d := range component.Directions {
			if _, ok := t.BorderingIn(d); !ok {
				continue
			}
			strip := side(t, d)
			vector.FillRect(screen, float32(strip.L*scale), float32(strip.B*scale), float32((strip.R-strip.L)*scale), float32((strip.T-strip.B)*scale), colornames.Red, false)
		}
	})
}

// DrawPlayerStateDebug prints the walking state of the first player.
func DrawPlayerStateDebug(ctx *Context, screen *ebiten.Image) {
	if ctx == nil || screen == nil {
		return
	}
	pe, ok := ecs.First(ctx.World, component.PlayerComponent.Kind())
	if !ok {
		return
	}
	t, _ := ctx.thing(pe)
	ch, _ := ctx.character(pe)
	player, _ := ctx.player(pe)
	if t == nil || ch == nil || player == nil {
		return
	}

	state := "none"
	if ch.State != nil {
		state = ch.State.Current()
	}
	var held []string
	for _, d := range component.Directions {
		if player.Keys.Held(d) {
			held = append(held, d.String())
		}
	}
	area := ""
	if ctx.Maps != nil && ctx.Maps.CurrentArea() != nil {
		area = ctx.Maps.CurrentArea().Key()
	}
	text := fmt.Sprintf("Tick: %d  Events: %d\nArea: %s\nState: %s  Facing: %s\nWalking: %v  KeyWalking: %v\nHeld: %s\nBlocked: %v  Menu: %s",
		ctx.Time.Time(), ctx.Time.Pending(),
		area,
		state, t.Direction,
		ch.Walking(), player.CanKeyWalking,
		strings.Join(held, ","),
		ctx.Screen.BlockInputs, ctx.Menus.ActiveMenu())
	ebitenutil.DebugPrintAt(screen, text, 4, 4)
}
