package system

import (
	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
	"github.com/sirupsen/logrus"
)

// Events pushed when the overworld hands the player over to a battle.
const (
	EventWildGrass     = "onWildGrass"
	EventTrainerBattle = "onTrainerBattle"
)

// BattleHandoff reports battle starts on the world event queue. Battles
// themselves run elsewhere.
type BattleHandoff struct {
	ctx *Context
}

func NewBattleHandoff(ctx *Context) *BattleHandoff {
	return &BattleHandoff{ctx: ctx}
}

// CheckGrassBattle reports the player standing in grass and never starts a
// battle on its own.
func (b *BattleHandoff) CheckGrassBattle(player ecs.Entity) bool {
	pt, ok := b.ctx.thing(player)
	if !ok {
		return false
	}
	ecs.ForEach(b.ctx.World, component.ThingComponent.Kind(), func(e ecs.Entity, t *component.Thing) {
		if t.Alive && t.Title == "Grass" && b.ctx.Physics.Hits(pt, t) {
			b.ctx.fire(EventWildGrass, player, t.ID)
		}
	})
	return false
}

func (b *BattleHandoff) StartTrainerBattle(player, trainer ecs.Entity) error {
	t, _ := b.ctx.thing(trainer)
	b.ctx.logger().WithField("trainer", thingID(t)).Info("trainer battle")
	b.ctx.fire(EventTrainerBattle, player, thingID(t))
	return nil
}

// ScreenPause pauses the overworld through the screen record. The frontend
// draws the pause menu while Screen.Paused is set.
type ScreenPause struct {
	ctx *Context
}

func NewScreenPause(ctx *Context) *ScreenPause {
	return &ScreenPause{ctx: ctx}
}

func (p *ScreenPause) TogglePauseMenu() {
	p.ctx.Screen.Paused = !p.ctx.Screen.Paused
	p.ctx.logger().WithField("paused", p.ctx.Screen.Paused).Debug("pause toggled")
}

func (p *ScreenPause) ClosePauseMenu() {
	p.ctx.Screen.Paused = false
}

// DisplayMessage shows message in the general text box.
func (p *ScreenPause) DisplayMessage(player ecs.Entity, message string) {
	if message == "" {
		return
	}
	p.ctx.logger().WithFields(logrus.Fields{"player": player.String(), "message": message}).Debug("display message")
	p.ctx.Menus.CreateMenu(menu.GeneralText, nil)
	p.ctx.Menus.AddMenuDialog(menu.GeneralText, []string{message}, nil)
	p.ctx.Menus.SetActiveMenu(menu.GeneralText)
}
