package system

import (
	"strings"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/milk9111/overworld/menu"
)

const yesNoMenu = "Yes/No"

// Talk starts a conversation between the player and a talkable thing.
func (s *ActivatorSystem) Talk(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if !ok {
		return nil
	}
	pt, ok := s.ctx.thing(thing)
	if !ok {
		return nil
	}
	pch, _ := s.ctx.character(thing)
	if pch != nil && pch.Talking {
		return nil
	}

	if d.Cutscene != "" {
		if err := s.ctx.Scenes.StartCutscene(d.Cutscene, SceneArgs{Player: thing, Triggerer: other}); err != nil {
			return err
		}
	}
	if len(d.Dialog) == 0 {
		return nil
	}

	if pch != nil {
		pch.Talking = true
	}
	if och, ok := s.ctx.character(other); ok {
		och.Talking = true
		s.walk.SetDirection(other, pt.Direction.Opposite())
	}
	if player, ok := s.ctx.player(thing); ok {
		player.CanKeyWalking = false
	}
	s.walk.DialogFreeze(thing)

	s.ctx.Menus.CreateMenu(menu.GeneralText, map[string]any{
		"keepOnFinish": d.DialogOptions != nil,
	})
	s.ctx.Menus.AddMenuDialog(menu.GeneralText, d.Dialog, func() error {
		return s.DialogFinish(thing, other)
	})
	s.ctx.Menus.SetActiveMenu(menu.GeneralText)
	return nil
}

// DialogFinish runs everything a finished conversation triggers: turning,
// transports, pushes, gifts, follow-up dialog, options and trainer battles.
func (s *ActivatorSystem) DialogFinish(thing, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if !ok {
		return nil
	}
	id := s.id(other)

	s.ctx.fire("onDialogFinish", other, nil)

	if pch, ok := s.ctx.character(thing); ok {
		pch.Talking = false
	}
	s.walk.Thaw(thing)
	och, isCharacter := s.ctx.character(other)
	if isCharacter {
		och.Talking = false
	}
	if player, ok := s.ctx.player(thing); ok {
		player.CanKeyWalking = true
	}
	s.ctx.Screen.BlockInputs = false

	if d.DirectionPreferred != nil {
		s.walk.SetDirection(other, *d.DirectionPreferred)
	}

	if d.Transport != nil {
		d.Active = true
		return s.ActivateTransporter(thing, other)
	}

	if d.PushDirection != nil {
		if err := s.walk.StartWalkingCycle(thing, *d.PushDirection, d.PushSteps.Clone()); err != nil {
			return err
		}
	}

	if d.Gift != "" {
		gift := d.Gift
		s.ctx.Menus.CreateMenu(menu.GeneralText, nil)
		s.ctx.Menus.AddMenuDialog(menu.GeneralText, []string{
			"%%%%%%%PLAYER%%%%%%% got " + strings.ToUpper(gift) + "!",
		}, func() error {
			return s.DialogFinish(thing, other)
		})
		s.ctx.Menus.SetActiveMenu(menu.GeneralText)

		s.ctx.Items.AddItemToBag(gift, 1)
		d.Gift = ""
		s.change(id, "gift", nil)
		return nil
	}

	if d.DialogNext != nil {
		d.Dialog = d.DialogNext
		d.DialogNext = nil
		s.change(id, "dialog", d.Dialog)
		s.change(id, "dialogNext", nil)
	}

	if d.DialogOptions != nil {
		if err := s.DialogOptions(thing, other, d.DialogOptions); err != nil {
			return err
		}
	} else if d.Trainer && !d.AlreadyBattled {
		if err := s.ctx.Battles.StartTrainerBattle(thing, other); err != nil {
			return err
		}
		d.AlreadyBattled = true
		s.change(id, "alreadyBattled", true)
	}

	if d.Trainer {
		d.Trainer = false
		s.change(id, "trainer", false)

		if isCharacter && och.Sight > 0 {
			och.Sight = 0
			s.ctx.kill(ecs.Entity(och.SightDetector))
			och.SightDetector = 0
			s.change(id, "sight", nil)
		}
	}

	if d.DialogOptions == nil {
		return s.ctx.Items.AutoSave()
	}
	return nil
}

// DialogOptions asks a Yes/No question after a dialog. Each answer shows its
// words and then either asks a nested question or plays a cutscene.
func (s *ActivatorSystem) DialogOptions(thing, other ecs.Entity, options *component.DialogOptions) error {
	if options == nil || options.Options == nil {
		return &component.InvariantError{Op: "dialog options", Thing: s.id(other), Err: component.ErrMissingOptions}
	}
	if options.Type != "" && options.Type != yesNoMenu {
		s.ctx.logger().WithField("type", options.Type).Warn("dialog options only support Yes/No")
	}

	answer := func(branch *component.DialogBranch) func() error {
		if branch == nil {
			return nil
		}

		var callback func() error
		switch {
		case branch.Options != nil:
			callback = func() error {
				return s.DialogOptions(thing, other, branch.Options)
			}
		case branch.Cutscene != "":
			callback = s.ctx.Scenes.BindCutscene(branch.Cutscene, SceneArgs{Player: thing, Triggerer: other})
		}

		return func() error {
			s.ctx.Menus.DeleteMenu(yesNoMenu)
			s.ctx.Menus.CreateMenu(menu.GeneralText, nil)
			s.ctx.Menus.AddMenuDialog(menu.GeneralText, branch.Words, callback)
			s.ctx.Menus.SetActiveMenu(menu.GeneralText)
			return nil
		}
	}

	s.ctx.Menus.CreateMenu(yesNoMenu, map[string]any{"offsetLeft": 28})
	s.ctx.Menus.AddMenuList(yesNoMenu, []menu.Option{
		{Text: "YES", Callback: answer(options.Options.Yes)},
		{Text: "NO", Callback: answer(options.Options.No)},
	})
	s.ctx.Menus.SetActiveMenu(yesNoMenu)
	return nil
}

func (s *ActivatorSystem) change(id, key string, value any) {
	if s.ctx.State != nil {
		s.ctx.State.AddChange(id, key, value)
	}
}
