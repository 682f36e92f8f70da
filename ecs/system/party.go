package system

import (
	"fmt"
	"strings"

	"github.com/milk9111/overworld/ecs"
	"github.com/milk9111/overworld/ecs/component"
	"github.com/sirupsen/logrus"
)

// ActivateHMCharacter uses a party member's field move on other when the
// badge allows it.
func (s *ActivatorSystem) ActivateHMCharacter(player, other ecs.Entity) error {
	d, ok := s.ctx.detector(other)
	if !ok {
		return nil
	}
	if d.RequiredBadge != "" && !s.ctx.Items.HasBadge(d.RequiredBadge) {
		return nil
	}

	for _, member := range s.ctx.Items.Party() {
		for _, move := range member.Moves {
			if move == d.MoveName {
				return s.PartyActivateCheckThing(player, member, move)
			}
		}
	}
	return nil
}

// PartyActivateCheckThing runs move only if the player faces the kind of
// thing the move works on.
func (s *ActivatorSystem) PartyActivateCheckThing(player ecs.Entity, member component.PartyMember, move string) error {
	spec, ok := s.ctx.Game.HMMoves[move]
	if !ok {
		return nil
	}
	pt, ok := s.ctx.thing(player)
	if !ok {
		return nil
	}
	bordered, ok := pt.BorderingIn(pt.Direction)
	if !ok {
		return nil
	}
	bt, ok := s.ctx.thing(ecs.Entity(bordered))
	if !ok || !strings.Contains(bt.Title, spec.CharacterName) {
		return nil
	}

	s.ctx.logger().WithFields(logrus.Fields{"move": move, "pokemon": member.Title}).Debug("party move")

	switch spec.Action {
	case "cut":
		return s.PartyActivateCut(player)
	case "strength":
		return s.PartyActivateStrength(player)
	case "surf":
		return s.PartyActivateSurf(player)
	}
	return &component.InvariantError{Op: "party activate", Thing: pt.ID, Err: fmt.Errorf("unknown field move action %q", spec.Action)}
}

func (s *ActivatorSystem) closeMenus() {
	s.ctx.Menus.DeleteAllMenus()
	if s.ctx.Pause != nil {
		s.ctx.Pause.ClosePauseMenu()
	}
}

// PartyActivateCut removes the tree in front of the player.
func (s *ActivatorSystem) PartyActivateCut(player ecs.Entity) error {
	s.closeMenus()
	pt, ok := s.ctx.thing(player)
	if !ok {
		return nil
	}
	if tree, ok := pt.BorderingIn(pt.Direction); ok {
		s.ctx.kill(ecs.Entity(tree))
	}
	return nil
}

// PartyActivateStrength pushes the boulder in front of the player one cell.
func (s *ActivatorSystem) PartyActivateStrength(player ecs.Entity) error {
	s.closeMenus()
	pt, ok := s.ctx.thing(player)
	if !ok {
		return nil
	}
	id, ok := pt.BorderingIn(pt.Direction)
	if !ok {
		return nil
	}
	boulder := ecs.Entity(id)
	bt, ok := s.ctx.thing(boulder)
	if !ok || !s.ctx.Physics.Touches(pt, bt) {
		return nil
	}
	if _, blocked := bt.BorderingIn(pt.Direction); blocked {
		return nil
	}

	unitsize := s.ctx.Game.Unitsize
	var dx, dy float64
	switch pt.Direction {
	case component.Top:
		dy = -unitsize
	case component.Right:
		dx = unitsize
	case component.Bottom:
		dy = unitsize
	case component.Left:
		dx = -unitsize
	default:
		return &component.InvariantError{Op: "strength", Thing: pt.ID, Err: fmt.Errorf("%w: %d", component.ErrUnknownDirection, pt.Direction)}
	}

	s.ctx.Time.AddEventIntervalFor(boulder, func() error {
		bt.Shift(dx, dy)
		return nil
	}, 1, s.ctx.Game.StrengthPush)

	bt.Bordering = [4]uint64{}
	return nil
}

// PartyActivateSurf walks the player onto the water in front of it.
func (s *ActivatorSystem) PartyActivateSurf(player ecs.Entity) error {
	s.closeMenus()
	pt, ok := s.ctx.thing(player)
	p, isPlayer := s.ctx.player(player)
	if !ok || !isPlayer || p.Cycling {
		return nil
	}

	pt.Bordering[pt.Direction] = 0
	pt.AddClass("surfing")
	if err := s.walk.StartWalking(player, pt.Direction, component.Walk(pt.Direction, 1)); err != nil {
		return err
	}
	p.Surfing = true
	return nil
}
