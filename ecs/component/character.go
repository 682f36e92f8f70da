package component

import "github.com/looplab/fsm"

// Walking states tracked by Character.State.
const (
	StateStanding = "standing"
	StateWalking  = "walking"
	StateFrozen   = "frozen"
)

// Character is the walking state of anything that moves on the grid.
// Entity references are raw ecs.Entity values; zero means none.
type Character struct {
	ShouldWalk  bool
	Talking     bool
	Speed       float64
	Distance    float64
	Destination float64

	// Turning is a facing requested mid-step.
	Turning *Direction

	Sight         int
	SightDetector uint64

	Roaming           bool
	RoamingDirections []Direction

	Following uint64
	Follower  uint64
	// WalkingCommands logs a leader's steps for its follower. Nil means the
	// character has never led.
	WalkingCommands []Direction

	Ledge  uint64
	Shadow uint64

	WalkingFlipping uint64
	FollowingLoop   uint64

	State *fsm.FSM
}

var CharacterComponent = NewComponent[Character]()

// NewWalkingState builds the per-character walking FSM.
func NewWalkingState() *fsm.FSM {
	return fsm.NewFSM(
		StateStanding,
		[]fsm.EventDesc{
			{Name: "walk", Src: []string{StateStanding, StateWalking, StateFrozen}, Dst: StateWalking},
			{Name: "stop", Src: []string{StateWalking}, Dst: StateStanding},
			{Name: "freeze", Src: []string{StateStanding, StateWalking}, Dst: StateFrozen},
			{Name: "thaw", Src: []string{StateFrozen}, Dst: StateStanding},
		},
		fsm.Callbacks{},
	)
}

// Walking reports whether the character is mid-step.
func (c *Character) Walking() bool {
	return c.State != nil && c.State.Is(StateWalking)
}

// Frozen reports whether a dialog or cutscene is holding the character.
// Only an explicit walk or a thaw leaves it.
func (c *Character) Frozen() bool {
	return c.State != nil && c.State.Is(StateFrozen)
}

// Keys is the held state of the player's buttons.
type Keys struct {
	Directions [4]bool
	A          bool
	B          bool
}

// Held reports whether the key for d is down.
func (k Keys) Held(d Direction) bool {
	return d.Valid() && k.Directions[d]
}

// Player marks the user-controlled character.
type Player struct {
	Keys                 Keys
	CanKeyWalking        bool
	NextDirection        *Direction
	AllowDirectionAsKeys bool
	CollidedTrigger      uint64
	Surfing              bool
	Cycling              bool
}

var PlayerComponent = NewComponent[Player]()

// PartyMember is a party pokemon as far as overworld moves care.
type PartyMember struct {
	Title string   `yaml:"title"`
	Moves []string `yaml:"moves"`
}
