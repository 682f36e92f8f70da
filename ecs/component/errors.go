package component

import (
	"errors"
	"fmt"
)

// Content errors. A thing that trips one of these was authored wrong.
var (
	ErrUnknownDirection         = errors.New("unknown direction")
	ErrUnknownOnStop            = errors.New("unknown onStop")
	ErrMissingDialog            = errors.New("missing dialog")
	ErrMissingActivate          = errors.New("missing activate")
	ErrMissingRoamingDirections = errors.New("roaming thing should define roaming directions")
	ErrMissingWalkingCommands   = errors.New("leader missing walking commands")
	ErrMissingTransport         = errors.New("missing transport")
	ErrUnknownTransport         = errors.New("unknown transport type")
	ErrMissingOptions           = errors.New("missing dialog options")
	ErrMissingBagActivate       = errors.New("item missing bag activate")
	ErrMissingRequiredBadge     = errors.New("missing required badge")
	ErrMissingSightDetector     = errors.New("missing sight detector")
	ErrTooFarToFollow           = errors.New("too far to follow")
	ErrNotCharacter             = errors.New("not a character")
)

// InvariantError reports a malformed thing found during an operation.
type InvariantError struct {
	Op    string
	Thing string
	Err   error
}

func (e *InvariantError) Error() string {
	if e.Thing == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Thing, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
