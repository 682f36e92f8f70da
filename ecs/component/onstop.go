package component

import "fmt"

// Callback is a command run when a step completes. Its result replaces the
// "fully stopped" answer of the step that ran it.
type Callback func() (bool, error)

// OnStop is what a character does once a walking step completes. A nil
// OnStop stops the character.
type OnStop interface {
	onStop()
}

// Repeat walks Count more steps in the current direction.
type Repeat struct {
	Count int
}

// Sequence is a multi-leg walking plan. The head Move's Distance counts the
// steps left on the current leg and is consumed in place, so a Sequence must
// not be shared between characters. Use Clone for templates.
type Sequence struct {
	Steps []Step
}

// Then wraps a bare callback.
type Then Callback

func (Repeat) onStop()    {}
func (*Sequence) onStop() {}
func (Then) onStop()      {}

// Step is one entry of a Sequence.
type Step interface {
	step()
}

// Move walks Distance steps toward Direction. A zero Distance only turns.
type Move struct {
	Direction Direction
	Distance  int
}

// Invoke runs a callback in place of a further leg.
type Invoke struct {
	Fn Callback
}

func (Move) step()   {}
func (Invoke) step() {}

// Walk builds a Sequence starting with distance steps toward first.
func Walk(first Direction, distance int, rest ...Step) *Sequence {
	steps := make([]Step, 0, len(rest)+1)
	steps = append(steps, Move{Direction: first, Distance: distance})
	steps = append(steps, rest...)
	return &Sequence{Steps: steps}
}

// Len reports the number of remaining steps.
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Steps)
}

// Clone copies the step list so the copy can be consumed independently.
func (s *Sequence) Clone() *Sequence {
	if s == nil {
		return nil
	}
	return &Sequence{Steps: append([]Step(nil), s.Steps...)}
}

// Append adds steps to the end of the plan.
func (s *Sequence) Append(steps ...Step) {
	s.Steps = append(s.Steps, steps...)
}

// Rest returns the plan after the head step. The result shares no state
// with s that consumption could disturb.
func (s *Sequence) Rest() *Sequence {
	if s.Len() <= 1 {
		return &Sequence{}
	}
	return &Sequence{Steps: append([]Step(nil), s.Steps[1:]...)}
}

// SequenceFromLegacy converts the flat encoding used by map content:
// [distance, direction, distance, direction, ..., callback?], where the
// first leg heads toward first. Items may be int, Direction or Callback.
func SequenceFromLegacy(first Direction, items ...any) (*Sequence, error) {
	seq := &Sequence{}
	current := first
	expectDistance := true
	for i, item := range items {
		if expectDistance {
			n, ok := legacyInt(item)
			if !ok {
				return nil, &InvariantError{Op: "onStop sequence", Err: fmt.Errorf("%w: item %d is %T, want a distance", ErrUnknownOnStop, i, item)}
			}
			seq.Steps = append(seq.Steps, Move{Direction: current, Distance: n})
			expectDistance = false
			continue
		}
		switch v := item.(type) {
		case Callback:
			seq.Steps = append(seq.Steps, Invoke{Fn: v})
			if i != len(items)-1 {
				return nil, &InvariantError{Op: "onStop sequence", Err: fmt.Errorf("%w: callback at %d is not last", ErrUnknownOnStop, i)}
			}
			return seq, nil
		case func() (bool, error):
			seq.Steps = append(seq.Steps, Invoke{Fn: v})
			if i != len(items)-1 {
				return nil, &InvariantError{Op: "onStop sequence", Err: fmt.Errorf("%w: callback at %d is not last", ErrUnknownOnStop, i)}
			}
			return seq, nil
		}
		n, ok := legacyInt(item)
		if !ok || !Direction(n).Valid() {
			return nil, &InvariantError{Op: "onStop sequence", Err: fmt.Errorf("%w: item %d (%v)", ErrUnknownDirection, i, item)}
		}
		current = Direction(n)
		expectDistance = true
	}
	if !expectDistance {
		return seq, nil
	}
	// a trailing direction turns without walking
	if len(items) > 0 {
		seq.Steps = append(seq.Steps, Move{Direction: current, Distance: 0})
	}
	return seq, nil
}

func legacyInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case Direction:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
