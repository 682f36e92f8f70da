package component

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Direction is a facing or walking direction. Even values are vertical.
type Direction int

const (
	Top Direction = iota
	Right
	Bottom
	Left
)

// Directions lists every direction in numeric order.
var Directions = [4]Direction{Top, Right, Bottom, Left}

// DirectionAliases resolves a direction named by content to the direction a
// character turns to. Every direction currently maps to itself.
var DirectionAliases = map[Direction]Direction{
	Top:    Top,
	Right:  Right,
	Bottom: Bottom,
	Left:   Left,
}

// DirectionClasses are the visual classes for each facing.
var DirectionClasses = [4]string{"up", "right", "down", "left"}

var directionNames = map[string]Direction{
	"top":    Top,
	"up":     Top,
	"right":  Right,
	"bottom": Bottom,
	"down":   Bottom,
	"left":   Left,
}

func (d Direction) Valid() bool {
	return d >= Top && d <= Left
}

// Vertical reports whether d is Top or Bottom.
func (d Direction) Vertical() bool {
	return d%2 == 0
}

func (d Direction) Class() string {
	if !d.Valid() {
		return ""
	}
	return DirectionClasses[d]
}

func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case Top:
		return "Top"
	case Right:
		return "Right"
	case Bottom:
		return "Bottom"
	case Left:
		return "Left"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Alias resolves d through DirectionAliases.
func (d Direction) Alias() (Direction, error) {
	alias, ok := DirectionAliases[d]
	if !ok {
		return 0, &InvariantError{Op: "direction alias", Err: fmt.Errorf("%w: %d", ErrUnknownDirection, int(d))}
	}
	return alias, nil
}

// ParseDirection accepts direction names case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d, ok := directionNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}

func (d *Direction) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("direction must be a scalar")
	}
	var n int
	if err := value.Decode(&n); err == nil {
		if !Direction(n).Valid() {
			return fmt.Errorf("%w: %d", ErrUnknownDirection, n)
		}
		*d = Direction(n)
		return nil
	}
	parsed, err := ParseDirection(value.Value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
