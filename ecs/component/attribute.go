package component

// Attribute names a numeric Thing field that fades can drive.
type Attribute int

const (
	AttributeOpacity Attribute = iota
	AttributeOffsetX
	AttributeOffsetY
)

func (a Attribute) Get(t *Thing) float64 {
	switch a {
	case AttributeOpacity:
		return t.Opacity
	case AttributeOffsetX:
		return t.OffsetX
	case AttributeOffsetY:
		return t.OffsetY
	}
	return 0
}

func (a Attribute) Set(t *Thing, v float64) {
	switch a {
	case AttributeOpacity:
		t.Opacity = v
	case AttributeOffsetX:
		t.OffsetX = v
	case AttributeOffsetY:
		t.OffsetY = v
	}
}

func (a Attribute) String() string {
	switch a {
	case AttributeOpacity:
		return "opacity"
	case AttributeOffsetX:
		return "offsetX"
	case AttributeOffsetY:
		return "offsetY"
	}
	return "unknown"
}
