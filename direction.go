package main

import "math"

// Cardinal is the direction of the first route segment, in screen
// coordinates (y grows southwards)
type Cardinal int

const (
	East Cardinal = iota
	North
	West
	South
	Invalid
)

var cardinalNames = [...]string{"east", "north", "west", "south", "invalid"}

// glyphs used by the minimal arrow display
var cardinalGlyphs = [...]string{">", "^", "<", "v", "x"}

func (c Cardinal) String() string {
	if c < East || c > Invalid {
		return cardinalNames[Invalid]
	}
	return cardinalNames[c]
}

// Glyph returns the single-character symbol for the display. Invalid
// renders as "x", meaning no route.
func (c Cardinal) Glyph() string {
	if c < East || c > Invalid {
		return cardinalGlyphs[Invalid]
	}
	return cardinalGlyphs[c]
}

// MarshalText lets the direction travel as its name in JSON
func (c Cardinal) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText. Unknown names
// decode as Invalid.
func (c *Cardinal) UnmarshalText(text []byte) error {
	for i, name := range cardinalNames {
		if name == string(text) {
			*c = Cardinal(i)
			return nil
		}
	}
	*c = Invalid
	return nil
}

// DirectionOf derives the heading of the first segment of a route. Only a
// strictly dominant horizontal component yields East or West; ties go to the
// vertical branch. Routes with fewer than two nodes are Invalid.
func DirectionOf(route *Route) Cardinal {
	if route.Len() < 2 {
		return Invalid
	}

	dx := route.Nodes[1].X - route.Nodes[0].X
	dy := route.Nodes[1].Y - route.Nodes[0].Y

	if math.Abs(dx) > math.Abs(dy) {
		if dx > 0 {
			return East
		}
		return West
	}
	if dy > 0 {
		return South
	}
	return North
}
