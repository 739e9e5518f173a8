// Package device models the raw physical sources a player can use: a
// keyboard key-down set and an array of polled gamepads, together with the
// identifiers that address a single key, button or axis on them.
package device

import (
	"fmt"
	"strconv"
	"strings"
)

// InputKind tags what an Input addresses.
type InputKind uint8

const (
	InputInvalid InputKind = iota
	InputKey
	InputButton
	InputAxis
)

// AxisDirection selects how an axis is read. AxisAnalog passes the value
// through, AxisPos and AxisNeg turn the axis into a boolean.
type AxisDirection uint8

const (
	AxisAnalog AxisDirection = iota
	AxisPos
	AxisNeg
)

const (
	buttonPrefix = "button-"
	axisPrefix   = "axis-"
)

// Input is a parsed physical identifier: a keyboard code ("KeyD"), a gamepad
// button ("button-3"), an analog axis ("axis-0") or one direction of an axis
// ("axis-1-neg").
type Input struct {
	Kind  InputKind
	Code  string
	Index int
	Dir   AxisDirection

	// raw is the text the input was parsed from, kept so that invalid
	// identifiers survive a save.
	raw string
}

// Key returns the Input for a keyboard code.
func Key(code string) Input {
	return ParseInput(code)
}

// ButtonInput returns the Input for a gamepad button index.
func ButtonInput(index int) Input {
	return Input{Kind: InputButton, Index: index}
}

// AxisInput returns the Input for a gamepad axis read in the given direction.
func AxisInput(index int, dir AxisDirection) Input {
	return Input{Kind: InputAxis, Index: index, Dir: dir}
}

// ParseInput parses an identifier. Anything that starts like a button or axis
// identifier but is malformed, and the empty string, yields an invalid input
// which always samples as zero.
func ParseInput(s string) Input {
	in := Input{raw: s}

	switch {
	case s == "":
		return in

	case strings.HasPrefix(s, buttonPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(s, buttonPrefix))
		if err != nil || idx < 0 {
			return in
		}
		in.Kind = InputButton
		in.Index = idx

	case strings.HasPrefix(s, axisPrefix):
		parts := strings.Split(strings.TrimPrefix(s, axisPrefix), "-")
		idx, err := strconv.Atoi(parts[0])
		if err != nil || idx < 0 {
			return in
		}
		switch {
		case len(parts) == 1:
			in.Dir = AxisAnalog
		case len(parts) == 2 && parts[1] == "pos":
			in.Dir = AxisPos
		case len(parts) == 2 && parts[1] == "neg":
			in.Dir = AxisNeg
		default:
			return in
		}
		in.Kind = InputAxis
		in.Index = idx

	default:
		in.Kind = InputKey
		in.Code = s
	}

	return in
}

// Valid reports whether the identifier addresses anything.
func (in Input) Valid() bool {
	return in.Kind != InputInvalid
}

// Equal compares two inputs by what they address.
func (in Input) Equal(other Input) bool {
	return in.String() == other.String()
}

func (in Input) String() string {
	switch in.Kind {
	case InputKey:
		return in.Code
	case InputButton:
		return fmt.Sprintf("%s%d", buttonPrefix, in.Index)
	case InputAxis:
		switch in.Dir {
		case AxisPos:
			return fmt.Sprintf("%s%d-pos", axisPrefix, in.Index)
		case AxisNeg:
			return fmt.Sprintf("%s%d-neg", axisPrefix, in.Index)
		}
		return fmt.Sprintf("%s%d", axisPrefix, in.Index)
	}
	return in.raw
}
