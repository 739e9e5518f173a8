package device

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// KeySet is the set of keyboard codes currently held down.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from codes.
func NewKeySet(codes ...string) KeySet {
	ks := make(KeySet, len(codes))
	for _, c := range codes {
		ks[c] = struct{}{}
	}
	return ks
}

// Has reports whether code is down.
func (ks KeySet) Has(code string) bool {
	_, ok := ks[code]
	return ok
}

// Codes returns the down codes sorted.
func (ks KeySet) Codes() []string {
	codes := make([]string, 0, len(ks))
	for c := range ks {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Button is one gamepad button reading.
type Button struct {
	Pressed bool    `json:"pressed"`
	Value   float64 `json:"value"`
}

// Gamepad is one polled gamepad: ordered buttons and ordered axes.
type Gamepad struct {
	ID      string    `json:"id"`
	Buttons []Button  `json:"buttons"`
	Axes    []float64 `json:"axes"`
}

// Clone returns a deep copy.
func (g *Gamepad) Clone() *Gamepad {
	if g == nil {
		return nil
	}
	c := &Gamepad{ID: g.ID}
	c.Buttons = append([]Button(nil), g.Buttons...)
	c.Axes = append([]float64(nil), g.Axes...)
	return c
}

// ClonePads deep copies a gamepad array, keeping nil holes.
func ClonePads(pads []*Gamepad) []*Gamepad {
	if pads == nil {
		return nil
	}
	out := make([]*Gamepad, len(pads))
	for i, p := range pads {
		out[i] = p.Clone()
	}
	return out
}

// KeyboardSource yields the keyboard key-down set. Implementations must
// return a set the caller may keep.
type KeyboardSource interface {
	KeysDown() KeySet
}

// GamepadSource yields the current array of gamepads. A nil entry is a
// disconnected gamepad at that index. Implementations must return a copy.
type GamepadSource interface {
	Gamepads() []*Gamepad
}

// NoGamepads is a GamepadSource with nothing connected.
type NoGamepads struct{}

// Gamepads always returns nil.
func (NoGamepads) Gamepads() []*Gamepad {
	return nil
}

// RefKind tags a device reference.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefKeyboard
	RefGamepad
)

// Ref identifies the device assigned to a player.
type Ref struct {
	Kind  RefKind
	Index int
}

// None is the unassigned device.
var None = Ref{}

// Keyboard is the keyboard device reference.
var Keyboard = Ref{Kind: RefKeyboard}

// GamepadRef returns the reference to the gamepad at index.
func GamepadRef(index int) Ref {
	return Ref{Kind: RefGamepad, Index: index}
}

const gamepadRefPrefix = "gamepad-"

// ParseRef parses "", "keyboard" or "gamepad-N".
func ParseRef(s string) (Ref, error) {
	switch {
	case s == "":
		return None, nil
	case s == "keyboard":
		return Keyboard, nil
	case strings.HasPrefix(s, gamepadRefPrefix):
		idx, err := strconv.Atoi(strings.TrimPrefix(s, gamepadRefPrefix))
		if err != nil || idx < 0 {
			return None, errors.Errorf("invalid gamepad reference %q", s)
		}
		return GamepadRef(idx), nil
	}
	return None, errors.Errorf("unknown device %q", s)
}

func (r Ref) String() string {
	switch r.Kind {
	case RefKeyboard:
		return "keyboard"
	case RefGamepad:
		return fmt.Sprintf("%s%d", gamepadRefPrefix, r.Index)
	}
	return ""
}

// MarshalText implements encoding.TextMarshaler.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Ref) UnmarshalText(text []byte) error {
	ref, err := ParseRef(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}
