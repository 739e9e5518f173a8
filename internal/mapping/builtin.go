package mapping

import (
	"sort"

	"github.com/soar/retrocouch/internal/action"
)

// Built-in profile ids.
const (
	DefaultKeyboard = "default-keyboard"
	DefaultGamepad  = "default-gamepad"
	SNESGamepad     = "snes-gamepad"
)

var defaultKeyboard = Profile{
	Name:      "Default Keyboard",
	IsDefault: true,
	Mapping: Mapping{
		action.ActionSouth: D("Space"),
		action.ActionEast:  D("KeyE"),
		action.ActionWest:  D("KeyQ"),
		action.ActionNorth: D("ShiftLeft"),
		action.LeftStickX:  V("KeyD", "KeyA"),
		action.LeftStickY:  V("KeyS", "KeyW"),
		action.DpadUp:      D("ArrowUp"),
		action.DpadDown:    D("ArrowDown"),
		action.DpadLeft:    D("ArrowLeft"),
		action.DpadRight:   D("ArrowRight"),
		action.Start:       D("Enter"),
		action.Select:      D("Escape"),
	},
}

// standard gamepad layout: face 0-3, shoulders 4-7, select/start 8-9,
// stick presses 10-11, d-pad 12-15, sticks on axes 0-3
var defaultGamepad = Profile{
	Name:      "Standard Gamepad",
	IsDefault: true,
	Mapping: Mapping{
		action.ActionSouth:     D("button-0"),
		action.ActionEast:      D("button-1"),
		action.ActionWest:      D("button-2"),
		action.ActionNorth:     D("button-3"),
		action.LeftBumper:      D("button-4"),
		action.RightBumper:     D("button-5"),
		action.LeftTrigger:     D("button-6"),
		action.RightTrigger:    D("button-7"),
		action.Select:          D("button-8"),
		action.Start:           D("button-9"),
		action.LeftStickPress:  D("button-10"),
		action.RightStickPress: D("button-11"),
		action.DpadUp:          D("button-12"),
		action.DpadDown:        D("button-13"),
		action.DpadLeft:        D("button-14"),
		action.DpadRight:       D("button-15"),
		action.LeftStickX:      D("axis-0"),
		action.LeftStickY:      D("axis-1"),
		action.RightStickX:     D("axis-2"),
		action.RightStickY:     D("axis-3"),
	},
}

var snesGamepad = Profile{
	Name:      "Retro SNES",
	IsDefault: true,
	Mapping: Mapping{
		action.ActionSouth: D("button-0"), // B
		action.ActionEast:  D("button-1"), // A
		action.ActionWest:  D("button-2"), // Y
		action.ActionNorth: D("button-3"), // X
		action.LeftBumper:  D("button-4"), // L
		action.RightBumper: D("button-5"), // R
		action.Select:      D("button-8"),
		action.Start:       D("button-9"),
		action.DpadUp:      D("button-12"),
		action.DpadDown:    D("button-13"),
		action.DpadLeft:    D("button-14"),
		action.DpadRight:   D("button-15"),
		// the d-pad doubles as the left stick for games that want one
		action.LeftStickX: V("button-15", "button-14"),
		action.LeftStickY: V("button-13", "button-12"),
	},
}

var builtins = map[string]Profile{
	DefaultKeyboard: defaultKeyboard,
	DefaultGamepad:  defaultGamepad,
	SNESGamepad:     snesGamepad,
}

// Builtins returns fresh copies of the built-in profiles, keyed by id.
func Builtins() map[string]Profile {
	out := make(map[string]Profile, len(builtins))
	for id, p := range builtins {
		out[id] = p.Clone()
	}
	return out
}

// IsBuiltin reports whether id names a built-in profile.
func IsBuiltin(id string) bool {
	_, ok := builtins[id]
	return ok
}

// BuiltinIDs lists the built-in ids sorted.
func BuiltinIDs() []string {
	ids := make([]string, 0, len(builtins))
	for id := range builtins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
