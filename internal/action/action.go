// Package action defines the standardized per-player input vocabulary that
// game modules consume, independent of the physical device behind it.
package action

// Action names one member of the per-player input vocabulary.
type Action string

// Kind tells whether an action carries a boolean or a numeric value.
type Kind uint8

const (
	Button Kind = iota
	Axis
)

// Actions, in canonical order.
const (
	// Face buttons.
	ActionSouth Action = "actionSouth"
	ActionEast  Action = "actionEast"
	ActionWest  Action = "actionWest"
	ActionNorth Action = "actionNorth"

	// Shoulder buttons.
	LeftBumper   Action = "leftBumper"
	RightBumper  Action = "rightBumper"
	LeftTrigger  Action = "leftTrigger"
	RightTrigger Action = "rightTrigger"

	// Special buttons.
	Select          Action = "select"
	Start           Action = "start"
	LeftStickPress  Action = "leftStickPress"
	RightStickPress Action = "rightStickPress"

	// D-pad.
	DpadUp    Action = "dpadUp"
	DpadDown  Action = "dpadDown"
	DpadLeft  Action = "dpadLeft"
	DpadRight Action = "dpadRight"

	// Analog sticks, -1.0 to 1.0.
	LeftStickX  Action = "leftStickX"
	LeftStickY  Action = "leftStickY"
	RightStickX Action = "rightStickX"
	RightStickY Action = "rightStickY"
)

// All lists every action in canonical order.
var All = []Action{
	ActionSouth, ActionEast, ActionWest, ActionNorth,
	LeftBumper, RightBumper, LeftTrigger, RightTrigger,
	Select, Start, LeftStickPress, RightStickPress,
	DpadUp, DpadDown, DpadLeft, DpadRight,
	LeftStickX, LeftStickY, RightStickX, RightStickY,
}

var kinds = func() map[Action]Kind {
	m := make(map[Action]Kind, len(All))
	for _, a := range All {
		m[a] = Button
	}
	m[LeftStickX] = Axis
	m[LeftStickY] = Axis
	m[RightStickX] = Axis
	m[RightStickY] = Axis
	return m
}()

// Kind returns the value kind of the action. Unknown actions report Button.
func (a Action) Kind() Kind {
	return kinds[a]
}

// Valid reports whether a is part of the vocabulary.
func (a Action) Valid() bool {
	_, ok := kinds[a]
	return ok
}

// Parse converts a name into an Action.
func Parse(name string) (Action, bool) {
	a := Action(name)
	return a, a.Valid()
}
