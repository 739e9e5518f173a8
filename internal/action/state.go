package action

import "math"

// State is the snapshot of every action for one player at one frame. The
// zero value is the neutral state.
type State struct {
	ActionSouth bool `json:"actionSouth"`
	ActionEast  bool `json:"actionEast"`
	ActionWest  bool `json:"actionWest"`
	ActionNorth bool `json:"actionNorth"`

	LeftBumper   bool `json:"leftBumper"`
	RightBumper  bool `json:"rightBumper"`
	LeftTrigger  bool `json:"leftTrigger"`
	RightTrigger bool `json:"rightTrigger"`

	Select          bool `json:"select"`
	Start           bool `json:"start"`
	LeftStickPress  bool `json:"leftStickPress"`
	RightStickPress bool `json:"rightStickPress"`

	DpadUp    bool `json:"dpadUp"`
	DpadDown  bool `json:"dpadDown"`
	DpadLeft  bool `json:"dpadLeft"`
	DpadRight bool `json:"dpadRight"`

	LeftStickX  float64 `json:"leftStickX"`
	LeftStickY  float64 `json:"leftStickY"`
	RightStickX float64 `json:"rightStickX"`
	RightStickY float64 `json:"rightStickY"`
}

// Neutral returns the all-default state.
func Neutral() State {
	return State{}
}

func (s *State) button(a Action) *bool {
	switch a {
	case ActionSouth:
		return &s.ActionSouth
	case ActionEast:
		return &s.ActionEast
	case ActionWest:
		return &s.ActionWest
	case ActionNorth:
		return &s.ActionNorth
	case LeftBumper:
		return &s.LeftBumper
	case RightBumper:
		return &s.RightBumper
	case LeftTrigger:
		return &s.LeftTrigger
	case RightTrigger:
		return &s.RightTrigger
	case Select:
		return &s.Select
	case Start:
		return &s.Start
	case LeftStickPress:
		return &s.LeftStickPress
	case RightStickPress:
		return &s.RightStickPress
	case DpadUp:
		return &s.DpadUp
	case DpadDown:
		return &s.DpadDown
	case DpadLeft:
		return &s.DpadLeft
	case DpadRight:
		return &s.DpadRight
	}
	return nil
}

func (s *State) axis(a Action) *float64 {
	switch a {
	case LeftStickX:
		return &s.LeftStickX
	case LeftStickY:
		return &s.LeftStickY
	case RightStickX:
		return &s.RightStickX
	case RightStickY:
		return &s.RightStickY
	}
	return nil
}

// Pressed returns the boolean value of a button action. Axis and unknown
// actions report false.
func (s State) Pressed(a Action) bool {
	if p := s.button(a); p != nil {
		return *p
	}
	return false
}

// Value returns the numeric value of an action. Buttons report 1 when
// pressed, unknown actions report 0.
func (s State) Value(a Action) float64 {
	if p := s.axis(a); p != nil {
		return *p
	}
	if s.Pressed(a) {
		return 1
	}
	return 0
}

// SetPressed sets a button action. Other actions are ignored.
func (s *State) SetPressed(a Action, v bool) {
	if p := s.button(a); p != nil {
		*p = v
	}
}

// SetValue sets an axis action, clamped to [-1, 1]. NaN is stored as 0.
// Button actions are set to v != 0.
func (s *State) SetValue(a Action, v float64) {
	if p := s.axis(a); p != nil {
		*p = clamp(v)
		return
	}
	s.SetPressed(a, v != 0 && !math.IsNaN(v))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
