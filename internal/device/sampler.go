package device

import "math"

const (
	// Deadzone is the magnitude at or below which an analog axis reads as 0.
	Deadzone = 0.1

	// DirectionThreshold is the magnitude an axis must exceed to count as a
	// press in one direction.
	DirectionThreshold = 0.5
)

// ApplyDeadzone returns 0 if the value is within the deadzone threshold.
func ApplyDeadzone(v float64, threshold float64) float64 {
	if math.Abs(v) <= threshold || math.IsNaN(v) {
		return 0
	}
	return v
}

// Sampler reads one Input from one device sample. Digital inputs report 1 or
// 0, analog axes report their value. Inputs that make no sense for the
// device report 0.
type Sampler interface {
	Sample(in Input) float64
}

type keyboardSampler struct {
	keys KeySet
}

// NewKeyboardSampler samples a key-down set.
func NewKeyboardSampler(keys KeySet) Sampler {
	return keyboardSampler{keys: keys}
}

func (s keyboardSampler) Sample(in Input) float64 {
	if in.Kind == InputKey && s.keys.Has(in.Code) {
		return 1
	}
	return 0
}

type gamepadSampler struct {
	pad *Gamepad
}

// NewGamepadSampler samples one gamepad. A nil gamepad samples as all zero.
func NewGamepadSampler(pad *Gamepad) Sampler {
	return gamepadSampler{pad: pad}
}

func (s gamepadSampler) Sample(in Input) float64 {
	if s.pad == nil {
		return 0
	}

	switch in.Kind {
	case InputButton:
		if in.Index < len(s.pad.Buttons) && s.pad.Buttons[in.Index].Pressed {
			return 1
		}
	case InputAxis:
		if in.Index >= len(s.pad.Axes) {
			return 0
		}
		v := s.pad.Axes[in.Index]
		switch in.Dir {
		case AxisPos:
			if v > DirectionThreshold {
				return 1
			}
		case AxisNeg:
			if v < -DirectionThreshold {
				return 1
			}
		default:
			return ApplyDeadzone(v, Deadzone)
		}
	}
	return 0
}
