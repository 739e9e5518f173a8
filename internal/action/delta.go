package action

import "math"

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

// Delta holds the actions whose value changed between two states, keyed by
// action name. Buttons map to bool, axes to float64.
type Delta map[Action]any

// IsEmpty reports whether nothing changed.
func (d Delta) IsEmpty() bool {
	return len(d) == 0
}

// ComputeDelta compares two states. Axis movements smaller than the analog
// threshold are not reported.
func ComputeDelta(old, new_ State) Delta {
	d := Delta{}
	for _, a := range All {
		if a.Kind() == Axis {
			if !floatEqual(old.Value(a), new_.Value(a)) {
				d[a] = new_.Value(a)
			}
			continue
		}
		if old.Pressed(a) != new_.Pressed(a) {
			d[a] = new_.Pressed(a)
		}
	}
	return d
}
