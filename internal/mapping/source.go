// Package mapping translates physical inputs into actions. A Profile maps
// each action to a Source; Resolve evaluates a profile against one device
// sample.
package mapping

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/device"
)

// Source is where an action takes its value from. It is either a Digital
// or a VirtualAxis.
type Source interface {
	// Value evaluates the source against a sampler.
	Value(s device.Sampler) float64

	isSource()
}

// Digital reads one input. On a gamepad axis without direction the analog
// value passes through.
type Digital struct {
	Input device.Input
}

// Value implements Source.
func (d Digital) Value(s device.Sampler) float64 {
	return s.Sample(d.Input)
}

func (Digital) isSource() {}

// VirtualAxis synthesizes -1, 0 or 1 from two digital inputs.
type VirtualAxis struct {
	Pos device.Input
	Neg device.Input
}

// Value implements Source.
func (v VirtualAxis) Value(s device.Sampler) float64 {
	var val float64
	if s.Sample(v.Pos) != 0 {
		val++
	}
	if s.Sample(v.Neg) != 0 {
		val--
	}
	return val
}

func (VirtualAxis) isSource() {}

// D is shorthand for a Digital source parsed from an identifier.
func D(id string) Source {
	return Digital{Input: device.ParseInput(id)}
}

// V is shorthand for a VirtualAxis parsed from two identifiers.
func V(pos, neg string) Source {
	return VirtualAxis{Pos: device.ParseInput(pos), Neg: device.ParseInput(neg)}
}

// Format renders a source for display. A nil source is unmapped.
func Format(src Source) string {
	switch src := src.(type) {
	case Digital:
		return src.Input.String()
	case VirtualAxis:
		return src.Pos.String() + "/" + src.Neg.String()
	}
	return "None"
}

type virtualAxisJSON struct {
	Pos string `json:"pos"`
	Neg string `json:"neg"`
}

func marshalSource(src Source) ([]byte, error) {
	switch src := src.(type) {
	case Digital:
		return json.Marshal(src.Input.String())
	case VirtualAxis:
		return json.Marshal(virtualAxisJSON{Pos: src.Pos.String(), Neg: src.Neg.String()})
	}
	return nil, errors.Errorf("cannot marshal source %T", src)
}

// parseSource reads the JSON form of a source: a string, or an object with
// pos and neg members.
func parseSource(data []byte) (Source, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty source")
	}

	switch data[0] {
	case '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return nil, errors.Wrap(err, "digital source")
		}
		return D(id), nil
	case '{':
		var va virtualAxisJSON
		if err := json.Unmarshal(data, &va); err != nil {
			return nil, errors.Wrap(err, "virtual axis source")
		}
		return V(va.Pos, va.Neg), nil
	}
	return nil, errors.Errorf("source must be a string or an object, got %s", data)
}
