// Package gamepad maps raw joystick readings onto the standard gamepad
// layout used by browsers, so native and browser gamepads sample alike.
package gamepad

import (
	"math"

	"github.com/soar/retrocouch/internal/device"
)

// Standard layout, the same order browsers use for mapping "standard".
const (
	ButtonSouth = iota
	ButtonEast
	ButtonWest
	ButtonNorth
	ButtonLB
	ButtonRB
	ButtonLT
	ButtonRT
	ButtonSelect
	ButtonStart
	ButtonL3
	ButtonR3
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonHome

	NumButtons
)

const (
	AxisLeftX = iota
	AxisLeftY
	AxisRightX
	AxisRightY

	NumAxes
)

// triggerPressed is the trigger travel at which the trigger button counts
// as pressed.
const triggerPressed = 0.1

// AxisMapping defines how a raw axis index maps to the standard layout. A
// trigger axis feeds a button; any other axis feeds a standard axis.
type AxisMapping struct {
	Index     int32
	Target    int
	IsTrigger bool
	// For triggers: raw range. Some devices use -32768..32767, others 0..32767.
	RawMin int16
	RawMax int16
}

// ButtonMapping maps a raw button index to a standard button.
type ButtonMapping struct {
	Index  int32
	Target int
}

// DeviceMapping holds the complete mapping for a specific device type.
type DeviceMapping struct {
	Name    string
	Axes    []AxisMapping
	Buttons []ButtonMapping
	HasHat  bool
}

// NormalizeAxis converts a raw axis value (-32768..32767) to -1.0..1.0.
func NormalizeAxis(raw int16) float64 {
	v := float64(raw) / math.MaxInt16
	if v < -1.0 {
		v = -1.0
	}
	return v
}

// NormalizeTrigger converts a raw trigger value to 0.0..1.0.
func NormalizeTrigger(raw int16, rawMin, rawMax int16) float64 {
	if rawMax == rawMin {
		return 0
	}
	v := (float64(raw) - float64(rawMin)) / (float64(rawMax) - float64(rawMin))
	return math.Max(0, math.Min(1, v))
}

// Hat bits.
const (
	HatUp    uint8 = 0x01
	HatRight uint8 = 0x02
	HatDown  uint8 = 0x04
	HatLeft  uint8 = 0x08
)

// RawSample is one poll of a joystick before mapping.
type RawSample struct {
	Axes    []int16
	Buttons []bool
	Hat     uint8
	HasHat  bool
}

// Standardize maps a raw poll onto the standard layout. Axis values are not
// dead-zoned here; that is left to whoever reads them.
func Standardize(name string, m *DeviceMapping, raw RawSample) *device.Gamepad {
	pad := &device.Gamepad{
		ID:      name,
		Buttons: make([]device.Button, NumButtons),
		Axes:    make([]float64, NumAxes),
	}

	for _, am := range m.Axes {
		if int(am.Index) >= len(raw.Axes) {
			continue
		}
		v := raw.Axes[am.Index]
		if am.IsTrigger {
			if am.Target < 0 || am.Target >= NumButtons {
				continue
			}
			t := NormalizeTrigger(v, am.RawMin, am.RawMax)
			pad.Buttons[am.Target] = device.Button{Pressed: t > triggerPressed, Value: t}
			continue
		}
		if am.Target >= 0 && am.Target < NumAxes {
			pad.Axes[am.Target] = NormalizeAxis(v)
		}
	}

	for _, bm := range m.Buttons {
		if int(bm.Index) >= len(raw.Buttons) || bm.Target < 0 || bm.Target >= NumButtons {
			continue
		}
		if raw.Buttons[bm.Index] {
			pad.Buttons[bm.Target] = device.Button{Pressed: true, Value: 1}
		}
	}

	if m.HasHat && raw.HasHat {
		press := func(target int, bit uint8) {
			if raw.Hat&bit != 0 {
				pad.Buttons[target] = device.Button{Pressed: true, Value: 1}
			}
		}
		press(ButtonUp, HatUp)
		press(ButtonRight, HatRight)
		press(ButtonDown, HatDown)
		press(ButtonLeft, HatLeft)
	}

	return pad
}

// Built-in mappings for common controllers.

var sticksAndTriggers = []AxisMapping{
	{Index: 0, Target: AxisLeftX},
	{Index: 1, Target: AxisLeftY},
	{Index: 2, Target: AxisRightX},
	{Index: 3, Target: AxisRightY},
	{Index: 4, Target: ButtonLT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
	{Index: 5, Target: ButtonRT, IsTrigger: true, RawMin: -32768, RawMax: 32767},
}

var xboxMapping = &DeviceMapping{
	Name: "xbox",
	Axes: sticksAndTriggers,
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonSouth},
		{Index: 1, Target: ButtonEast},
		{Index: 2, Target: ButtonWest},
		{Index: 3, Target: ButtonNorth},
		{Index: 4, Target: ButtonLB},
		{Index: 5, Target: ButtonRB},
		{Index: 6, Target: ButtonSelect},
		{Index: 7, Target: ButtonStart},
		{Index: 8, Target: ButtonL3},
		{Index: 9, Target: ButtonR3},
		{Index: 10, Target: ButtonHome},
	},
	HasHat: true,
}

var playstationMapping = &DeviceMapping{
	Name: "playstation",
	Axes: sticksAndTriggers,
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonSouth},  // Cross
		{Index: 1, Target: ButtonEast},   // Circle
		{Index: 2, Target: ButtonWest},   // Square
		{Index: 3, Target: ButtonNorth},  // Triangle
		{Index: 4, Target: ButtonSelect}, // Share / Create
		{Index: 5, Target: ButtonHome},   // PS button
		{Index: 6, Target: ButtonStart},  // Options
		{Index: 7, Target: ButtonL3},
		{Index: 8, Target: ButtonR3},
		{Index: 9, Target: ButtonLB},  // L1
		{Index: 10, Target: ButtonRB}, // R1
	},
	HasHat: true,
}

var switchProMapping = &DeviceMapping{
	Name: "switch_pro",
	Axes: sticksAndTriggers[:4],
	Buttons: []ButtonMapping{
		{Index: 0, Target: ButtonSouth},
		{Index: 1, Target: ButtonEast},
		{Index: 2, Target: ButtonWest},
		{Index: 3, Target: ButtonNorth},
		{Index: 4, Target: ButtonLB},
		{Index: 5, Target: ButtonRB},
		{Index: 6, Target: ButtonSelect},
		{Index: 7, Target: ButtonStart},
		{Index: 8, Target: ButtonL3},
		{Index: 9, Target: ButtonR3},
		{Index: 10, Target: ButtonHome},
		{Index: 11, Target: ButtonLT}, // ZL
		{Index: 12, Target: ButtonRT}, // ZR
	},
	HasHat: true,
}

var genericMapping = &DeviceMapping{
	Name:    "generic",
	Axes:    sticksAndTriggers,
	Buttons: xboxMapping.Buttons,
	HasHat:  true,
}

// Known vendor/product IDs.
type deviceKey struct {
	VendorID  uint16
	ProductID uint16
}

var knownDevices = map[deviceKey]*DeviceMapping{
	// Microsoft Xbox controllers
	{0x045E, 0x028E}: xboxMapping, // Xbox 360
	{0x045E, 0x02FF}: xboxMapping, // Xbox One
	{0x045E, 0x0B12}: xboxMapping, // Xbox Series X|S
	{0x045E, 0x0B13}: xboxMapping, // Xbox Series X|S (wireless)
	// Sony PlayStation controllers
	{0x054C, 0x0CE6}: playstationMapping, // DualSense
	{0x054C, 0x09CC}: playstationMapping, // DualShock 4 v2
	{0x054C, 0x05C4}: playstationMapping, // DualShock 4 v1
	// Nintendo Switch Pro Controller
	{0x057E, 0x2009}: switchProMapping,
}

// GetMapping returns the appropriate mapping for a device identified by vendor/product ID.
// Falls back to generic mapping if no specific mapping is found.
func GetMapping(vendorID, productID uint16) *DeviceMapping {
	key := deviceKey{VendorID: vendorID, ProductID: productID}
	if m, ok := knownDevices[key]; ok {
		return m
	}
	return genericMapping
}

// Place puts v in the lowest nil index of slots, growing the slice when
// every index is taken, and returns that index.
func Place[T any](slots *[]*T, v *T) int {
	for i, s := range *slots {
		if s == nil {
			(*slots)[i] = v
			return i
		}
	}
	*slots = append(*slots, v)
	return len(*slots) - 1
}
