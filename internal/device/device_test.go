package device

import (
	"encoding/json"
	"testing"

	"go.viam.com/test"
)

func TestParseInput(t *testing.T) {
	for _, tc := range []struct {
		raw   string
		kind  InputKind
		index int
		dir   AxisDirection
	}{
		{"KeyD", InputKey, 0, AxisAnalog},
		{"Space", InputKey, 0, AxisAnalog},
		{"button-0", InputButton, 0, AxisAnalog},
		{"button-15", InputButton, 15, AxisAnalog},
		{"axis-2", InputAxis, 2, AxisAnalog},
		{"axis-1-pos", InputAxis, 1, AxisPos},
		{"axis-3-neg", InputAxis, 3, AxisNeg},
		{"", InputInvalid, 0, AxisAnalog},
		{"button-", InputInvalid, 0, AxisAnalog},
		{"button-x", InputInvalid, 0, AxisAnalog},
		{"button--1", InputInvalid, 0, AxisAnalog},
		{"axis-1-up", InputInvalid, 0, AxisAnalog},
		{"axis-1-pos-neg", InputInvalid, 0, AxisAnalog},
		{"axis-", InputInvalid, 0, AxisAnalog},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			in := ParseInput(tc.raw)
			test.That(t, in.Kind, test.ShouldEqual, tc.kind)
			test.That(t, in.Index, test.ShouldEqual, tc.index)
			test.That(t, in.Dir, test.ShouldEqual, tc.dir)
			// identifiers survive a round trip, even invalid ones
			test.That(t, in.String(), test.ShouldEqual, tc.raw)
		})
	}

	test.That(t, ButtonInput(4).String(), test.ShouldEqual, "button-4")
	test.That(t, AxisInput(1, AxisNeg).Equal(ParseInput("axis-1-neg")), test.ShouldBeTrue)
}

func TestKeyboardSampler(t *testing.T) {
	s := NewKeyboardSampler(NewKeySet("KeyD", "Space"))
	test.That(t, s.Sample(Key("KeyD")), test.ShouldEqual, 1.0)
	test.That(t, s.Sample(Key("KeyA")), test.ShouldEqual, 0.0)
	test.That(t, s.Sample(ButtonInput(0)), test.ShouldEqual, 0.0)
	test.That(t, s.Sample(ParseInput("axis-x")), test.ShouldEqual, 0.0)
}

func TestGamepadSampler(t *testing.T) {
	pad := &Gamepad{
		Buttons: []Button{{Pressed: true, Value: 1}, {}},
		Axes:    []float64{0.1, 0.1000001, -0.1, 0.5, 0.50001, -0.5, -0.50001},
	}
	s := NewGamepadSampler(pad)

	t.Run("buttons", func(t *testing.T) {
		test.That(t, s.Sample(ButtonInput(0)), test.ShouldEqual, 1.0)
		test.That(t, s.Sample(ButtonInput(1)), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(ButtonInput(40)), test.ShouldEqual, 0.0)
	})

	t.Run("deadzone", func(t *testing.T) {
		test.That(t, s.Sample(AxisInput(0, AxisAnalog)), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(AxisInput(1, AxisAnalog)), test.ShouldEqual, 0.1000001)
		test.That(t, s.Sample(AxisInput(2, AxisAnalog)), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(AxisInput(9, AxisAnalog)), test.ShouldEqual, 0.0)
	})

	t.Run("directions", func(t *testing.T) {
		test.That(t, s.Sample(AxisInput(3, AxisPos)), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(AxisInput(4, AxisPos)), test.ShouldEqual, 1.0)
		test.That(t, s.Sample(AxisInput(5, AxisNeg)), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(AxisInput(6, AxisNeg)), test.ShouldEqual, 1.0)
		test.That(t, s.Sample(AxisInput(6, AxisPos)), test.ShouldEqual, 0.0)
	})

	t.Run("foreign inputs", func(t *testing.T) {
		test.That(t, s.Sample(Key("KeyD")), test.ShouldEqual, 0.0)
		test.That(t, s.Sample(ParseInput("button-q")), test.ShouldEqual, 0.0)
	})

	test.That(t, NewGamepadSampler(nil).Sample(ButtonInput(0)), test.ShouldEqual, 0.0)
}

func TestKeyTracker(t *testing.T) {
	k := NewKeyTracker()
	k.Set("KeyA", true)
	k.Set("KeyD", true)
	k.Set("KeyA", false)
	k.Set("", true)

	keys := k.KeysDown()
	test.That(t, keys.Codes(), test.ShouldResemble, []string{"KeyD"})

	// the returned set is a copy
	keys["KeyW"] = struct{}{}
	test.That(t, k.KeysDown().Has("KeyW"), test.ShouldBeFalse)

	k.Reset()
	test.That(t, k.KeysDown(), test.ShouldBeEmpty)
}

func TestRef(t *testing.T) {
	for _, s := range []string{"", "keyboard", "gamepad-0", "gamepad-3"} {
		ref, err := ParseRef(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ref.String(), test.ShouldEqual, s)
	}
	for _, s := range []string{"mouse", "gamepad-", "gamepad--2", "gamepad-one"} {
		_, err := ParseRef(s)
		test.That(t, err, test.ShouldNotBeNil)
	}

	var holder struct {
		Device Ref `json:"device"`
	}
	test.That(t, json.Unmarshal([]byte(`{"device":"gamepad-2"}`), &holder), test.ShouldBeNil)
	test.That(t, holder.Device, test.ShouldResemble, GamepadRef(2))
}

func TestClonePads(t *testing.T) {
	pads := []*Gamepad{nil, {ID: "pad", Axes: []float64{0.5}}}
	c := ClonePads(pads)
	test.That(t, c[0], test.ShouldBeNil)
	c[1].Axes[0] = 1
	test.That(t, pads[1].Axes[0], test.ShouldEqual, 0.5)
}
