package remote

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/lxzan/gws"
	"go.viam.com/test"

	"github.com/soar/retrocouch/internal/device"
)

func connect(t *testing.T, s *Source) (*gws.Conn, *client) {
	t.Helper()
	socket := new(gws.Conn)
	s.OnOpen(socket)
	c, ok := s.clients[socket]
	test.That(t, ok, test.ShouldBeTrue)
	return socket, c
}

func TestKeysAreUnioned(t *testing.T) {
	s := NewSource(golog.NewTestLogger(t), nil)
	sockA, a := connect(t, s)
	_, b := connect(t, s)
	test.That(t, s.Clients(), test.ShouldEqual, 2)

	test.That(t, s.handle(a, []byte(`{"type":"key","code":"KeyA","down":true}`)), test.ShouldBeNil)
	test.That(t, s.handle(b, []byte(`{"type":"key","code":"KeyB","down":true}`)), test.ShouldBeNil)
	test.That(t, s.KeysDown().Codes(), test.ShouldResemble, []string{"KeyA", "KeyB"})

	test.That(t, s.handle(b, []byte(`{"type":"key","code":"KeyB"}`)), test.ShouldBeNil)
	test.That(t, s.KeysDown().Codes(), test.ShouldResemble, []string{"KeyA"})

	s.OnClose(sockA, nil)
	test.That(t, len(s.KeysDown()), test.ShouldEqual, 0)
	test.That(t, s.Clients(), test.ShouldEqual, 1)
}

func TestBlurReleasesKeys(t *testing.T) {
	s := NewSource(golog.NewTestLogger(t), nil)
	_, c := connect(t, s)
	test.That(t, s.handle(c, []byte(`{"type":"key","code":"Space","down":true}`)), test.ShouldBeNil)
	test.That(t, s.handle(c, []byte(`{"type":"blur"}`)), test.ShouldBeNil)
	test.That(t, len(s.KeysDown()), test.ShouldEqual, 0)
}

func TestGamepadSnapshots(t *testing.T) {
	s := NewSource(golog.NewTestLogger(t), nil)
	sockA, a := connect(t, s)
	sockB, _ := connect(t, s)

	payload := `{"type":"gamepads","pads":[null,{"id":"pad","buttons":[{"pressed":true,"value":1}],"axes":[0.25,-1]}]}`
	test.That(t, s.handle(a, []byte(payload)), test.ShouldBeNil)

	pads := s.Gamepads()
	test.That(t, len(pads), test.ShouldEqual, 2)
	test.That(t, pads[0], test.ShouldBeNil)
	test.That(t, pads[1].ID, test.ShouldEqual, "pad")
	test.That(t, pads[1].Buttons[0].Pressed, test.ShouldBeTrue)
	test.That(t, pads[1].Axes, test.ShouldResemble, []float64{0.25, -1})

	// callers get a copy
	pads[1].Axes[0] = 9
	test.That(t, s.Gamepads()[1].Axes[0], test.ShouldEqual, 0.25)

	// another client closing leaves the snapshot alone
	s.OnClose(sockB, nil)
	test.That(t, len(s.Gamepads()), test.ShouldEqual, 2)

	s.OnClose(sockA, nil)
	test.That(t, s.Gamepads(), test.ShouldBeNil)
}

func TestEmptySnapshotKeepsOwnerPads(t *testing.T) {
	s := NewSource(golog.NewTestLogger(t), nil)
	_, owner := connect(t, s)
	_, idle := connect(t, s)

	payload := `{"type":"gamepads","pads":[{"id":"pad","buttons":[],"axes":[0.75]}]}`
	test.That(t, s.handle(owner, []byte(payload)), test.ShouldBeNil)

	// a tab without gamepads reports on connect
	test.That(t, s.handle(idle, []byte(`{"type":"gamepads","pads":[]}`)), test.ShouldBeNil)
	test.That(t, s.handle(idle, []byte(`{"type":"gamepads","pads":[null,null]}`)), test.ShouldBeNil)
	pads := s.Gamepads()
	test.That(t, len(pads), test.ShouldEqual, 1)
	test.That(t, pads[0].Axes, test.ShouldResemble, []float64{0.75})

	// the owner unplugging its last pad clears the array
	test.That(t, s.handle(owner, []byte(`{"type":"gamepads","pads":[null]}`)), test.ShouldBeNil)
	test.That(t, s.Gamepads(), test.ShouldBeNil)

	// a later non-empty report from any tab takes over
	test.That(t, s.handle(idle, []byte(payload)), test.ShouldBeNil)
	test.That(t, len(s.Gamepads()), test.ShouldEqual, 1)
}

func TestViewport(t *testing.T) {
	var gotW, gotH int
	s := NewSource(golog.NewTestLogger(t), func(w, h int) { gotW, gotH = w, h })
	_, c := connect(t, s)

	test.That(t, s.handle(c, []byte(`{"type":"viewport","width":800,"height":600}`)), test.ShouldBeNil)
	test.That(t, gotW, test.ShouldEqual, 800)
	test.That(t, gotH, test.ShouldEqual, 600)

	test.That(t, s.handle(c, []byte(`{"type":"viewport","width":0,"height":600}`)), test.ShouldNotBeNil)
}

func TestMalformedMessages(t *testing.T) {
	s := NewSource(golog.NewTestLogger(t), nil)
	_, c := connect(t, s)
	test.That(t, s.handle(c, []byte(`not json`)), test.ShouldNotBeNil)
	test.That(t, s.handle(c, []byte(`{"type":"teleport"}`)), test.ShouldNotBeNil)
	test.That(t, s.KeysDown(), test.ShouldResemble, device.KeySet{})
}
