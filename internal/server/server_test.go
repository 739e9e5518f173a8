package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/game"
	"github.com/soar/retrocouch/internal/game/inputtester"
	"github.com/soar/retrocouch/internal/hub"
	"github.com/soar/retrocouch/internal/loop"
	"github.com/soar/retrocouch/internal/remap"
	"github.com/soar/retrocouch/internal/store"
)

type harness struct {
	keys   *device.KeyTracker
	loop   *loop.Loop
	srv    *Server
	server *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := golog.NewTestLogger(t)
	keys := device.NewKeyTracker()
	system := controller.New(logger, store.NewMemory(), keys, nil)
	system.Initialize()
	host := game.NewHost(logger, game.NewRegistry(
		inputtester.Entry(),
		game.Entry{ID: "neon-runner", Title: "Neon Runner", Status: "Coming Soon"},
	), system, 400, 300)
	l := loop.New(logger, clock.New(), 500, system, remap.NewCapturer(), host)

	h := hub.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	go h.Run(ctx)

	s := New(Options{
		Logger:      logger,
		Loop:        l,
		System:      system,
		Host:        host,
		Hub:         h,
		Broadcaster: hub.NewBroadcaster(h, nil, l.States()),
		Frontend: fstest.MapFS{
			"index.html": {Data: []byte("<html>\n  <body>\n    <p>  hello  </p>\n  </body>\n</html>\n")},
		},
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return &harness{keys: keys, loop: l, srv: s, server: ts}
}

func (h *harness) call(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, r)
	test.That(t, err, test.ShouldBeNil)
	resp, err := http.DefaultClient.Do(req)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	return resp.StatusCode, data
}

func TestSlots(t *testing.T) {
	h := newHarness(t)

	code, data := h.call(t, http.MethodGet, "/api/slots", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var slots []controller.SlotInfo
	test.That(t, json.Unmarshal(data, &slots), test.ShouldBeNil)
	test.That(t, len(slots), test.ShouldEqual, controller.MaxPlayers)
	test.That(t, slots[0].Device, test.ShouldResemble, device.Keyboard)

	code, data = h.call(t, http.MethodPut, "/api/slots/1", `{"name":"Bob","device":"gamepad-0","profileId":"snes-gamepad"}`)
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var info controller.SlotInfo
	test.That(t, json.Unmarshal(data, &info), test.ShouldBeNil)
	test.That(t, info.Name, test.ShouldEqual, "Bob")
	test.That(t, info.Device, test.ShouldResemble, device.GamepadRef(0))
	test.That(t, info.ProfileID, test.ShouldEqual, "snes-gamepad")

	code, _ = h.call(t, http.MethodPut, "/api/slots/9", `{"name":"x"}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	code, _ = h.call(t, http.MethodPut, "/api/slots/one", `{}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	code, _ = h.call(t, http.MethodPut, "/api/slots/0", `{"device":"joystick"}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	code, _ = h.call(t, http.MethodPut, "/api/slots/0", `{"name":"  "}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
}

func TestProfiles(t *testing.T) {
	h := newHarness(t)

	code, data := h.call(t, http.MethodPost, "/api/profiles", `{"name":"Mine","mapping":{"actionSouth":"KeyK"}}`)
	test.That(t, code, test.ShouldEqual, http.StatusCreated)
	var created profileView
	test.That(t, json.Unmarshal(data, &created), test.ShouldBeNil)
	test.That(t, strings.HasPrefix(created.ID, "custom-"), test.ShouldBeTrue)
	test.That(t, created.Builtin, test.ShouldBeFalse)

	code, data = h.call(t, http.MethodGet, "/api/profiles", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var list []profileView
	test.That(t, json.Unmarshal(data, &list), test.ShouldBeNil)
	test.That(t, len(list), test.ShouldEqual, 4)
	test.That(t, list[0].Builtin, test.ShouldBeTrue)
	test.That(t, list[3].ID, test.ShouldEqual, created.ID)

	code, _ = h.call(t, http.MethodPut, "/api/profiles/"+created.ID, `{"name":""}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	code, _ = h.call(t, http.MethodPut, "/api/profiles/default-keyboard", `{"name":"Hijack"}`)
	test.That(t, code, test.ShouldEqual, http.StatusConflict)
	code, _ = h.call(t, http.MethodPost, "/api/profiles", `{"name":`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)

	code, _ = h.call(t, http.MethodDelete, "/api/profiles/"+created.ID, "")
	test.That(t, code, test.ShouldEqual, http.StatusNoContent)
	code, _ = h.call(t, http.MethodDelete, "/api/profiles/"+created.ID, "")
	test.That(t, code, test.ShouldEqual, http.StatusNotFound)
	code, _ = h.call(t, http.MethodDelete, "/api/profiles/default-gamepad", "")
	test.That(t, code, test.ShouldEqual, http.StatusConflict)
}

func waitForCapture(t *testing.T, l *loop.Loop) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var active bool
		err := l.Do(context.Background(), func() error {
			active = l.Capturer().Active()
			return nil
		})
		test.That(t, err, test.ShouldBeNil)
		if active {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("capture never started")
}

func TestRemap(t *testing.T) {
	h := newHarness(t)

	code, _ := h.call(t, http.MethodPost, "/api/profiles/default-keyboard/remap/actionSouth", `{"device":"keyboard"}`)
	test.That(t, code, test.ShouldEqual, http.StatusConflict)
	code, _ = h.call(t, http.MethodPost, "/api/profiles/nope/remap/actionSouth", `{"device":"keyboard"}`)
	test.That(t, code, test.ShouldEqual, http.StatusNotFound)

	_, data := h.call(t, http.MethodPost, "/api/profiles", `{"name":"Mine","mapping":{}}`)
	var created profileView
	test.That(t, json.Unmarshal(data, &created), test.ShouldBeNil)

	code, _ = h.call(t, http.MethodPost, "/api/profiles/"+created.ID+"/remap/jump", `{"device":"keyboard"}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)
	code, _ = h.call(t, http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionSouth", `{"device":""}`)
	test.That(t, code, test.ShouldEqual, http.StatusBadRequest)

	type reply struct {
		code int
		data []byte
	}
	done := make(chan reply, 1)
	go func() {
		code, data := h.call(t, http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionSouth", `{"device":"keyboard"}`)
		done <- reply{code, data}
	}()

	waitForCapture(t, h.loop)
	code, _ = h.call(t, http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionEast", `{"device":"keyboard"}`)
	test.That(t, code, test.ShouldEqual, http.StatusConflict)

	time.Sleep(50 * time.Millisecond)
	h.keys.Set("KeyJ", true)

	var got reply
	select {
	case got = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("remap never finished")
	}
	test.That(t, got.code, test.ShouldEqual, http.StatusOK)
	var result remapResult
	test.That(t, json.Unmarshal(got.data, &result), test.ShouldBeNil)
	test.That(t, result.Source, test.ShouldEqual, "KeyJ")

	_, data = h.call(t, http.MethodGet, "/api/profiles", "")
	var list []profileView
	test.That(t, json.Unmarshal(data, &list), test.ShouldBeNil)
	test.That(t, list[3].Mapping["actionSouth"], test.ShouldNotBeNil)

	code, _ = h.call(t, http.MethodDelete, "/api/remap", "")
	test.That(t, code, test.ShouldEqual, http.StatusNoContent)
}

func captureActive(t *testing.T, l *loop.Loop) bool {
	t.Helper()
	var active bool
	test.That(t, l.Do(context.Background(), func() error {
		active = l.Capturer().Active()
		return nil
	}), test.ShouldBeNil)
	return active
}

func TestRemapAbandonedWhileQueued(t *testing.T) {
	h := newHarness(t)
	_, data := h.call(t, http.MethodPost, "/api/profiles", `{"name":"Mine","mapping":{}}`)
	var created profileView
	test.That(t, json.Unmarshal(data, &created), test.ShouldBeNil)

	// keep the loop busy so the capture request waits in line
	gate := make(chan struct{})
	busy := make(chan error, 1)
	go func() {
		busy <- h.loop.Do(context.Background(), func() error {
			<-gate
			return nil
		})
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionSouth",
		strings.NewReader(`{"device":"keyboard"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	handled := make(chan struct{})
	go func() {
		h.srv.Handler().ServeHTTP(rec, req)
		close(handled)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(gate)
	test.That(t, <-busy, test.ShouldBeNil)

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("remap request never returned")
	}
	test.That(t, rec.Code, test.ShouldEqual, http.StatusRequestTimeout)
	test.That(t, captureActive(t, h.loop), test.ShouldBeFalse)
}

func TestRemapReleasedWhenClientLeaves(t *testing.T) {
	h := newHarness(t)
	_, data := h.call(t, http.MethodPost, "/api/profiles", `{"name":"Mine","mapping":{}}`)
	var created profileView
	test.That(t, json.Unmarshal(data, &created), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionSouth",
		strings.NewReader(`{"device":"keyboard"}`)).WithContext(ctx)
	rec := httptest.NewRecorder()
	handled := make(chan struct{})
	go func() {
		h.srv.Handler().ServeHTTP(rec, req)
		close(handled)
	}()
	waitForCapture(t, h.loop)
	cancel()
	<-handled

	test.That(t, rec.Code, test.ShouldEqual, http.StatusRequestTimeout)
	test.That(t, captureActive(t, h.loop), test.ShouldBeFalse)

	// the guard is free for the next capture
	done := make(chan int, 1)
	go func() {
		code, _ := h.call(t, http.MethodPost, "/api/profiles/"+created.ID+"/remap/actionEast", `{"device":"keyboard"}`)
		done <- code
	}()
	waitForCapture(t, h.loop)
	time.Sleep(50 * time.Millisecond)
	h.keys.Set("KeyL", true)
	select {
	case code := <-done:
		test.That(t, code, test.ShouldEqual, http.StatusOK)
	case <-time.After(5 * time.Second):
		t.Fatal("second remap never finished")
	}
}

func TestShutdownBeforeListen(t *testing.T) {
	s := New(Options{Logger: golog.NewTestLogger(t), Addr: "127.0.0.1:0"})
	test.That(t, s.Shutdown(context.Background()), test.ShouldBeNil)
	test.That(t, s.ListenAndServe(), test.ShouldBeError, http.ErrServerClosed)
}

func TestStateAndDevices(t *testing.T) {
	h := newHarness(t)
	h.keys.Set("Space", true)
	time.Sleep(20 * time.Millisecond)

	code, data := h.call(t, http.MethodGet, "/api/state", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var states []map[string]any
	test.That(t, json.Unmarshal(data, &states), test.ShouldBeNil)
	test.That(t, len(states), test.ShouldEqual, controller.MaxPlayers)
	test.That(t, states[0]["actionSouth"], test.ShouldEqual, true)

	code, data = h.call(t, http.MethodGet, "/api/gamepads", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var devices devicesView
	test.That(t, json.Unmarshal(data, &devices), test.ShouldBeNil)
	test.That(t, len(devices.Gamepads), test.ShouldEqual, 0)
	test.That(t, devices.Keys, test.ShouldResemble, []string{"Space"})
}

func TestGames(t *testing.T) {
	h := newHarness(t)

	code, data := h.call(t, http.MethodGet, "/api/games", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var games gamesView
	test.That(t, json.Unmarshal(data, &games), test.ShouldBeNil)
	test.That(t, len(games.Games), test.ShouldEqual, 2)
	test.That(t, games.Running, test.ShouldEqual, "")

	code, _ = h.call(t, http.MethodPost, "/api/games/pacman/launch", "")
	test.That(t, code, test.ShouldEqual, http.StatusNotFound)
	code, _ = h.call(t, http.MethodPost, "/api/games/neon-runner/launch", "")
	test.That(t, code, test.ShouldEqual, http.StatusConflict)

	code, data = h.call(t, http.MethodPost, "/api/games/input-tester/launch", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	var launched struct {
		Running string `json:"running"`
		Width   int    `json:"width"`
		Height  int    `json:"height"`
	}
	test.That(t, json.Unmarshal(data, &launched), test.ShouldBeNil)
	test.That(t, launched.Running, test.ShouldEqual, inputtester.ID)
	test.That(t, launched.Height, test.ShouldEqual, 240)

	code, data = h.call(t, http.MethodGet, "/api/frame.png", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	img, err := png.Decode(bytes.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 400)

	code, _ = h.call(t, http.MethodPost, "/api/games/exit", "")
	test.That(t, code, test.ShouldEqual, http.StatusNoContent)
}

func TestFrontendIsMinified(t *testing.T) {
	h := newHarness(t)
	code, data := h.call(t, http.MethodGet, "/", "")
	test.That(t, code, test.ShouldEqual, http.StatusOK)
	test.That(t, strings.Contains(string(data), "hello"), test.ShouldBeTrue)
	test.That(t, strings.Contains(string(data), "\n  "), test.ShouldBeFalse)
}

func TestStatusOf(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code int
	}{
		{errors.Wrap(controller.ErrInvalidPlayer, "x"), http.StatusBadRequest},
		{badRequest(errors.New("x")), http.StatusBadRequest},
		{errors.Wrap(controller.ErrUnknownProfile, "x"), http.StatusNotFound},
		{errors.Wrap(game.ErrUnknownGame, "x"), http.StatusNotFound},
		{remap.ErrCaptureActive, http.StatusConflict},
		{errors.Wrap(game.ErrGameDisabled, "x"), http.StatusConflict},
		{loop.ErrStopped, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	} {
		test.That(t, statusOf(tc.err), test.ShouldEqual, tc.code)
	}
}
