// Package native reads joysticks through SDL3 and exposes them as a
// device.GamepadSource in the standard button layout.
package native

import (
	"context"
	"runtime"
	"sync"

	"github.com/edaniels/golog"
	"github.com/jupiterrider/purego-sdl3/sdl"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/gamepad"
)

const pollDelayNS = 16_000_000 // ~60Hz

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *gamepad.DeviceMapping
	name     string
	id       sdl.JoystickID
}

// Reader polls every connected joystick. A joystick keeps its index for as
// long as it stays connected; a new joystick takes the lowest free index.
type Reader struct {
	logger golog.Logger

	// owned by the SDL thread
	slots []*joystickInfo

	mu   sync.RWMutex
	pads []*device.Gamepad
}

func NewReader(logger golog.Logger) *Reader {
	return &Reader{logger: logger}
}

// Gamepads returns a copy of the last poll. A nil entry is a free index.
func (r *Reader) Gamepads() []*device.Gamepad {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return device.ClonePads(r.pads)
}

// Run initializes SDL and runs the event and polling loop on the current
// thread until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return errors.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	r.logger.Info("SDL3 Joystick subsystem initialized")

	// Check for already-connected joysticks
	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return nil
		default:
		}

		r.processEvents()
		r.pollAll()
		sdl.DelayNS(pollDelayNS)
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			r.logger.Debugf("Button DOWN: index=%d joystick=%d", be.Button, be.Which)

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			r.logger.Debugf("Hat: index=%d value=0x%02X joystick=%d", he.Hat, he.Value, he.Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	for _, info := range r.slots {
		if info != nil && info.id == instanceID {
			return
		}
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		r.logger.Warnf("Failed to open joystick %d: %s", instanceID, sdl.GetError())
		return
	}

	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	info := &joystickInfo{
		joystick: js,
		mapping:  gamepad.GetMapping(vendorID, productID),
		name:     sdl.GetJoystickName(js),
		id:       sdl.GetJoystickID(js),
	}
	index := gamepad.Place(&r.slots, info)

	r.logger.Infof("Joystick connected as gamepad-%d: %s (VID=%04X PID=%04X) mapping=%s axes=%d buttons=%d hats=%d",
		index, info.name, vendorID, productID, info.mapping.Name,
		sdl.GetNumJoystickAxes(js), sdl.GetNumJoystickButtons(js), sdl.GetNumJoystickHats(js))
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	for i, info := range r.slots {
		if info == nil || info.id != instanceID {
			continue
		}
		r.logger.Infof("Joystick disconnected from gamepad-%d: %s", i, info.name)
		sdl.CloseJoystick(info.joystick)
		r.slots[i] = nil
		return
	}
}

func (r *Reader) closeAll() {
	for i, info := range r.slots {
		if info != nil {
			sdl.CloseJoystick(info.joystick)
		}
		r.slots[i] = nil
	}
	r.mu.Lock()
	r.pads = nil
	r.mu.Unlock()
}

func (r *Reader) pollAll() {
	pads := make([]*device.Gamepad, len(r.slots))
	for i, info := range r.slots {
		if info == nil || !sdl.JoystickConnected(info.joystick) {
			continue
		}
		pads[i] = gamepad.Standardize(info.name, info.mapping, readRaw(info.joystick))
	}

	r.mu.Lock()
	r.pads = pads
	r.mu.Unlock()
}

func readRaw(js *sdl.Joystick) gamepad.RawSample {
	var raw gamepad.RawSample

	numAxes := sdl.GetNumJoystickAxes(js)
	raw.Axes = make([]int16, numAxes)
	for i := int32(0); i < numAxes; i++ {
		raw.Axes[i] = sdl.GetJoystickAxis(js, i)
	}

	numButtons := sdl.GetNumJoystickButtons(js)
	raw.Buttons = make([]bool, numButtons)
	for i := int32(0); i < numButtons; i++ {
		raw.Buttons[i] = sdl.GetJoystickButton(js, i)
	}

	if sdl.GetNumJoystickHats(js) > 0 {
		raw.HasHat = true
		raw.Hat = sdl.GetJoystickHat(js, 0)
	}
	return raw
}
