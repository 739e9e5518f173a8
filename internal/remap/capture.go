// Package remap captures the next physical input on a device so that it can
// be bound to an action.
package remap

import (
	"context"

	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/device"
)

// ErrCaptureActive is returned when a capture is requested while another
// one is still waiting.
var ErrCaptureActive = errors.New("another remap capture is in progress")

// ErrCaptureCancelled is returned by Wait when the capture was cancelled.
var ErrCaptureCancelled = errors.New("remap capture cancelled")

// Capturer allows one active capture at a time. Begin, Observe and Cancel
// must be called from the goroutine that owns the device samples; Wait may
// be called from anywhere.
type Capturer struct {
	active *Session
}

// Session is one capture in progress.
type Session struct {
	owner  *Capturer
	device device.Ref

	primed   bool
	keys     device.KeySet
	buttons  map[int]bool
	axisDirs map[device.Input]bool

	done   chan struct{}
	result device.Input
	err    error
}

// NewCapturer returns an idle Capturer.
func NewCapturer() *Capturer {
	return &Capturer{}
}

// Active reports whether a capture is waiting.
func (c *Capturer) Active() bool {
	return c.active != nil
}

// Begin starts a capture on ref. The inputs that are active on the first
// observed frame form the baseline and never complete the capture.
func (c *Capturer) Begin(ref device.Ref) (*Session, error) {
	if c.active != nil {
		return nil, ErrCaptureActive
	}
	if ref.Kind == device.RefNone {
		return nil, errors.New("cannot capture without a device")
	}
	s := &Session{
		owner:  c,
		device: ref,
		done:   make(chan struct{}),
	}
	c.active = s
	return s, nil
}

// Observe feeds one frame of raw samples to the active capture.
func (c *Capturer) Observe(keys device.KeySet, pads []*device.Gamepad) {
	s := c.active
	if s == nil {
		return
	}

	var pad *device.Gamepad
	if s.device.Kind == device.RefGamepad && s.device.Index < len(pads) {
		pad = pads[s.device.Index]
	}

	if !s.primed {
		s.prime(keys, pad)
		return
	}

	var in device.Input
	var found bool
	switch s.device.Kind {
	case device.RefKeyboard:
		in, found = s.newKey(keys)
	case device.RefGamepad:
		in, found = s.newGamepadInput(pad)
	}
	if found {
		s.finish(in, nil)
	} else {
		// released inputs may be pressed again
		s.prime(keys, pad)
	}
}

// Cancel aborts the active capture, if any.
func (c *Capturer) Cancel() {
	if c.active != nil {
		c.active.Cancel()
	}
}

// Cancel aborts the session if it is still the active capture. Like Begin
// it must be called from the goroutine that owns the samples.
func (s *Session) Cancel() {
	if s.owner.active == s {
		s.finish(device.Input{}, ErrCaptureCancelled)
	}
}

// Device returns the device the session listens to.
func (s *Session) Device() device.Ref {
	return s.device
}

// Done is closed when the capture completes or is cancelled.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the capture completes. There is no timeout; only ctx
// ends the wait early, and it does not cancel the capture.
func (s *Session) Wait(ctx context.Context) (device.Input, error) {
	select {
	case <-s.done:
		return s.result, s.err
	case <-ctx.Done():
		return device.Input{}, ctx.Err()
	}
}

func (s *Session) finish(in device.Input, err error) {
	s.result = in
	s.err = err
	if s.owner.active == s {
		s.owner.active = nil
	}
	close(s.done)
}

func (s *Session) prime(keys device.KeySet, pad *device.Gamepad) {
	s.primed = true
	s.keys = make(device.KeySet, len(keys))
	for k := range keys {
		s.keys[k] = struct{}{}
	}
	s.buttons = map[int]bool{}
	s.axisDirs = map[device.Input]bool{}
	if pad == nil {
		return
	}
	for i, b := range pad.Buttons {
		if b.Pressed {
			s.buttons[i] = true
		}
	}
	for _, in := range activeDirections(pad) {
		s.axisDirs[in] = true
	}
}

func (s *Session) newKey(keys device.KeySet) (device.Input, bool) {
	for _, code := range keys.Codes() {
		if !s.keys.Has(code) {
			return device.Key(code), true
		}
	}
	return device.Input{}, false
}

func (s *Session) newGamepadInput(pad *device.Gamepad) (device.Input, bool) {
	if pad == nil {
		return device.Input{}, false
	}
	for i, b := range pad.Buttons {
		if b.Pressed && !s.buttons[i] {
			return device.ButtonInput(i), true
		}
	}
	for _, in := range activeDirections(pad) {
		if !s.axisDirs[in] {
			return in, true
		}
	}
	return device.Input{}, false
}

// activeDirections lists the axis directions past the direction threshold,
// lowest axis first.
func activeDirections(pad *device.Gamepad) []device.Input {
	var out []device.Input
	for i, v := range pad.Axes {
		switch {
		case v > device.DirectionThreshold:
			out = append(out, device.AxisInput(i, device.AxisPos))
		case v < -device.DirectionThreshold:
			out = append(out, device.AxisInput(i, device.AxisNeg))
		}
	}
	return out
}
