package game

import (
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"github.com/edaniels/golog"
	"github.com/fogleman/gg"
	"github.com/pkg/errors"
)

// Background is the colour the canvas is cleared to before every frame.
const Background = "#0d0e12"

// Host owns the canvas and at most one running module. Launch, Exit, Resize
// and Frame are driven by the frame loop; EncodePNG may be called from any
// goroutine.
type Host struct {
	logger   golog.Logger
	registry *Registry
	players  Players

	mu       sync.Mutex
	viewW    int
	viewH    int
	dc       *gg.Context
	activeID string
	active   Module
	drawn    uint64
}

// NewHost returns a host with an idle canvas of the given viewport size.
func NewHost(logger golog.Logger, registry *Registry, players Players, width, height int) *Host {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	h := &Host{
		logger:   logger,
		registry: registry,
		players:  players,
		viewW:    width,
		viewH:    height,
	}
	h.dc = newCanvas(width, height)
	return h
}

func newCanvas(width, height int) *gg.Context {
	dc := gg.NewContext(width, height)
	dc.SetHexColor(Background)
	dc.Clear()
	return dc
}

// Registry returns the catalog the host launches from.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Launch stops the running module, if any, and starts the catalog entry id.
func (h *Host) Launch(id string) error {
	entry, ok := h.registry.Lookup(id)
	if !ok {
		return errors.Wrapf(ErrUnknownGame, "game %q", id)
	}
	if !entry.Enabled {
		return errors.Wrapf(ErrGameDisabled, "game %q", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()
	m := entry.New(h.players)
	h.active = m
	h.activeID = id
	h.resizeLocked()
	m.Start()
	h.logger.Infof("Game launched: %s", entry.Title)
	return nil
}

// Exit stops the running module and clears the canvas.
func (h *Host) Exit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
	h.dc = newCanvas(h.viewW, h.viewH)
}

func (h *Host) stopLocked() {
	if h.active == nil {
		return
	}
	h.active.Stop()
	h.logger.Infof("Game stopped: %s", h.activeID)
	h.active = nil
	h.activeID = ""
}

// Current returns the id of the running module.
func (h *Host) Current() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activeID, h.active != nil
}

// Resize records a new viewport size, recreates the canvas and forwards the
// canvas size to the running module.
func (h *Host) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid viewport %dx%d", width, height)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.viewW, h.viewH = width, height
	h.resizeLocked()
	return nil
}

func (h *Host) resizeLocked() {
	w, hgt := h.viewW, h.viewH
	if s, ok := h.active.(Sizer); ok {
		w, hgt = s.CanvasSize(h.viewW, h.viewH)
		if w <= 0 || hgt <= 0 {
			w, hgt = h.viewW, h.viewH
		}
	}
	h.dc = newCanvas(w, hgt)
	if h.active != nil {
		h.active.Resize(w, hgt)
	}
}

// Size returns the current canvas size.
func (h *Host) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dc.Width(), h.dc.Height()
}

// Frame updates and draws the running module. Without one it does nothing.
func (h *Host) Frame() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return
	}
	h.active.Update()
	h.dc.SetHexColor(Background)
	h.dc.Clear()
	h.active.Draw(h.dc)
	h.drawn++
}

// Frames returns how many frames were drawn since the host was created.
func (h *Host) Frames() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.drawn
}

// EncodePNG writes the last drawn frame. The canvas is copied under the lock
// and encoded after it is released, so a slow writer never holds up Frame.
func (h *Host) EncodePNG(w io.Writer) error {
	frame := h.Snapshot()
	return errors.Wrap(png.Encode(w, frame), "cannot encode frame")
}

// Snapshot returns a copy of the last drawn frame.
func (h *Host) Snapshot() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	src := h.dc.Image()
	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}
