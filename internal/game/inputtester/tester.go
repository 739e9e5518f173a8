// Package inputtester is the reference game module: one square per active
// player, moved by the left stick and tinted by the face buttons.
package inputtester

import (
	"image/color"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"github.com/soar/retrocouch/internal/controller"
	"github.com/soar/retrocouch/internal/device"
	"github.com/soar/retrocouch/internal/game"
)

// ID is the catalog id of the module.
const ID = "input-tester"

const (
	speed      = 5.0
	halfSize   = 20.0
	gridStep   = 50
	gridColor  = "#1a1c23"
	aspect     = 0.6
	glowPasses = 3
)

var (
	white   = color.RGBA{0xff, 0xff, 0xff, 0xff}
	magenta = color.RGBA{0xff, 0x00, 0xff, 0xff}
	cyan    = color.RGBA{0x00, 0xff, 0xff, 0xff}
	yellow  = color.RGBA{0xff, 0xff, 0x00, 0xff}
)

type shape struct {
	x, y  float64
	color color.RGBA
}

// Tester implements game.Module.
type Tester struct {
	players game.Players
	running bool
	width   float64
	height  float64
	shapes  [controller.MaxPlayers]shape
}

// New returns a stopped Tester reading from players.
func New(players game.Players) game.Module {
	return &Tester{
		players: players,
		width:   400,
		height:  400,
		shapes: [controller.MaxPlayers]shape{
			{x: 100, y: 100, color: color.RGBA{0x7c, 0x4d, 0xff, 0xff}},
			{x: 300, y: 100, color: color.RGBA{0x00, 0xe5, 0xff, 0xff}},
			{x: 100, y: 300, color: color.RGBA{0x69, 0xf0, 0xae, 0xff}},
			{x: 300, y: 300, color: color.RGBA{0xff, 0x52, 0x52, 0xff}},
		},
	}
}

// Entry returns the catalog entry of the module.
func Entry() game.Entry {
	return game.Entry{
		ID:          ID,
		Title:       "Input Tester",
		Description: "A reference implementation for the controller system.",
		Tags:        []string{"System", "Reference"},
		Status:      "Ready",
		Enabled:     true,
		Color:       "linear-gradient(135deg, #7c4dff, #00e5ff)",
		Icon:        "🎮",
		New:         New,
	}
}

func (t *Tester) Start() { t.running = true }

func (t *Tester) Stop() { t.running = false }

// CanvasSize keeps the canvas as wide as the viewport at a 5:3 ratio.
func (t *Tester) CanvasSize(viewWidth, _ int) (int, int) {
	return viewWidth, int(float64(viewWidth) * aspect)
}

func (t *Tester) Resize(width, height int) {
	t.width = float64(width)
	t.height = float64(height)
}

// Position returns the centre of a player's square.
func (t *Tester) Position(player int) (float64, float64) {
	s := t.shapes[player]
	return s.x, s.y
}

func (t *Tester) assigned(player int) (controller.SlotInfo, bool) {
	info, ok := t.players.Slot(player)
	if !ok || info.Device.Kind == device.RefNone {
		return controller.SlotInfo{}, false
	}
	return info, true
}

func (t *Tester) Update() {
	if !t.running {
		return
	}
	for i := range t.shapes {
		if _, ok := t.assigned(i); !ok {
			continue
		}
		state := t.players.ActionState(i)
		s := &t.shapes[i]
		s.x = clamp(s.x+state.LeftStickX*speed, halfSize, t.width-halfSize)
		s.y = clamp(s.y+state.LeftStickY*speed, halfSize, t.height-halfSize)
	}
}

// clamp keeps v within [lo, hi]; when the canvas is narrower than a square
// lo wins.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (t *Tester) Draw(dc *gg.Context) {
	if !t.running {
		return
	}

	dc.SetHexColor(gridColor)
	dc.SetLineWidth(1)
	for x := 0; x < dc.Width(); x += gridStep {
		dc.DrawLine(float64(x), 0, float64(x), float64(dc.Height()))
		dc.Stroke()
	}
	for y := 0; y < dc.Height(); y += gridStep {
		dc.DrawLine(0, float64(y), float64(dc.Width()), float64(y))
		dc.Stroke()
	}

	for i, s := range t.shapes {
		info, ok := t.assigned(i)
		if !ok {
			continue
		}
		state := t.players.ActionState(i)
		c := shapeColor(s.color, state.ActionSouth, state.ActionEast, state.ActionWest, state.ActionNorth)

		for p := glowPasses; p > 0; p-- {
			grow := float64(p) * 4
			dc.SetRGBA255(int(c.R), int(c.G), int(c.B), 20)
			dc.DrawRectangle(s.x-halfSize-grow, s.y-halfSize-grow, 2*(halfSize+grow), 2*(halfSize+grow))
			dc.Fill()
		}
		dc.SetColor(c)
		dc.DrawRectangle(s.x-halfSize, s.y-halfSize, 2*halfSize, 2*halfSize)
		dc.Fill()

		dc.SetColor(white)
		dc.DrawStringAnchored(strings.ToUpper(info.Name), s.x, s.y-30, 0.5, 0)
	}
}

// shapeColor applies the face-button tints; later buttons win.
func shapeColor(base color.RGBA, south, east, west, north bool) color.RGBA {
	c := base
	if south {
		c = white
	}
	if east {
		c = magenta
	}
	if west {
		c = cyan
	}
	if north {
		c = yellow
	}
	return c
}
