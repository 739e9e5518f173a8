// Package game defines the contract between the host and game modules and
// the catalog of modules that can be launched.
package game

import (
	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/controller"
)

var (
	// ErrUnknownGame is returned when launching an id missing from the catalog.
	ErrUnknownGame = errors.New("unknown game")

	// ErrGameDisabled is returned when launching a catalog entry that is not enabled.
	ErrGameDisabled = errors.New("game is not available")
)

// Module is a game. The host calls Start once, then Update and Draw once
// per frame, and Stop when the module is exited.
type Module interface {
	Start()
	Stop()
	Update()
	Draw(dc *gg.Context)
	Resize(width, height int)
}

// Sizer is implemented by modules that choose their canvas size from the
// viewport they are shown in.
type Sizer interface {
	CanvasSize(viewWidth, viewHeight int) (width, height int)
}

// Players is the read access a module gets to the controller system.
type Players interface {
	ActionState(player int) action.State
	Slot(player int) (controller.SlotInfo, bool)
}

// Entry is one catalog entry.
type Entry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
	Enabled     bool     `json:"enabled"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`

	New func(players Players) Module `json:"-"`
}

// Registry is the ordered game catalog.
type Registry struct {
	entries []Entry
}

// NewRegistry returns a catalog of entries in the given order. An enabled
// entry without a constructor is listed as disabled.
func NewRegistry(entries ...Entry) *Registry {
	r := &Registry{entries: make([]Entry, len(entries))}
	for i, e := range entries {
		if e.New == nil {
			e.Enabled = false
		}
		e.Tags = append([]string(nil), e.Tags...)
		r.entries[i] = e
	}
	return r
}

// Entries returns the catalog in order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds an entry by id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
