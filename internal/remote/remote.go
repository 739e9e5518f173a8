// Package remote receives input from browser clients over a websocket: key
// transitions, gamepad snapshots from the Gamepad API and viewport sizes.
package remote

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/edaniels/golog"
	"github.com/lxzan/gws"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/device"
)

// Message types sent by the browser.
const (
	TypeKey      = "key"
	TypeBlur     = "blur"
	TypeGamepads = "gamepads"
	TypeViewport = "viewport"
)

// Message is one browser message. Only the fields of its type are set.
type Message struct {
	Type   string            `json:"type"`
	Code   string            `json:"code,omitempty"`
	Down   bool              `json:"down,omitempty"`
	Pads   []*device.Gamepad `json:"pads,omitempty"`
	Width  int               `json:"width,omitempty"`
	Height int               `json:"height,omitempty"`
}

type client struct {
	id   uint64
	keys *device.KeyTracker
}

// Source is a device.KeyboardSource and device.GamepadSource fed by every
// connected browser. Keys held in any browser are down; the gamepad array is
// the last non-empty snapshot, owned by the browser that sent it.
type Source struct {
	gws.BuiltinEventHandler

	logger     golog.Logger
	upgrader   *gws.Upgrader
	onViewport func(width, height int)

	mu        sync.Mutex
	nextID    uint64
	clients   map[*gws.Conn]*client
	pads      []*device.Gamepad
	padsOwner *client
}

// NewSource returns a Source. onViewport, when set, is called with every
// viewport size a browser reports.
func NewSource(logger golog.Logger, onViewport func(width, height int)) *Source {
	s := &Source{
		logger:     logger,
		onViewport: onViewport,
		clients:    make(map[*gws.Conn]*client),
	}
	s.upgrader = gws.NewUpgrader(s, &gws.ServerOption{
		ParallelEnabled:   false,
		Recovery:          gws.Recovery,
		PermessageDeflate: gws.PermessageDeflate{Enabled: true},
	})
	return s
}

// ServeHTTP upgrades the request and reads messages until the socket closes.
func (s *Source) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	socket, err := s.upgrader.Upgrade(w, r)
	if err != nil {
		s.logger.Warnf("Input socket upgrade failed: %v", err)
		return
	}
	go socket.ReadLoop()
}

func (s *Source) OnOpen(socket *gws.Conn) {
	s.mu.Lock()
	s.nextID++
	c := &client{id: s.nextID, keys: device.NewKeyTracker()}
	s.clients[socket] = c
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Infof("Input client %d connected (total: %d)", c.id, n)
}

func (s *Source) OnClose(socket *gws.Conn, err error) {
	s.mu.Lock()
	c, ok := s.clients[socket]
	delete(s.clients, socket)
	n := len(s.clients)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.drop(c)
	s.logger.Infof("Input client %d disconnected (total: %d): %v", c.id, n, err)
}

func (s *Source) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

func (s *Source) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	s.mu.Lock()
	c, ok := s.clients[socket]
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := s.handle(c, message.Bytes()); err != nil {
		s.logger.Debugf("Input client %d: %v", c.id, err)
	}
}

func (s *Source) handle(c *client, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return errors.Wrap(err, "malformed message")
	}

	switch msg.Type {
	case TypeKey:
		c.keys.Set(msg.Code, msg.Down)
	case TypeBlur:
		c.keys.Reset()
	case TypeGamepads:
		s.setPads(c, msg.Pads)
	case TypeViewport:
		if msg.Width <= 0 || msg.Height <= 0 {
			return errors.Errorf("invalid viewport %dx%d", msg.Width, msg.Height)
		}
		if s.onViewport != nil {
			s.onViewport(msg.Width, msg.Height)
		}
	default:
		return errors.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

// setPads takes a gamepad snapshot from c. A browser reporting at least one
// pad becomes the owner of the array. An empty report only counts when it
// comes from the owner, which then gives the array up.
func (s *Source) setPads(c *client, pads []*device.Gamepad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !hasPads(pads) {
		if s.padsOwner == c {
			s.pads = nil
			s.padsOwner = nil
		}
		return
	}
	s.pads = device.ClonePads(pads)
	s.padsOwner = c
}

func hasPads(pads []*device.Gamepad) bool {
	for _, p := range pads {
		if p != nil {
			return true
		}
	}
	return false
}

// drop releases everything a client was holding.
func (s *Source) drop(c *client) {
	c.keys.Reset()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.padsOwner == c {
		s.pads = nil
		s.padsOwner = nil
	}
}

// KeysDown returns the union of the keys held in every browser.
func (s *Source) KeysDown() device.KeySet {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := device.KeySet{}
	for _, c := range s.clients {
		for code := range c.keys.KeysDown() {
			out[code] = struct{}{}
		}
	}
	return out
}

// Gamepads returns a copy of the last gamepad snapshot.
func (s *Source) Gamepads() []*device.Gamepad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return device.ClonePads(s.pads)
}

// Clients returns the number of connected browsers.
func (s *Source) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
