package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/soar/retrocouch/internal/controller"
)

// Client represents a connected WebSocket client.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	player atomic.Int32 // 0-based player this client follows

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client attached to the hub, following player 0.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Player returns the player the client follows.
func (c *Client) Player() int {
	return int(c.player.Load())
}

// SetPlayer changes the player the client follows.
func (c *Client) SetPlayer(player int) error {
	if player < 0 || player >= controller.MaxPlayers {
		return errors.Wrapf(controller.ErrInvalidPlayer, "player %d", player)
	}
	c.player.Store(int32(player))
	return nil
}

// queue sends data to the client. It reports false when the send buffer is
// full; data for a closed client is dropped.
func (c *Client) queue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close ends the send channel, which stops WritePump. It is safe to call
// more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPump reads client commands until the connection fails.
func (c *Client) ReadPump(b *Broadcaster) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		c.handle(b, message)
	}
}

func (c *Client) handle(b *Broadcaster, message []byte) {
	logger := c.hub.logger

	var clientMsg ClientMessage
	if err := json.Unmarshal(message, &clientMsg); err != nil {
		logger.Debugf("Error parsing client message: %v", err)
		return
	}

	switch clientMsg.Type {
	case TypeSelectPlayer:
		if err := c.SetPlayer(clientMsg.PlayerIndex); err != nil {
			logger.Debugf("Failed to switch to player %d: %v", clientMsg.PlayerIndex, err)
			c.queueMessage(NewErrorMessage(c.Player(), err))
			return
		}
		c.queueMessage(NewPlayerSelectedMessage(clientMsg.PlayerIndex))
		b.SendInitialState(c)
		logger.Debugf("Client switched to player %d", clientMsg.PlayerIndex)
	default:
		logger.Debugf("Unknown client message %q", clientMsg.Type)
	}
}

func (c *Client) queueMessage(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Errorw("cannot marshal message", "type", msg.Type, "error", err)
		return
	}
	c.queue(data)
}
