package hub

import (
	"time"

	"github.com/soar/retrocouch/internal/action"
)

// Message types.
const (
	TypeFull           = "full"
	TypeDelta          = "delta"
	TypePlayerSelected = "player_selected"
	TypeError          = "error"

	TypeSelectPlayer = "select_player"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type        string        `json:"type"`              // "full", "delta", "player_selected", "error"
	Seq         int64         `json:"seq"`               // Sequence number for ordering
	Timestamp   int64         `json:"timestamp"`         // Unix timestamp in milliseconds
	PlayerIndex int           `json:"playerIndex"`       // 0-based slot the message is about
	Data        *action.State `json:"data,omitempty"`    // Full state for type "full"
	Changes     action.Delta  `json:"changes,omitempty"` // Changed actions for type "delta"
	Error       string        `json:"error,omitempty"`
}

// NewFullMessage creates a "full" type message containing a complete action state.
func NewFullMessage(seq int64, player int, state action.State) *WSMessage {
	return &WSMessage{
		Type:        TypeFull,
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: player,
		Data:        &state,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed actions.
func NewDeltaMessage(seq int64, player int, changes action.Delta) *WSMessage {
	return &WSMessage{
		Type:        TypeDelta,
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: player,
		Changes:     changes,
	}
}

// NewPlayerSelectedMessage creates a "player_selected" confirmation message.
func NewPlayerSelectedMessage(player int) *WSMessage {
	return &WSMessage{
		Type:        TypePlayerSelected,
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: player,
	}
}

// NewErrorMessage reports a rejected client message.
func NewErrorMessage(player int, err error) *WSMessage {
	return &WSMessage{
		Type:        TypeError,
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: player,
		Error:       err.Error(),
	}
}

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type        string `json:"type"`
	PlayerIndex int    `json:"playerIndex"`
}
