package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/soar/retrocouch/internal/action"
	"github.com/soar/retrocouch/internal/controller"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster turns the per-frame states of every player into full and
// delta messages for the clients following each player.
type Broadcaster struct {
	hub     *Hub
	clock   clock.Clock
	changes <-chan []action.State

	mu         sync.Mutex
	lastStates [controller.MaxPlayers]action.State
	deltaCount [controller.MaxPlayers]int
	seq        int64
}

// NewBroadcaster reads frames from changes. clk may be nil for the wall clock.
func NewBroadcaster(h *Hub, clk clock.Clock, changes <-chan []action.State) *Broadcaster {
	if clk == nil {
		clk = clock.New()
	}
	return &Broadcaster{
		hub:     h,
		clock:   clk,
		changes: changes,
	}
}

// Run starts the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := b.clock.Ticker(fullSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case states, ok := <-b.changes:
			if !ok {
				return
			}
			b.apply(states)
		case <-ticker.C:
			b.syncAll()
		}
	}
}

func (b *Broadcaster) apply(states []action.State) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for player := 0; player < len(states) && player < controller.MaxPlayers; player++ {
		state := states[player]
		delta := action.ComputeDelta(b.lastStates[player], state)
		if delta.IsEmpty() {
			// keep the old state so slow drifts add up to a delta
			continue
		}
		b.lastStates[player] = state

		b.seq++
		b.deltaCount[player]++

		// Send full sync periodically
		if b.deltaCount[player] >= deltaCountSync {
			b.deltaCount[player] = 0
			b.broadcast(player, NewFullMessage(b.seq, player, state))
		} else {
			b.broadcast(player, NewDeltaMessage(b.seq, player, delta))
		}
	}
}

func (b *Broadcaster) syncAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for player, state := range b.lastStates {
		b.seq++
		b.broadcast(player, NewFullMessage(b.seq, player, state))
	}
}

// SendInitialState sends the current full state of the followed player to a client.
func (b *Broadcaster) SendInitialState(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	player := c.Player()
	b.seq++
	c.queueMessage(NewFullMessage(b.seq, player, b.lastStates[player]))
}

func (b *Broadcaster) broadcast(player int, msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.hub.logger.Errorw("cannot marshal message", "type", msg.Type, "error", err)
		return
	}
	b.hub.BroadcastToPlayer(data, player)
}
