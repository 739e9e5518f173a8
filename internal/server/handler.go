package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soar/retrocouch/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local use
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	client := hub.NewClient(s.hub, conn)
	if !s.hub.Register(client) {
		conn.Close()
		return
	}

	// Send current state to the new client
	s.broadcaster.SendInitialState(client)

	go client.WritePump()
	go client.ReadPump(s.broadcaster)
}
