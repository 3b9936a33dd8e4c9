package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 512
)

// Hub tracks the websocket clients watching each project board and
// pushes refresh signals when the board changes.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Register(projectID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[projectID] == nil {
		h.clients[projectID] = make(map[*websocket.Conn]bool)
	}
	h.clients[projectID][conn] = true
}

func (h *Hub) Unregister(projectID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.remove(projectID, conn)
}

// remove expects h.mu to be held.
func (h *Hub) remove(projectID uint, conn *websocket.Conn) {
	if clients, exists := h.clients[projectID]; exists {
		delete(clients, conn)

		if len(clients) == 0 {
			delete(h.clients, projectID)
		}
	}
}

// BroadcastRefresh tells every client watching the project to refetch
// the board. Failed connections are dropped from the hub.
func (h *Hub) BroadcastRefresh(projectID uint, event string) {
	h.mu.RLock()
	clients, exists := h.clients[projectID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	// Copy so the lock is not held while writing to sockets.
	conns := make([]*websocket.Conn, 0, len(clients))
	for conn := range clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
			logrus.Errorf("Failed to set write deadline for broadcast: %v", err)
			continue
		}

		err := conn.WriteJSON(map[string]interface{}{
			"type":       "refresh",
			"event":      event,
			"project_id": projectID,
		})

		if err != nil {
			logrus.Errorf("Failed to broadcast refresh to client: %v", err)

			h.mu.Lock()
			h.remove(projectID, conn)
			h.mu.Unlock()
			conn.Close()
		}
	}
}
