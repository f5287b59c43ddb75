package praise

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Gather-Network/conference_layer/internal/app/domain/praise"
	"github.com/Gather-Network/conference_layer/pkg/logger"
)

// Hub fans new praise records out to websocket subscribers of the live feed.
type Hub struct {
	log *logger.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewDefault("praise-hub")
	}
	return &Hub{log: log, conns: make(map[*websocket.Conn]struct{})}
}

// Register adds a subscriber connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

// Unregister removes and closes a subscriber connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
		conn.Close()
	}
}

// Broadcast sends one praise record to every subscriber. Connections that
// fail to write are dropped.
func (h *Hub) Broadcast(p praise.Praise) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(p); err != nil {
			h.log.WithError(err).Warn("dropping praise feed subscriber")
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
