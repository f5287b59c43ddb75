package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the CORS layer; the upgrade itself
	// accepts any origin that got this far.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handlePraiseSocket upgrades the connection and streams new praise records
// until the client goes away.
func (h *Handler) handlePraiseSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	h.hub.Register(conn)

	// Drain client frames to detect disconnects; the feed is write-only.
	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
