// Package ws is the websocket transport adapter in front of the event
// relay. Clients send join-session frames; the server pushes typed
// messages for every session the connection has joined.
package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/paperstudio/backend/internal/relay"
)

// clientFrame is what clients send: join-session / leave-session.
type clientFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// Handler upgrades HTTP requests and bridges connections to the relay.
type Handler struct {
	registry *relay.Registry
	upgrader websocket.Upgrader
}

func NewHandler(registry *relay.Registry, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
	}
}

// Serve handles GET /ws.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	conn := newConn(uuid.New().String(), sock)
	go conn.writePump()
	h.readLoop(conn)
}

func (h *Handler) readLoop(c *Conn) {
	defer func() {
		h.registry.Leave(c)
		c.close()
	}()

	c.sock.SetReadLimit(4096)
	c.sock.SetReadDeadline(time.Now().Add(pongWait))
	c.sock.SetPongHandler(func(string) error {
		return c.sock.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.sock.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read: %v", err)
			}
			return
		}

		switch frame.Type {
		case "join-session":
			// Unknown session ids are accepted silently; the client
			// simply never receives events for them.
			h.registry.Join(c, frame.SessionID)
		case "leave-session":
			h.registry.Leave(c)
		default:
			log.Printf("ws: unknown frame type %q from %s", frame.Type, c.id)
		}
	}
}
