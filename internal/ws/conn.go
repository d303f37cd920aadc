package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/paperstudio/backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 64
)

// Conn adapts one websocket connection to the relay.Subscriber
// contract. Outbound messages go through a buffered queue drained by a
// single writer goroutine, so per-session publish order survives the
// transport.
type Conn struct {
	id   string
	sock *websocket.Conn
	out  chan models.WSMessage
	done chan struct{}
	once sync.Once
}

func newConn(id string, sock *websocket.Conn) *Conn {
	return &Conn{
		id:   id,
		sock: sock,
		out:  make(chan models.WSMessage, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues the message without blocking. A closed connection or a
// full queue (client not reading) reports false so the relay drops the
// subscriber.
func (c *Conn) Send(msg models.WSMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.sock.Close()
	})
}

// writePump serializes all writes to the socket.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg := <-c.out:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
