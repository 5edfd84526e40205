package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/livecast/relay/internal/admission"
)

var (
	errClientBacklogged = errors.New("client send buffer full")
	errClientClosed     = errors.New("client closed")
)

// client is one push-channel session. It implements relay.Subscriber.
type client struct {
	id       string
	remoteIP string
	conn     *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(conn *websocket.Conn, remoteAddr string) *client {
	c := &client{
		id:       uuid.NewString(),
		remoteIP: admission.ClientIP(remoteAddr),
		conn:     conn,
		send:     make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// close is idempotent; a broadcast racing it sees errClientClosed instead of
// a send on a closed channel.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Deliver queues one message without blocking. A backlogged client reports a
// failed delivery; the fan-out swallows it, so a slow consumer only loses
// its own messages.
func (c *client) Deliver(kind string, data any) error {
	b, err := json.Marshal(Message{Type: kind, Payload: data})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- b:
		return nil
	default:
		return errClientBacklogged
	}
}
