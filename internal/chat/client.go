package chat

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// ConnLike is the subset of the websocket connection the chat core
// needs; tests substitute an in-memory fake.
type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Client is one live connection handle for a user.
type Client struct {
	UserID string
	Conn   ConnLike

	send chan []byte
	done chan struct{}
	once sync.Once
}

func NewClient(userID string, conn ConnLike) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

// Push queues data for delivery without blocking. A full buffer or a
// closed client drops the event; delivery is best-effort, the store is
// the durability.
func (c *Client) Push(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// WritePump drains the send queue onto the wire until Close.
func (c *Client) WritePump() {
	for {
		select {
		case data := <-c.send:
			_ = c.Conn.WriteMessage(websocket.TextMessage, data)
		case <-c.done:
			return
		}
	}
}

// ReadPump blocks until the connection drops. The server never acts on
// inbound frames; sends travel over HTTP, the socket is push-only.
func (c *Client) ReadPump() {
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close stops the write pump and closes the underlying connection.
// Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.Conn.Close()
	})
}
