package session

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"cowrite/internal/models"
)

// Client wraps one websocket connection and the identity resolved during its
// handshake. A client is attached to at most one room; the room field is only
// touched by the connection's reader goroutine, via the hub.
type Client struct {
	ID   string
	User models.Identity

	Conn *websocket.Conn
	mu   sync.Mutex
	hook func(models.WSFrame)

	room *Room
}

func NewClient(conn *websocket.Conn, user models.Identity) *Client {
	return &Client{ID: uuid.NewString(), User: user, Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func(models.WSFrame)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

func (c *Client) Send(frame models.WSFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(frame)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteJSON(frame)
}

// Room returns the room the client is currently in, or nil.
func (c *Client) Room() *Room { return c.room }
