package session

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// Client wraps one live socket. The mutex serializes writes because
// gorilla conns allow only one concurrent writer.
type Client struct {
	Conn   *websocket.Conn
	UserID string
	mu     sync.Mutex
	hook   func([]byte)
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{Conn: conn}
}

// SetSendHook replaces the default WebSocket sender (used in tests).
func (c *Client) SetSendHook(fn func([]byte)) {
	c.mu.Lock()
	c.hook = fn
	c.mu.Unlock()
}

// Send writes one text frame. Send errors are ignored: a dead socket is
// detected by its own read loop, which drives cleanup.
func (c *Client) Send(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hook != nil {
		c.hook(payload)
		return
	}
	if c.Conn == nil {
		return
	}
	_ = c.Conn.WriteMessage(websocket.TextMessage, payload)
}

// SendJSON marshals v and sends it as one frame.
func (c *Client) SendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Send(payload)
}
