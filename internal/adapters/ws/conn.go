// Package ws adapts gorilla/websocket connections to the hub's Conn
// interface: a buffered outbound channel drained by a write pump, and a
// read pump that feeds inbound frames into the hub.
package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

type Conn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newConn(conn *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// TrySend queues a frame without blocking. A full buffer reports
// backpressure instead of stalling the hub.
func (c *Conn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close stops accepting new frames. The write pump owns the socket: it
// drains whatever was queued before Close and only then tears the
// transport down, so a notice sent right before Close still reaches the
// client.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}
