package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a single frame write may block.
	writeWait = 10 * time.Second
	// pongWait is how long we keep a connection without hearing a pong.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// sendBuffer is the per-client outbound queue; a client that falls this
	// far behind is disconnected rather than allowed to stall broadcasts.
	sendBuffer = 64
)

// Client is one websocket connection.  The read loop lives in the handler;
// writePump is the only goroutine allowed to write to the connection.
type Client struct {
	id     string // connection ID, unique per socket
	userID string // authenticated user behind the connection

	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id, userID string, conn *websocket.Conn) *Client {
	return &Client{
		id:     id,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues a frame for delivery and reports false when the client's
// buffer is full.  It never blocks; callers decide what to do with slow
// clients.  The send channel is never closed (a concurrent broadcast may
// still hold a reference), so shutdown is signalled through done instead.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return true // client is gone; drop the frame quietly
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// close tears the connection down once.  Signalling done ends the write
// pump; closing the socket ends the read loop.
func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with periodic pings.  It exits when the client is
// closed or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
