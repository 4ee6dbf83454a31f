package session

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drawsync/pkg/logger"
)

const (
	// pongWait bounds how long a silent peer stays registered; pings go
	// out at a fraction of it.
	pongWait     = 60 * time.Second
	pingInterval = pongWait * 9 / 10
)

// Conn owns one live WebSocket for its whole lifetime: a single reader
// goroutine (the handler's loop) and a single writer goroutine draining
// the send buffer under a write deadline, so one slow peer never stalls a
// broadcast.
type Conn struct {
	id       string
	identity string
	ws       *websocket.Conn

	send chan []byte
	done chan struct{}

	closeOnce    sync.Once
	writeTimeout time.Duration
}

func newConn(id, identity string, ws *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           id,
		identity:     identity,
		ws:           ws,
		send:         make(chan []byte, sendBuffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// TrySend queues msg for delivery without blocking. False means the
// connection is closed or its buffer is full; the caller drops the message
// for this recipient.
func (c *Conn) TrySend(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close tears the transport down. Safe to call from both pumps.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// writePump drains the send buffer onto the wire and keeps the peer alive
// with pings. Any write error ends the connection; a WebSocket deadline
// miss is not recoverable.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("conn_write_failed", "conn", c.id, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
