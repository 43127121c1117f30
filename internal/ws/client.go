// internal/ws/client.go
package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	sendBuffer   = 64
	pingInterval = 15 * time.Second
	writeTimeout = 5 * time.Second
)

// client is one live connection. The read loop owns limiter and room; the
// write pump owns the socket's write side and drains send until it closes.
type client struct {
	id      string
	name    string
	room    string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rateLimiter
	log     *logrus.Entry
}

func newClient(id string, conn *websocket.Conn, log *logrus.Logger) *client {
	return &client{
		id:      id,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		limiter: newRateLimiter(),
		log:     log.WithField("conn", id),
	}
}

// writePump serializes all socket writes and keeps the connection alive
// with periodic pings. Exits when the send channel closes or a write fails.
func (c *client) writePump(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// drops the frame; the client resynchronizes from the next snapshot.
func (c *client) enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		c.log.Warn("send buffer full, dropping frame")
	}
}

func (c *client) sendJSON(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.WithError(err).Error("marshal outbound frame")
		return
	}
	c.enqueue(b)
}
