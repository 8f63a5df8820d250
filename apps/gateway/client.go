package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/myst-6/messaging/pkg/presence"
	"github.com/myst-6/messaging/pkg/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send protocol-level pings with this period. Must be less than
	// pongWait. The room's own ping events ride on top of this.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	sendBufferSize = 256
)

// client bridges one websocket connection and the room coordinator. It
// implements presence.Conn: Send enqueues onto a buffered channel drained by
// writePump, so the coordinator never blocks on a slow peer.
type client struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	room   *room.Room
	userID string
	logger *slog.Logger
}

func newClient(conn *websocket.Conn, r *room.Room, userID string, logger *slog.Logger) *client {
	return &client{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		room:   r,
		userID: userID,
		logger: logger.With("room", r.ID(), "user", userID),
	}
}

// Send implements presence.Conn. A full buffer means the peer stopped
// draining; report the connection dead rather than block the room.
func (c *client) Send(payload []byte) error {
	select {
	case <-c.done:
		return presence.ErrConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return fmt.Errorf("%w: send buffer full", presence.ErrConnClosed)
	}
}

// IsOpen implements presence.Conn.
func (c *client) IsOpen() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close implements presence.Conn. Idempotent; the pumps observe done and
// shut the underlying socket.
func (c *client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// readPump pumps frames from the websocket into the coordinator. It runs in
// its own goroutine; on exit the participant is disconnected.
func (c *client) readPump() {
	defer func() {
		// Identity-aware teardown: if a rejoin already replaced this
		// connection, the replacement must stay registered.
		c.room.DisconnectConn(c.userID, c)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("read error", "error", err)
			}
			return
		}
		if err := c.room.HandleInbound(context.Background(), c.userID, raw); err != nil {
			c.logger.Warn("inbound frame rejected", "error", err)
		}
	}
}

// writePump pumps queued events to the websocket and keeps the transport
// alive with protocol pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				c.teardown()
				return
			}
			w.Write(payload)
			if err := w.Close(); err != nil {
				c.teardown()
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.teardown()
				return
			}
		}
	}
}

// teardown reports a broken transport back to the coordinator. Scoped to
// this connection so it cannot evict a replacement after a rejoin.
func (c *client) teardown() {
	c.Close()
	c.room.DisconnectConn(c.userID, c)
}
