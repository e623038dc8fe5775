package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mossgate/voxelgarden/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// quit ends the write pump. The send channel itself is never closed:
	// relays enqueue from other clients' read goroutines, so a close could
	// race a concurrent send.
	quit     chan struct{}
	quitOnce sync.Once

	id       string // connection id, assigned at upgrade
	avatarID string // set on join, guarded by hub.clientsMux
	position protocol.Vec3

	logger *slog.Logger
}

// shutdown stops the write pump. Safe to call repeatedly and concurrently.
func (c *Client) shutdown() {
	c.quitOnce.Do(func() { close(c.quit) })
}

// readPump pumps messages from the websocket connection into the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
		c.logger.Info("read pump finished")
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
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		receivedClientBytes.Add(float64(len(raw)))

		env, err := protocol.Decode(raw)
		if err != nil {
			c.logger.Warn("malformed client frame", "error", err)
			continue
		}
		receivedClientMessages.WithLabelValues(string(env.Type)).Inc()
		c.handleEnvelope(env)
	}
}

// writePump pumps queued messages out to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.Info("write pump finished")
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("write error", "error", err)
				return
			}
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("ping error", "error", err)
				return
			}
		}
	}
}

func (c *Client) handleEnvelope(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeJoin:
		var join protocol.Join
		if err := env.Payload(&join); err != nil {
			c.logger.Warn("bad join payload", "error", err)
			return
		}
		c.hub.handleJoin(c, join)
	case protocol.TypeMove:
		var move protocol.Move
		if err := env.Payload(&move); err != nil {
			return
		}
		c.hub.handleMove(c, move)
	case protocol.TypeSpeak:
		var speak protocol.Speak
		if err := env.Payload(&speak); err != nil {
			return
		}
		c.hub.handleSpeak(c, speak)
	case protocol.TypeBuild:
		var build protocol.Build
		if err := env.Payload(&build); err != nil {
			return
		}
		c.hub.handleBuild(c, build)
	case protocol.TypeDestroy:
		var destroy protocol.Destroy
		if err := env.Payload(&destroy); err != nil {
			return
		}
		c.hub.handleDestroy(c, destroy)
	case protocol.TypeLeave:
		// Treated as disconnect intent; the read pump's teardown handles the
		// actual unregistration when the connection drops.
		c.logger.Info("leave announced", "avatarId", c.avatarID)
	default:
		c.logger.Warn("unknown client message", "type", env.Type)
	}
}

// enqueue serializes env onto the client's send queue without blocking; a
// slow or departed consumer loses messages rather than stalling the hub.
func (c *Client) enqueue(env protocol.Envelope) {
	data, err := env.Marshal()
	if err != nil {
		c.logger.Error("marshal server message", "type", env.Type, "error", err)
		return
	}
	select {
	case <-c.quit:
		return
	default:
	}
	select {
	case c.send <- data:
		sentServerMessages.WithLabelValues(string(env.Type)).Inc()
		sentServerBytes.Add(float64(len(data)))
	default:
		c.logger.Warn("send buffer full, dropping message", "type", env.Type)
		droppedServerMessages.WithLabelValues(string(env.Type)).Inc()
	}
}
