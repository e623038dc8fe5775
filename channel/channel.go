// Package channel implements the persistent websocket channel between a
// garden client and the world server. Reads and writes each run on their own
// pump goroutine; callers interact only through the non-blocking Send and
// the buffered Inbound queue.
package channel

import (
	"context"
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

	sendBuffer    = 64
	inboundBuffer = 256
)

// Channel is a live connection to the world server.
type Channel struct {
	conn    *websocket.Conn
	send    chan []byte
	inbound chan protocol.Envelope
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// Dial connects to the server's websocket endpoint and starts the pumps.
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	c := &Channel{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		inbound: make(chan protocol.Envelope, inboundBuffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		logger:  logger.With("component", "channel", "url", url),
	}
	go c.readPump()
	go c.writePump()
	c.logger.Info("connected")
	return c, nil
}

// Send queues an envelope for transmission. It never blocks: when the writer
// is backed up the message is dropped and counted, because a stale position
// update is worth less than a stalled frame.
func (c *Channel) Send(env protocol.Envelope) {
	data, err := env.Marshal()
	if err != nil {
		c.logger.Error("marshal outbound", "type", env.Type, "error", err)
		return
	}
	select {
	case c.send <- data:
		sentMessages.WithLabelValues(string(env.Type)).Inc()
		sentBytes.Add(float64(len(data)))
	default:
		droppedMessages.WithLabelValues(string(env.Type)).Inc()
		c.logger.Warn("send buffer full, dropping message", "type", env.Type)
	}
}

// Inbound is the queue of messages received from the server. The consumer
// drains it on its own schedule; when the queue is full further messages are
// dropped and counted.
func (c *Channel) Inbound() <-chan protocol.Envelope {
	return c.inbound
}

// Close shuts the connection down. Safe to call repeatedly and concurrently.
func (c *Channel) Close() {
	c.once.Do(func() {
		close(c.quit)
	})
}

// Done is closed once the read pump has exited, whether by Close or by a
// connection failure.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) readPump() {
	defer close(c.done)
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Info("connection closed")
			} else {
				c.logger.Error("read error", "error", err)
			}
			return
		}
		receivedBytes.Add(float64(len(raw)))
		env, err := protocol.Decode(raw)
		if err != nil {
			c.logger.Warn("malformed inbound frame", "error", err)
			continue
		}
		receivedMessages.WithLabelValues(string(env.Type)).Inc()
		select {
		case c.inbound <- env:
		default:
			droppedInbound.Inc()
			c.logger.Warn("inbound queue full, dropping message", "type", env.Type)
		}
	}
}

func (c *Channel) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("write error", "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Error("ping error", "error", err)
				return
			}
		case <-c.quit:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
