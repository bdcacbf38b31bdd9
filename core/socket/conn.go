package socket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/routekit/core/logger"
)

// Conn is one client connection registered with a Hub.
type Conn struct {
	id       string
	identity any
	ws       *websocket.Conn
	hub      *Hub
	send     chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// ID returns the connection id assigned at upgrade.
func (c *Conn) ID() string { return c.id }

// Identity returns the request identity captured at upgrade, if any.
func (c *Conn) Identity() any { return c.identity }

// Hub returns the hub the connection belongs to.
func (c *Conn) Hub() *Hub { return c.hub }

// Context is cancelled when the connection closes or the hub shuts down.
func (c *Conn) Context() context.Context { return c.ctx }

// Emit queues an event for this connection only.
func (c *Conn) Emit(event string, data any) error {
	frame, err := encode(event, data)
	if err != nil {
		return err
	}
	return c.enqueue(frame)
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() {
	c.once.Do(func() {
		c.cancel()
		_ = c.ws.Close()
	})
}

func (c *Conn) enqueue(frame []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.ctx.Done():
		return ErrConnClosed
	default:
		c.Close()
		return ErrSlowConsumer
	}
}

func (c *Conn) writePump() {
	ping := time.NewTicker(c.hub.pongWait * 9 / 10)
	defer func() {
		ping.Stop()
		c.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.ctx.Done():
			_ = c.ws.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.hub.writeWait),
			)
			return
		}
	}
}

func (c *Conn) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(c.hub.maxMessage)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.hub.pongWait))
	})

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.DebugContext(c.ctx, "socket read failed", logger.ID("conn_id", c.id), logger.Error(err))
			}
			return
		}
		c.hub.handle(c, msg)
	}
}
