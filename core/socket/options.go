package socket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultBufferSize = 1024
	defaultSendQueue  = 64
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultMaxMessage = 64 << 10
)

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithBufferSizes sets the upgrader read and write buffer sizes.
func WithBufferSizes(read, write int) Option {
	return func(h *Hub) {
		if read > 0 {
			h.upgrader.ReadBufferSize = read
		}
		if write > 0 {
			h.upgrader.WriteBufferSize = write
		}
	}
}

// WithHandshakeTimeout bounds the opening handshake.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(h *Hub) { h.upgrader.HandshakeTimeout = d }
}

// WithOriginCheck replaces the default same-origin check.
func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(h *Hub) { h.upgrader.CheckOrigin = fn }
}

// WithAllowAnyOrigin accepts handshakes from every origin.
func WithAllowAnyOrigin() Option {
	return WithOriginCheck(func(*http.Request) bool { return true })
}

// WithSubprotocols sets the supported subprotocols in preference order.
func WithSubprotocols(protocols ...string) Option {
	return func(h *Hub) { h.upgrader.Subprotocols = protocols }
}

// WithSendQueue sets how many outbound frames may wait per connection.
// A connection whose queue is full is closed.
func WithSendQueue(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendQueue = n
		}
	}
}

// WithKeepAlive sets the pong deadline. Pings go out at 9/10 of it.
func WithKeepAlive(pongWait time.Duration) Option {
	return func(h *Hub) {
		if pongWait > 0 {
			h.pongWait = pongWait
		}
	}
}

// WithWriteWait bounds a single frame write.
func WithWriteWait(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeWait = d
		}
	}
}

// WithMaxMessageSize limits inbound frame size in bytes.
func WithMaxMessageSize(n int64) Option {
	return func(h *Hub) {
		if n > 0 {
			h.maxMessage = n
		}
	}
}

// OnConnect registers a callback run after a connection joins the hub.
func OnConnect(fn func(*Conn)) Option {
	return func(h *Hub) { h.onConnect = fn }
}

// OnDisconnect registers a callback run after a connection leaves the hub.
func OnDisconnect(fn func(*Conn)) Option {
	return func(h *Hub) { h.onDisconnect = fn }
}

func defaultUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  defaultBufferSize,
		WriteBufferSize: defaultBufferSize,
	}
}
