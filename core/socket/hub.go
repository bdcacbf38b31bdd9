package socket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/logger"
)

// Hub upgrades requests to WebSocket connections and routes JSON events
// between them.
type Hub struct {
	upgrader   websocket.Upgrader
	logger     *slog.Logger
	sendQueue  int
	writeWait  time.Duration
	pongWait   time.Duration
	maxMessage int64

	onConnect    func(*Conn)
	onDisconnect func(*Conn)

	mu     sync.RWMutex
	events map[string]EventFunc
	conns  map[string]*Conn
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub returns a hub ready to accept connections.
func NewHub(opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		upgrader:   defaultUpgrader(),
		logger:     logger.Discard(),
		sendQueue:  defaultSendQueue,
		writeWait:  defaultWriteWait,
		pongWait:   defaultPongWait,
		maxMessage: defaultMaxMessage,
		events:     make(map[string]EventFunc),
		conns:      make(map[string]*Conn),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// On registers fn for inbound frames named event, replacing any previous one.
func (h *Hub) On(event string, fn EventFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[event] = fn
}

// Handler returns a route handler that upgrades the request and serves the
// connection until it closes.
func (h *Hub) Handler() handler.HandlerFunc {
	return func(req *handler.Request, res *handler.Response) error {
		if h.isClosed() {
			return handler.AbortWith(http.StatusServiceUnavailable, ErrHubClosed)
		}
		ws, err := h.upgrader.Upgrade(res, req.Raw(), nil)
		if err != nil {
			if res.Hijacked() {
				return nil
			}
			return handler.AbortWith(http.StatusBadRequest, fmt.Errorf("%w: %w", ErrUpgrade, err))
		}

		c := h.join(ws, req.Identity())
		if c == nil {
			_ = ws.Close()
			return nil
		}
		h.serve(c)
		return nil
	}
}

func (h *Hub) join(ws *websocket.Conn, identity any) *Conn {
	ctx, cancel := context.WithCancel(h.ctx)
	c := &Conn{
		id:       uuid.NewString(),
		identity: identity,
		ws:       ws,
		hub:      h,
		send:     make(chan []byte, h.sendQueue),
		ctx:      ctx,
		cancel:   cancel,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		cancel()
		return nil
	}
	h.conns[c.id] = c
	h.wg.Add(1)
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "socket connected", logger.ID("conn_id", c.id))
	if h.onConnect != nil {
		h.onConnect(c)
	}
	return c
}

func (h *Hub) serve(c *Conn) {
	defer h.wg.Done()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()
	c.readPump()
	<-done

	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	h.logger.DebugContext(h.ctx, "socket disconnected", logger.ID("conn_id", c.id))
	if h.onDisconnect != nil {
		h.onDisconnect(c)
	}
}

func (h *Hub) handle(c *Conn, msg Message) {
	h.mu.RLock()
	fn, ok := h.events[msg.Event]
	h.mu.RUnlock()
	if !ok {
		h.logger.DebugContext(c.ctx, "socket event has no handler", logger.Event(msg.Event), logger.ID("conn_id", c.id))
		return
	}

	if err := safeCall(fn, c, msg.Data); err != nil {
		h.logger.WarnContext(c.ctx, "socket event failed",
			logger.Event(msg.Event),
			logger.ID("conn_id", c.id),
			logger.Error(err),
		)
		_ = c.Emit(ErrorEvent, map[string]string{
			"event":   msg.Event,
			"message": handler.PublicMessage(err),
		})
	}
}

func safeCall(fn EventFunc, c *Conn, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("socket: event handler panic: %v", r)
		}
	}()
	return fn(c, data)
}

// Broadcast sends an event to every connection. Frames that cannot be
// queued close their connection; those failures are joined into the result.
func (h *Hub) Broadcast(event string, data any) error {
	frame, err := encode(event, data)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range h.snapshot() {
		if err := c.enqueue(frame); err != nil && !errors.Is(err, ErrConnClosed) {
			errs = append(errs, fmt.Errorf("conn %s: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}

// Send delivers an event to the connection with the given id.
func (h *Hub) Send(id, event string, data any) error {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return ErrConnNotFound
	}
	return c.Emit(event, data)
}

// Disconnect closes the connection with the given id.
func (h *Hub) Disconnect(id string) error {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return ErrConnNotFound
	}
	c.Close()
	return nil
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// IDs returns the ids of open connections.
func (h *Hub) IDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	return ids
}

// Close closes every connection and waits for them to drain or ctx to end.
// New upgrades are refused afterwards.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) snapshot() []*Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Conn, 0, len(h.conns))
	for _, c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}
