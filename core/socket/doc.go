// Package socket serves WebSocket connections from a router route and routes
// JSON event frames between them.
//
// A Hub upgrades the request through the route's Response, which implements
// http.Hijacker, and then owns the connection until it closes. Each frame is
// an object of the form {"event": "name", "data": ...}:
//
//	hub := socket.NewHub(socket.WithLogger(log))
//	hub.On("chat", func(c *socket.Conn, data json.RawMessage) error {
//		return c.Hub().Broadcast("chat", data)
//	})
//	app.Get("/ws", hub.Handler())
//
// Outbound frames are queued per connection and written by a single writer
// goroutine that also sends pings. A connection whose queue fills up is
// closed rather than allowed to stall broadcasts.
package socket
