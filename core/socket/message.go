package socket

import (
	"encoding/json"
	"fmt"
)

// Message is the frame exchanged with clients: {"event": "...", "data": ...}.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EventFunc handles one inbound event.
type EventFunc func(c *Conn, data json.RawMessage) error

// ErrorEvent is the event name used to report handler failures to a client.
const ErrorEvent = "error"

func encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	msg := Message{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("socket: encode %q: %w", event, err)
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}
