package socket

import "errors"

var (
	ErrConnNotFound = errors.New("socket: connection not found")
	ErrConnClosed   = errors.New("socket: connection closed")
	ErrHubClosed    = errors.New("socket: hub closed")
	ErrSlowConsumer = errors.New("socket: send buffer full")
	ErrEmptyEvent   = errors.New("socket: event name is empty")
	ErrUpgrade      = errors.New("socket: upgrade failed")
)
