package session

import "errors"

var (
	// ErrEmptyKey is returned when an operation is called with an empty key.
	ErrEmptyKey = errors.New("session key is empty")
	// ErrAlreadyStarted is returned by Start when the sweeper is already running.
	ErrAlreadyStarted = errors.New("session sweeper already started")
	// ErrNotStarted is returned by Stop when the sweeper is not running.
	ErrNotStarted = errors.New("session sweeper not started")
	// ErrSweepDisabled is returned by Start when the sweep interval is not positive.
	ErrSweepDisabled = errors.New("session sweep interval must be positive")
	// ErrShutdownTimeout is returned by Stop when an in-flight sweep outlives the timeout.
	ErrShutdownTimeout = errors.New("session sweeper shutdown timeout exceeded")
	// ErrEncode and ErrDecode wrap serialization failures of persistent stores.
	ErrEncode = errors.New("failed to encode session value")
	ErrDecode = errors.New("failed to decode session value")
)
