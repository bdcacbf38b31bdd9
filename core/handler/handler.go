package handler

import (
	"net/http"
)

// HandlerFunc handles a matched request by filling in the response.
// A returned error aborts the request; errors carrying a status code
// (see HTTPError) select that status, anything else maps to 500.
type HandlerFunc func(req *Request, res *Response) error

// Action is the outcome of a pipeline hook.
type Action uint8

const (
	// Continue lets the pipeline proceed.
	Continue Action = iota
	// Halt stops the current phase; in the before phase the handler is skipped too.
	Halt
)

func (a Action) String() string {
	if a == Halt {
		return "halt"
	}
	return "continue"
}

// Phase selects when a hook runs relative to the handler.
type Phase uint8

const (
	Before Phase = iota
	After
)

func (p Phase) String() string {
	if p == After {
		return "after"
	}
	return "before"
}

// HookFunc is a named pipeline step. Hooks communicate with each other and
// with the handler through the request attribute store.
type HookFunc func(req *Request, res *Response) (Action, error)

// Hook binds a HookFunc to its name and phase.
type Hook struct {
	Name  string
	Phase Phase
	Func  HookFunc
}

// ErrorHandlerFunc renders the response for a failed request.
// The response has already been reset and carries the failure status.
type ErrorHandlerFunc func(req *Request, res *Response, err error)

// Wrap adapts a standard http.Handler into a HandlerFunc.
func Wrap(h http.Handler) HandlerFunc {
	return func(req *Request, res *Response) error {
		h.ServeHTTP(res, req.Raw())
		return nil
	}
}
