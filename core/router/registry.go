package router

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
)

// ErrorRegistry maps HTTP status codes to fallback error handlers.
// Defaults exist for 404, 405 and 500; other statuses without a registered
// handler use DefaultErrorHandler.
type ErrorRegistry struct {
	handlers map[int]handler.ErrorHandlerFunc
}

// NewErrorRegistry returns a registry holding the default handlers.
func NewErrorRegistry() *ErrorRegistry {
	return &ErrorRegistry{
		handlers: map[int]handler.ErrorHandlerFunc{
			http.StatusNotFound:            NotFoundHandler,
			http.StatusMethodNotAllowed:    DefaultErrorHandler,
			http.StatusInternalServerError: DefaultErrorHandler,
		},
	}
}

// Register sets the handler for status. Registering a status twice keeps the last handler.
func (r *ErrorRegistry) Register(status int, fn handler.ErrorHandlerFunc) error {
	if status < 400 || status > 599 {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, status)
	}
	if fn == nil {
		return fmt.Errorf("%w: %d", ErrNilHandler, status)
	}
	r.handlers[status] = fn
	return nil
}

// Resolve returns the handler for status, falling back to DefaultErrorHandler.
func (r *ErrorRegistry) Resolve(status int) handler.ErrorHandlerFunc {
	if fn, ok := r.handlers[status]; ok {
		return fn
	}
	return DefaultErrorHandler
}

func (r *ErrorRegistry) clone() *ErrorRegistry {
	return &ErrorRegistry{handlers: maps.Clone(r.handlers)}
}

// errorBody is the JSON shape written by the built-in handlers.
type errorBody struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}

// DefaultErrorHandler writes a short body naming the status.
// Only messages of explicit aborts are shown; other error text stays in the logs.
func DefaultErrorHandler(req *handler.Request, res *handler.Response, err error) {
	status := res.Status()
	body := errorBody{Status: status, Error: http.StatusText(status)}
	if status < 500 {
		body.Message = abortMessage(err, body.Error)
	}
	writeError(req, res, body)
}

// NotFoundHandler is the default 404 handler; its body names the unmatched path.
func NotFoundHandler(req *handler.Request, res *handler.Response, err error) {
	status := res.Status()
	body := errorBody{Status: status, Error: http.StatusText(status), Path: req.Path()}
	body.Message = abortMessage(err, body.Error)
	writeError(req, res, body)
}

// abortMessage returns the message of an explicit abort in err's chain
// unless it only repeats the status text.
func abortMessage(err error, statusText string) string {
	var he *handler.HTTPError
	if !errors.As(err, &he) || he.Message == statusText {
		return ""
	}
	return he.Message
}

func writeError(req *handler.Request, res *handler.Response, body errorBody) {
	if body.Error == "" {
		body.Error = "Error"
	}
	if wantsJSON(req) {
		if err := res.JSON(body.Status, body); err == nil {
			return
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", body.Status, body.Error)
	if body.Path != "" {
		b.WriteString(": " + body.Path)
	}
	if body.Message != "" {
		b.WriteString("\n" + body.Message)
	}
	res.Text(body.Status, b.String())
}

func wantsJSON(req *handler.Request) bool {
	return strings.Contains(req.Header("Accept"), "application/json") ||
		strings.HasPrefix(req.Header("Content-Type"), "application/json")
}
