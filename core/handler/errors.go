package handler

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrAlreadyFinalized = errors.New("response already finalized")
	ErrNotHijackable    = errors.New("response writer does not support hijacking")
	ErrBodyTooLarge     = errors.New("request body too large")
	ErrAbandoned        = errors.New("response abandoned after timeout")
)

// HTTPError is the explicit "abort with status" outcome of a handler or hook.
type HTTPError struct {
	Status  int
	Message string
	Err     error
	// Header is added to the error response.
	Header http.Header
}

// Abort returns an HTTPError with the given status.
// Statuses outside the 4xx/5xx range are replaced with 500.
func Abort(status int, message ...string) *HTTPError {
	if status < 400 || status > 599 {
		status = http.StatusInternalServerError
	}
	e := &HTTPError{Status: status}
	if len(message) > 0 {
		e.Message = message[0]
	}
	return e
}

// AbortWith is like Abort but records the underlying cause.
func AbortWith(status int, err error) *HTTPError {
	e := Abort(status)
	e.Err = err
	return e
}

func (e *HTTPError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%d %s: %v", e.Status, msg, e.Err)
	}
	return fmt.Sprintf("%d %s", e.Status, msg)
}

// StatusCode implements the status carrier interface.
func (e *HTTPError) StatusCode() int { return e.Status }

func (e *HTTPError) Unwrap() error { return e.Err }

// WithHeader sets a header on the error response and returns e.
func (e *HTTPError) WithHeader(key, value string) *HTTPError {
	if e.Header == nil {
		e.Header = make(http.Header)
	}
	e.Header.Set(key, value)
	return e
}

// Headers implements the header carrier interface.
func (e *HTTPError) Headers() http.Header { return e.Header }

// ErrorHeaders collects headers from every error in err's chain that
// exposes Headers() http.Header.
func ErrorHeaders(err error) http.Header {
	var out http.Header
	for err != nil {
		if hc, ok := err.(interface{ Headers() http.Header }); ok {
			for k, v := range hc.Headers() {
				if out == nil {
					out = make(http.Header)
				}
				out[k] = append(out[k], v...)
			}
		}
		err = errors.Unwrap(err)
	}
	return out
}

// statusCode is implemented by errors that select their own HTTP status.
type statusCode interface {
	StatusCode() int
}

// StatusCode returns the HTTP status carried by err, or 500.
func StatusCode(err error) int {
	var sc statusCode
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 400 && s <= 599 {
			return s
		}
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message an error chose to expose to clients.
// Only HTTPError messages are public; other errors yield the status text.
func PublicMessage(err error) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return http.StatusText(StatusCode(err))
}
