package handler

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
)

// Response accumulates status, headers and body for one request and is
// written to the client exactly once by Finalize.
// Response implements http.ResponseWriter so standard handlers can write into it.
type Response struct {
	status    int
	header    http.Header
	body      bytes.Buffer
	conn      http.ResponseWriter
	finalized bool

	// mu orders Hijack against Abandon; only one of them can win.
	mu        sync.Mutex
	hijacked  bool
	abandoned bool
}

// NewResponse returns an empty response with status 200.
// conn is the client connection writer; it is only used for Hijack and may be nil.
func NewResponse(conn http.ResponseWriter) *Response {
	return &Response{
		status: http.StatusOK,
		header: make(http.Header),
		conn:   conn,
	}
}

// Header returns the header map sent at finalization.
func (r *Response) Header() http.Header { return r.header }

// Status returns the current status code.
func (r *Response) Status() int { return r.status }

// SetStatus sets the status code.
func (r *Response) SetStatus(code int) { r.status = code }

// WriteHeader sets the status code. Unlike a live connection, it may be called repeatedly.
func (r *Response) WriteHeader(code int) { r.status = code }

// Write appends to the body.
func (r *Response) Write(p []byte) (int, error) { return r.body.Write(p) }

// WriteString appends to the body.
func (r *Response) WriteString(s string) (int, error) { return r.body.WriteString(s) }

// Body returns the accumulated body.
func (r *Response) Body() []byte { return r.body.Bytes() }

// Reset discards status, headers and body accumulated so far.
func (r *Response) Reset() {
	r.status = http.StatusOK
	r.header = make(http.Header)
	r.body.Reset()
}

// Text replaces the body with a plain text payload.
func (r *Response) Text(status int, s string) {
	r.body.Reset()
	r.status = status
	r.header.Set("Content-Type", "text/plain; charset=utf-8")
	r.body.WriteString(s)
}

// HTML replaces the body with an HTML payload.
func (r *Response) HTML(status int, s string) {
	r.body.Reset()
	r.status = status
	r.header.Set("Content-Type", "text/html; charset=utf-8")
	r.body.WriteString(s)
}

// JSON replaces the body with v encoded as JSON.
func (r *Response) JSON(status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode json response: %w", err)
	}
	r.body.Reset()
	r.status = status
	r.header.Set("Content-Type", "application/json; charset=utf-8")
	r.body.Write(data)
	r.body.WriteByte('\n')
	return nil
}

// Redirect sets a redirect to url. Non-3xx statuses are replaced with 302.
func (r *Response) Redirect(status int, url string) {
	if status < 300 || status > 399 {
		status = http.StatusFound
	}
	r.body.Reset()
	r.status = status
	r.header.Set("Location", url)
}

// SetCookie adds a Set-Cookie header.
func (r *Response) SetCookie(c *http.Cookie) {
	if v := c.String(); v != "" {
		r.header.Add("Set-Cookie", v)
	}
}

// Hijack takes over the client connection. After a successful hijack
// Finalize writes nothing. It fails with ErrAbandoned once the response
// has been abandoned.
func (r *Response) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.abandoned {
		return nil, nil, ErrAbandoned
	}
	hj, ok := r.conn.(http.Hijacker)
	if !ok {
		return nil, nil, ErrNotHijackable
	}
	c, rw, err := hj.Hijack()
	if err != nil {
		return nil, nil, err
	}
	r.hijacked = true
	return c, rw, nil
}

// Hijacked reports whether the connection was taken over. It is safe to call
// from another goroutine.
func (r *Response) Hijacked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hijacked
}

// Abandon marks the response as given up by the dispatcher, so a later
// Hijack fails. It returns false if the connection was already hijacked,
// in which case the handler keeps it.
func (r *Response) Abandon() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hijacked {
		return false
	}
	r.abandoned = true
	return true
}

// Finalized reports whether Finalize has run.
func (r *Response) Finalized() bool { return r.finalized }

// Finalize writes the accumulated response to w. It succeeds once;
// later calls return ErrAlreadyFinalized.
func (r *Response) Finalize(w http.ResponseWriter) error {
	if r.finalized {
		return ErrAlreadyFinalized
	}
	r.finalized = true
	if r.Hijacked() {
		return nil
	}

	dst := w.Header()
	for k, v := range r.header {
		dst[k] = v
	}
	status := r.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if r.body.Len() > 0 {
		if _, err := w.Write(r.body.Bytes()); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}
