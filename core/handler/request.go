package handler

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultMaxBodySize caps how much of a request body Body reads.
const DefaultMaxBodySize int64 = 10 << 20

// RouteInfo describes the route a request was matched to.
// It is zero for requests that did not match.
type RouteInfo struct {
	Pattern   string
	Name      string
	Blueprint string
}

type identityKey struct{}

// Request is the per-request context handed to hooks and handlers.
// Everything except the attribute store is read-only after construction.
// Request implements context.Context by delegating to the underlying request context.
type Request struct {
	r      *http.Request
	path   string
	route  RouteInfo
	params Params

	bodyOnce sync.Once
	body     []byte
	bodyErr  error
	maxBody  int64

	formOnce sync.Once
	form     url.Values
	formErr  error

	mu    sync.RWMutex
	attrs map[any]any
}

// NewRequest wraps r. path is the normalized request path used for matching.
func NewRequest(r *http.Request, path string, route RouteInfo, params Params) *Request {
	return &Request{
		r:       r,
		path:    path,
		route:   route,
		params:  params,
		maxBody: DefaultMaxBodySize,
	}
}

// Deadline delegates to the underlying request context.
func (r *Request) Deadline() (time.Time, bool) {
	return r.r.Context().Deadline()
}

// Done delegates to the underlying request context.
func (r *Request) Done() <-chan struct{} {
	return r.r.Context().Done()
}

// Err delegates to the underlying request context.
func (r *Request) Err() error {
	return r.r.Context().Err()
}

// Value returns the attribute stored under key, falling back to the request context.
func (r *Request) Value(key any) any {
	r.mu.RLock()
	v, ok := r.attrs[key]
	r.mu.RUnlock()
	if ok {
		return v
	}
	return r.r.Context().Value(key)
}

// Raw returns the underlying *http.Request.
func (r *Request) Raw() *http.Request { return r.r }

// Method returns the request method.
func (r *Request) Method() string { return r.r.Method }

// Path returns the normalized request path.
func (r *Request) Path() string { return r.path }

// URL returns the request URL.
func (r *Request) URL() *url.URL { return r.r.URL }

// Route returns the matched route description.
func (r *Request) Route() RouteInfo { return r.route }

// Header returns the named request header.
func (r *Request) Header(name string) string { return r.r.Header.Get(name) }

// Headers returns all request headers.
func (r *Request) Headers() http.Header { return r.r.Header }

// Query returns the first value of the named query parameter.
func (r *Request) Query(name string) string { return r.r.URL.Query().Get(name) }

// FormValue returns the first value for the named form field, or "" when
// the form cannot be parsed.
func (r *Request) FormValue(name string) string {
	form, _ := r.Form()
	return form.Get(name)
}

// Form returns the urlencoded body fields followed by the query parameters.
// The body is read through Body, so it stays available to later readers and
// the body size limit applies. Multipart bodies are not parsed.
func (r *Request) Form() (url.Values, error) {
	r.formOnce.Do(func() {
		form := make(url.Values)
		if r.hasFormBody() {
			body, err := r.Body()
			if err != nil {
				r.formErr = err
				return
			}
			values, err := url.ParseQuery(string(body))
			if err != nil {
				r.formErr = fmt.Errorf("parse form: %w", err)
				return
			}
			form = values
		}
		for k, vs := range r.r.URL.Query() {
			form[k] = append(form[k], vs...)
		}
		r.form = form
	})
	return r.form, r.formErr
}

func (r *Request) hasFormBody() bool {
	switch r.r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	mt, _, _ := mime.ParseMediaType(r.r.Header.Get("Content-Type"))
	return mt == "application/x-www-form-urlencoded"
}

// Cookie returns the named request cookie.
func (r *Request) Cookie(name string) (*http.Cookie, error) { return r.r.Cookie(name) }

// Params returns the bound path parameters.
func (r *Request) Params() Params { return r.params }

// Param returns the converted value of a path parameter, or nil.
func (r *Request) Param(name string) any {
	v, _ := r.params.Get(name)
	return v
}

// ParamInt returns an int path parameter.
func (r *Request) ParamInt(name string) (int, bool) { return r.params.Int(name) }

// ParamFloat returns a float path parameter.
func (r *Request) ParamFloat(name string) (float64, bool) { return r.params.Float(name) }

// ParamString returns a str or path parameter.
func (r *Request) ParamString(name string) string {
	s, _ := r.params.String(name)
	return s
}

// SetMaxBodySize changes the limit applied by Body. It has no effect once
// the body has been read.
func (r *Request) SetMaxBodySize(n int64) {
	if n > 0 {
		r.maxBody = n
	}
}

// Body reads and caches the request body.
func (r *Request) Body() ([]byte, error) {
	r.bodyOnce.Do(func() {
		if r.r.Body == nil {
			return
		}
		defer r.r.Body.Close()
		data, err := io.ReadAll(io.LimitReader(r.r.Body, r.maxBody+1))
		if err != nil {
			r.bodyErr = fmt.Errorf("read request body: %w", err)
			return
		}
		if int64(len(data)) > r.maxBody {
			r.bodyErr = ErrBodyTooLarge
			return
		}
		r.body = data
	})
	return r.body, r.bodyErr
}

// Set stores a value in the request attribute store.
func (r *Request) Set(key, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attrs == nil {
		r.attrs = make(map[any]any)
	}
	r.attrs[key] = value
}

// Get returns a value from the request attribute store.
func (r *Request) Get(key any) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.attrs[key]
	return v, ok
}

// SetIdentity publishes the authenticated identity for later hooks and the handler.
func (r *Request) SetIdentity(identity any) {
	r.Set(identityKey{}, identity)
}

// Identity returns the identity set by an earlier hook, or nil.
func (r *Request) Identity() any {
	v, _ := r.Get(identityKey{})
	return v
}

// Attr is a typed accessor over the request attribute store.
func Attr[T any](r *Request, key any) (T, bool) {
	v, ok := r.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
