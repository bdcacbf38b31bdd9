package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/route"
)

// Dispatcher is the built, read-only request entry point. It is safe for
// concurrent use.
type Dispatcher struct {
	table            *table
	pipeline         *Pipeline
	registry         *ErrorRegistry
	logger           *slog.Logger
	handlerTimeout   time.Duration
	observers        []Observer
	normalizeUnicode bool
}

// RouteDescription is a registered route as reported by Routes.
type RouteDescription struct {
	Pattern   string
	Methods   []string
	Blueprint string
	Name      string
}

// Routes lists the registered routes in registration order.
func (d *Dispatcher) Routes() []RouteDescription {
	out := make([]RouteDescription, len(d.table.routes))
	for i, r := range d.table.routes {
		out[i] = RouteDescription{
			Pattern:   r.Pattern(),
			Methods:   r.Methods(),
			Blueprint: r.Blueprint(),
			Name:      r.Name(),
		}
	}
	return out
}

// Resolve matches method and path against the route table.
func (d *Dispatcher) Resolve(method, path string) Resolution {
	return d.table.resolve(method, d.normalize(path))
}

func (d *Dispatcher) normalize(path string) string {
	if d.normalizeUnicode {
		path = norm.NFC.String(path)
	}
	return route.NormalizePath(path)
}

// ServeHTTP resolves the request, runs the pipeline around the handler and
// writes exactly one response. Failures never escape: they are rendered
// through the error registry.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if d.handlerTimeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), d.handlerTimeout)
		defer cancel()
		r = r.WithContext(ctx)
	}

	path := d.normalize(r.URL.Path)
	res := handler.NewResponse(w)
	resolution := d.table.resolve(r.Method, path)

	var (
		req     *handler.Request
		outcome Outcome
	)
	switch resolution.Kind {
	case Matched:
		rt := resolution.Route
		req = handler.NewRequest(r, path, handler.RouteInfo{
			Pattern:   rt.Pattern(),
			Name:      rt.Name(),
			Blueprint: rt.Blueprint(),
		}, resolution.Params)
		res, outcome = d.dispatch(req, res, rt)
	case MethodNotAllowed:
		req = handler.NewRequest(r, path, handler.RouteInfo{}, nil)
		allow := strings.Join(resolution.Allowed, ", ")
		err := handler.AbortWith(http.StatusMethodNotAllowed, fmt.Errorf("%w: %s", ErrMethodNotAllowed, r.Method)).
			WithHeader("Allow", allow)
		d.fail(req, res, http.StatusMethodNotAllowed, err)
		res.Header().Set("Allow", allow)
		outcome = OutcomeMethodNotAllowed
	default:
		req = handler.NewRequest(r, path, handler.RouteInfo{}, nil)
		d.fail(req, res, http.StatusNotFound, handler.AbortWith(http.StatusNotFound, ErrNotFound))
		outcome = OutcomeNotFound
	}

	if err := res.Finalize(w); err != nil {
		d.logger.Debug("finalize response", logger.Method(r.Method), logger.Path(path), logger.Error(err))
	}
	d.observe(req, res, outcome, time.Since(start))
}

// dispatch runs before hooks, the handler and after hooks for a matched route.
// It returns the response to finalize, which differs from res after a timeout.
func (d *Dispatcher) dispatch(req *handler.Request, res *handler.Response, rt *route.Route) (*handler.Response, Outcome) {
	ex := rt.Exclusions()

	action, err := d.pipeline.Run(handler.Before, req, res, ex)
	if err != nil {
		d.fail(req, res, handler.StatusCode(err), err)
		return res, OutcomeFailed
	}
	if action == handler.Halt {
		return res, OutcomeHalted
	}

	res, err = d.invoke(req, res, rt.Handler())
	if err != nil {
		d.fail(req, res, handler.StatusCode(err), err)
		if errors.Is(err, ErrHandlerTimeout) {
			return res, OutcomeTimeout
		}
		return res, OutcomeFailed
	}

	if _, err := d.pipeline.Run(handler.After, req, res, ex); err != nil {
		d.fail(req, res, handler.StatusCode(err), err)
		return res, OutcomeFailed
	}
	return res, OutcomeMatched
}

// invoke calls h. When the request context can be cancelled, h runs in its
// own goroutine and a cancellation abandons its response for a fresh one,
// unless the handler has hijacked the connection.
func (d *Dispatcher) invoke(req *handler.Request, res *handler.Response, h handler.HandlerFunc) (*handler.Response, error) {
	done := req.Done()
	if done == nil {
		return res, protect(func() error { return h(req, res) })
	}
	if err := req.Err(); err != nil {
		return res, timeoutError(err)
	}

	result := make(chan error, 1)
	go func() {
		result <- protect(func() error { return h(req, res) })
	}()

	select {
	case err := <-result:
		return res, err
	case <-done:
		select {
		case err := <-result:
			return res, err
		default:
		}
		if !res.Abandon() {
			// The connection left HTTP; the handler owns it until it returns.
			return res, <-result
		}
		return handler.NewResponse(nil), timeoutError(req.Err())
	}
}

func timeoutError(cause error) error {
	return handler.AbortWith(http.StatusServiceUnavailable, fmt.Errorf("%w: %w", ErrHandlerTimeout, cause))
}

// fail discards the partial response and renders status through the error registry.
func (d *Dispatcher) fail(req *handler.Request, res *handler.Response, status int, err error) {
	d.logFailure(req, status, err)

	reset := func() {
		res.Reset()
		res.SetStatus(status)
		for k, v := range handler.ErrorHeaders(err) {
			res.Header()[k] = v
		}
	}
	reset()
	fn := d.registry.Resolve(status)
	if herr := protect(func() error { fn(req, res, err); return nil }); herr != nil {
		d.logFailure(req, http.StatusInternalServerError, herr)
		reset()
		DefaultErrorHandler(req, res, err)
	}
}

func (d *Dispatcher) logFailure(req *handler.Request, status int, err error) {
	attrs := []any{
		logger.Method(req.Method()),
		logger.Path(req.Path()),
		logger.Route(req.Route().Pattern),
		logger.Status(status),
		logger.Error(err),
	}
	var pe PanicError
	if errors.As(err, &pe) {
		attrs = append(attrs, logger.Stack(pe.Stack()))
	}

	if status >= http.StatusInternalServerError {
		d.logger.Error("request failed", attrs...)
		return
	}
	d.logger.Debug("request rejected", attrs...)
}

func (d *Dispatcher) observe(req *handler.Request, res *handler.Response, outcome Outcome, elapsed time.Duration) {
	if len(d.observers) == 0 {
		return
	}
	o := Observation{
		Method:    req.Method(),
		Path:      req.Path(),
		Pattern:   req.Route().Pattern,
		Blueprint: req.Route().Blueprint,
		Status:    res.Status(),
		Duration:  elapsed,
		Outcome:   outcome,
	}
	for _, obs := range d.observers {
		obs.Observe(o)
	}
}

// protect runs fn and converts a panic into a PanicError.
func protect(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return fn()
}
