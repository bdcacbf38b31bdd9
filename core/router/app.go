package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/route"
)

// App collects routes, blueprints, hooks and error handlers during the build
// phase. Build compiles them into a read-only Dispatcher; any registration
// after Build panics with ErrSealed.
type App struct {
	mu         sync.Mutex
	sealed     bool
	pending    []pendingRoute
	pipeline   *Pipeline
	registry   *ErrorRegistry
	blueprints map[string]struct{}
	errs       []error

	logger           *slog.Logger
	handlerTimeout   time.Duration
	observers        []Observer
	normalizeUnicode bool
}

type pendingRoute struct {
	ep         *Endpoint
	pattern    string
	blueprint  string
	exclusions route.Exclusions
}

// New creates an App.
func New(opts ...Option) *App {
	a := &App{
		pipeline:   NewPipeline(),
		registry:   NewErrorRegistry(),
		blueprints: make(map[string]struct{}),
		logger:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromConfig creates an App configured from cfg.
func NewFromConfig(cfg Config, opts ...Option) *App {
	return New(append([]Option{WithConfig(cfg)}, opts...)...)
}

func (a *App) lock() {
	a.mu.Lock()
	if a.sealed {
		a.mu.Unlock()
		panic(ErrSealed)
	}
}

// AddRoute registers pattern for methods. An empty method set is reported by Build.
func (a *App) AddRoute(pattern string, methods []string, h handler.HandlerFunc) *Endpoint {
	a.lock()
	defer a.mu.Unlock()

	ep := newEndpoint(pattern, methods, h)
	a.pending = append(a.pending, pendingRoute{ep: ep, pattern: pattern})
	return ep
}

// Get registers a GET route.
func (a *App) Get(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodGet}, h)
}

// Head registers a HEAD route.
func (a *App) Head(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodHead}, h)
}

// Post registers a POST route.
func (a *App) Post(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodPost}, h)
}

// Put registers a PUT route.
func (a *App) Put(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodPut}, h)
}

// Patch registers a PATCH route.
func (a *App) Patch(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodPatch}, h)
}

// Delete registers a DELETE route.
func (a *App) Delete(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodDelete}, h)
}

// Options registers an OPTIONS route.
func (a *App) Options(pattern string, h handler.HandlerFunc) *Endpoint {
	return a.AddRoute(pattern, []string{http.MethodOptions}, h)
}

// ExcludeHooks skips the named hooks for ep. The name "all" skips every hook.
func (a *App) ExcludeHooks(ep *Endpoint, names ...string) {
	a.lock()
	defer a.mu.Unlock()
	ep.Exclude(names...)
}

// ExcludeAllHooks skips every hook for ep.
func (a *App) ExcludeAllHooks(ep *Endpoint) {
	a.lock()
	defer a.mu.Unlock()
	ep.ExcludeAll()
}

// RegisterHook appends a named hook to phase.
func (a *App) RegisterHook(name string, phase handler.Phase, fn handler.HookFunc) {
	a.Use(handler.Hook{Name: name, Phase: phase, Func: fn})
}

// Before appends a before hook.
func (a *App) Before(name string, fn handler.HookFunc) {
	a.RegisterHook(name, handler.Before, fn)
}

// After appends an after hook.
func (a *App) After(name string, fn handler.HookFunc) {
	a.RegisterHook(name, handler.After, fn)
}

// Use appends hooks in order.
func (a *App) Use(hooks ...handler.Hook) {
	a.lock()
	defer a.mu.Unlock()
	for _, h := range hooks {
		if err := a.pipeline.Add(h); err != nil {
			a.errs = append(a.errs, err)
		}
	}
}

// RegisterErrorHandler sets the fallback handler for status.
func (a *App) RegisterErrorHandler(status int, fn handler.ErrorHandlerFunc) {
	a.lock()
	defer a.mu.Unlock()
	if err := a.registry.Register(status, fn); err != nil {
		a.errs = append(a.errs, err)
	}
}

// RegisterBlueprint merges bp, its nested blueprints and their hooks into the
// app. Blueprint hooks join the pipeline now, after hooks registered earlier.
func (a *App) RegisterBlueprint(bp *Blueprint) {
	a.lock()
	defer a.mu.Unlock()

	if bp == nil {
		a.errs = append(a.errs, ErrNilBlueprint)
		return
	}
	if bp.registered {
		a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrBlueprintRegistered, bp.name))
		return
	}
	bp.registered = true

	for _, flat := range bp.flatten("", "/", route.Exclusions{}) {
		a.errs = append(a.errs, flat.bp.errs...)
		if _, dup := a.blueprints[flat.qualified]; dup {
			a.errs = append(a.errs, fmt.Errorf("%w: %q", ErrDuplicateBlueprint, flat.qualified))
			continue
		}
		a.blueprints[flat.qualified] = struct{}{}

		for _, h := range flat.bp.hooks {
			if err := a.pipeline.add(h, flat.qualified); err != nil {
				a.errs = append(a.errs, fmt.Errorf("blueprint %q: %w", flat.qualified, err))
			}
		}
		for _, ep := range flat.bp.endpoints {
			a.pending = append(a.pending, pendingRoute{
				ep:         ep,
				pattern:    route.JoinPath(flat.prefix, ep.pattern),
				blueprint:  flat.qualified,
				exclusions: flat.exclusions,
			})
		}
	}
}

// RegisterBlueprint merges bp into app.
func RegisterBlueprint(app *App, bp *Blueprint) {
	app.RegisterBlueprint(bp)
}

// Build compiles every registered route and seals the app. All registration
// problems are returned together; the app is sealed either way.
func (a *App) Build() (*Dispatcher, error) {
	a.lock()
	defer a.mu.Unlock()
	a.sealed = true

	errs := append([]error(nil), a.errs...)
	t := &table{}
	for _, p := range a.pending {
		ex := p.exclusions.Merge(p.ep.exclusions)
		for _, name := range ex.Names {
			if !a.pipeline.Has(name) {
				errs = append(errs, fmt.Errorf("%w: %q excluded by %s", ErrUnknownHook, name, p.pattern))
			}
		}

		name := p.ep.name
		if name != "" && p.blueprint != "" {
			name = p.blueprint + "." + name
		}
		r, err := route.Compile(p.pattern, p.ep.methods, p.ep.handler,
			route.WithBlueprint(p.blueprint),
			route.WithName(name),
			route.WithExclusions(ex),
		)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.insert(r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Dispatcher{
		table:            t,
		pipeline:         a.pipeline.clone(),
		registry:         a.registry.clone(),
		logger:           a.logger,
		handlerTimeout:   a.handlerTimeout,
		observers:        append([]Observer(nil), a.observers...),
		normalizeUnicode: a.normalizeUnicode,
	}, nil
}

// MustBuild is like Build but panics on error.
func (a *App) MustBuild() *Dispatcher {
	d, err := a.Build()
	if err != nil {
		panic(err)
	}
	return d
}
