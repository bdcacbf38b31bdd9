package router

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/route"
)

// Endpoint is an uncompiled route registration. It is compiled when the
// App is built, so exclusions and the name may be set after AddRoute.
type Endpoint struct {
	pattern    string
	methods    []string
	handler    handler.HandlerFunc
	name       string
	exclusions route.Exclusions
}

func newEndpoint(pattern string, methods []string, h handler.HandlerFunc) *Endpoint {
	return &Endpoint{
		pattern: pattern,
		methods: slices.Clone(methods),
		handler: h,
	}
}

// Exclude skips the named hooks for this route. The name "all" skips every hook.
func (e *Endpoint) Exclude(names ...string) *Endpoint {
	e.exclusions = e.exclusions.Merge(route.ExcludeNames(names...))
	return e
}

// ExcludeAll skips every hook for this route.
func (e *Endpoint) ExcludeAll() *Endpoint {
	e.exclusions.All = true
	return e
}

// Name sets the route name. Routes of a blueprint are qualified with the
// blueprint name, e.g. "admin.dashboard".
func (e *Endpoint) Name(name string) *Endpoint {
	e.name = name
	return e
}

// Pattern returns the pattern as registered.
func (e *Endpoint) Pattern() string { return e.pattern }

// Blueprint is a named group of routes sharing a path prefix. Routes, hooks and
// nested blueprints are merged into an App by RegisterBlueprint; a blueprint
// can be registered only once.
type Blueprint struct {
	name       string
	prefix     string
	endpoints  []*Endpoint
	hooks      []handler.Hook
	children   []*Blueprint
	exclusions route.Exclusions
	registered bool
	errs       []error
}

// NewBlueprint creates a blueprint. The prefix is normalized to a leading
// slash and no trailing slash.
func NewBlueprint(name, prefix string) *Blueprint {
	b := &Blueprint{name: name, prefix: route.NormalizePath(prefix)}
	if name == "" || strings.ContainsAny(name, ". /") {
		b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrInvalidBlueprintName, name))
	}
	return b
}

// Name returns the blueprint name.
func (b *Blueprint) Name() string { return b.name }

// Prefix returns the normalized prefix.
func (b *Blueprint) Prefix() string { return b.prefix }

// AddRoute registers a prefix-relative route.
func (b *Blueprint) AddRoute(pattern string, methods []string, h handler.HandlerFunc) *Endpoint {
	ep := newEndpoint(pattern, methods, h)
	b.endpoints = append(b.endpoints, ep)
	return ep
}

func (b *Blueprint) Get(pattern string, h handler.HandlerFunc) *Endpoint {
	return b.AddRoute(pattern, []string{http.MethodGet}, h)
}

func (b *Blueprint) Post(pattern string, h handler.HandlerFunc) *Endpoint {
	return b.AddRoute(pattern, []string{http.MethodPost}, h)
}

func (b *Blueprint) Put(pattern string, h handler.HandlerFunc) *Endpoint {
	return b.AddRoute(pattern, []string{http.MethodPut}, h)
}

func (b *Blueprint) Patch(pattern string, h handler.HandlerFunc) *Endpoint {
	return b.AddRoute(pattern, []string{http.MethodPatch}, h)
}

func (b *Blueprint) Delete(pattern string, h handler.HandlerFunc) *Endpoint {
	return b.AddRoute(pattern, []string{http.MethodDelete}, h)
}

// Before registers a before hook that runs only for this blueprint's routes.
func (b *Blueprint) Before(name string, fn handler.HookFunc) {
	b.hooks = append(b.hooks, handler.Hook{Name: name, Phase: handler.Before, Func: fn})
}

// After registers an after hook that runs only for this blueprint's routes.
func (b *Blueprint) After(name string, fn handler.HookFunc) {
	b.hooks = append(b.hooks, handler.Hook{Name: name, Phase: handler.After, Func: fn})
}

// Use registers blueprint-scoped hooks.
func (b *Blueprint) Use(hooks ...handler.Hook) {
	b.hooks = append(b.hooks, hooks...)
}

// ExcludeHooks skips the named hooks for every route of the blueprint and its
// children. The name "all" skips every hook.
func (b *Blueprint) ExcludeHooks(names ...string) {
	b.exclusions = b.exclusions.Merge(route.ExcludeNames(names...))
}

// ExcludeAllHooks skips every hook for the blueprint's routes.
func (b *Blueprint) ExcludeAllHooks() {
	b.exclusions.All = true
}

// Register nests child under b. The child's prefix is appended to b's prefix
// and its name is qualified as "parent.child".
func (b *Blueprint) Register(child *Blueprint) {
	switch {
	case child == nil:
		b.errs = append(b.errs, ErrNilBlueprint)
	case child == b || child.registered:
		b.errs = append(b.errs, fmt.Errorf("%w: %q", ErrBlueprintRegistered, child.name))
	default:
		child.registered = true
		b.children = append(b.children, child)
	}
}

// flatBlueprint is a blueprint resolved against its ancestors.
type flatBlueprint struct {
	bp         *Blueprint
	qualified  string
	prefix     string
	exclusions route.Exclusions
}

// flatten walks b and its descendants depth-first, parents before children.
func (b *Blueprint) flatten(parentName, parentPrefix string, inherited route.Exclusions) []flatBlueprint {
	qualified := b.name
	if parentName != "" {
		qualified = parentName + "." + b.name
	}
	flat := flatBlueprint{
		bp:         b,
		qualified:  qualified,
		prefix:     route.JoinPath(parentPrefix, b.prefix),
		exclusions: inherited.Merge(b.exclusions),
	}
	out := []flatBlueprint{flat}
	for _, child := range b.children {
		out = append(out, child.flatten(flat.qualified, flat.prefix, flat.exclusions)...)
	}
	return out
}
