package router

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/route"
)

type hookEntry struct {
	name  string
	fn    handler.HookFunc
	scope string
}

// appliesTo reports whether the hook runs for routes owned by blueprint.
// Unscoped hooks run everywhere; scoped hooks run for the blueprint and its descendants.
func (h hookEntry) appliesTo(blueprint string) bool {
	if h.scope == "" {
		return true
	}
	return blueprint == h.scope || strings.HasPrefix(blueprint, h.scope+".")
}

// Pipeline is the ordered list of named before and after hooks.
// Registration order is execution order within a phase.
type Pipeline struct {
	before []hookEntry
	after  []hookEntry
}

// NewPipeline returns an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add appends a hook to its phase. Names are unique within a phase;
// the same name may be used once per phase so a before/after pair can be
// excluded together.
func (p *Pipeline) Add(h handler.Hook) error {
	return p.add(h, "")
}

func (p *Pipeline) add(h handler.Hook, scope string) error {
	if strings.TrimSpace(h.Name) == "" || h.Name == route.AllHooks {
		return fmt.Errorf("%w: %q", ErrInvalidHookName, h.Name)
	}
	if h.Func == nil {
		return fmt.Errorf("%w: %q", ErrNilHook, h.Name)
	}

	entry := hookEntry{name: h.Name, fn: h.Func, scope: scope}
	switch h.Phase {
	case handler.Before:
		if hasHook(p.before, h.Name) {
			return fmt.Errorf("%w: before %q", ErrDuplicateHook, h.Name)
		}
		p.before = append(p.before, entry)
	case handler.After:
		if hasHook(p.after, h.Name) {
			return fmt.Errorf("%w: after %q", ErrDuplicateHook, h.Name)
		}
		p.after = append(p.after, entry)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidPhase, h.Phase)
	}
	return nil
}

func hasHook(entries []hookEntry, name string) bool {
	for _, e := range entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Has reports whether a hook with the given name exists in either phase.
func (p *Pipeline) Has(name string) bool {
	return hasHook(p.before, name) || hasHook(p.after, name)
}

// Names returns the hook names of a phase in execution order.
func (p *Pipeline) Names(phase handler.Phase) []string {
	entries := p.before
	if phase == handler.After {
		entries = p.after
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// Len returns the total number of hooks.
func (p *Pipeline) Len() int {
	return len(p.before) + len(p.after)
}

// Run executes the hooks of phase in order, skipping excluded hooks and
// hooks scoped to other blueprints. The first Halt stops the phase.
// A hook error or panic stops the phase and is returned.
func (p *Pipeline) Run(phase handler.Phase, req *handler.Request, res *handler.Response, ex route.Exclusions) (handler.Action, error) {
	entries := p.before
	if phase == handler.After {
		entries = p.after
	}
	if ex.All {
		return handler.Continue, nil
	}

	blueprint := req.Route().Blueprint
	for _, h := range entries {
		if ex.Excludes(h.name) || !h.appliesTo(blueprint) {
			continue
		}

		var action handler.Action
		err := protect(func() error {
			var err error
			action, err = h.fn(req, res)
			return err
		})
		if err != nil {
			return handler.Halt, fmt.Errorf("%s hook %q: %w", phase, h.name, err)
		}
		if action == handler.Halt {
			return handler.Halt, nil
		}
	}
	return handler.Continue, nil
}

func (p *Pipeline) clone() *Pipeline {
	return &Pipeline{
		before: append([]hookEntry(nil), p.before...),
		after:  append([]hookEntry(nil), p.after...),
	}
}
