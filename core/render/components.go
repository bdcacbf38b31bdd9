package render

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/a-h/templ"
)

// ComponentFunc builds a templ component from view data.
type ComponentFunc func(data any) templ.Component

// Components is a registry of templ components addressed by name.
type Components struct {
	mu         sync.RWMutex
	components map[string]ComponentFunc
}

// NewComponents returns an empty registry.
func NewComponents() *Components {
	return &Components{components: make(map[string]ComponentFunc)}
}

// Register binds name to fn, replacing any previous binding.
func (c *Components) Register(name string, fn ComponentFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = fn
}

// Render builds and renders the named component with ctx, so components can
// read request-scoped values.
func (c *Components) Render(ctx context.Context, name string, data any) (string, error) {
	c.mu.RLock()
	fn, ok := c.components[name]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	var buf bytes.Buffer
	if err := fn(data).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrRenderFailed, name, err)
	}
	return buf.String(), nil
}
