package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/routekit/core/handler"
)

var (
	ErrNotFound     = errors.New("template not found")
	ErrRenderFailed = errors.New("render failed")
	ErrNoRenderers  = errors.New("no renderers configured")
)

// Renderer turns a named view and its data into markup.
type Renderer interface {
	Render(ctx context.Context, name string, data any) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, name string, data any) (string, error)

func (f RendererFunc) Render(ctx context.Context, name string, data any) (string, error) {
	return f(ctx, name, data)
}

// HTML renders name with r and writes it to res with status.
// The response is left untouched when rendering fails.
func HTML(req *handler.Request, res *handler.Response, r Renderer, status int, name string, data any) error {
	out, err := r.Render(req, name, data)
	if err != nil {
		return err
	}
	res.HTML(status, out)
	return nil
}

// Chain tries renderers in order and returns the first result for a view
// that exists. It lets templ components override html/template files.
func Chain(renderers ...Renderer) Renderer {
	return RendererFunc(func(ctx context.Context, name string, data any) (string, error) {
		if len(renderers) == 0 {
			return "", ErrNoRenderers
		}
		for _, r := range renderers {
			out, err := r.Render(ctx, name, data)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return out, err
		}
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	})
}
