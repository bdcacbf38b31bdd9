package router_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/route"
	"github.com/dmitrymomot/routekit/core/router"
)

func newReq(blueprint string) *handler.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	return handler.NewRequest(r, "/", handler.RouteInfo{Pattern: "/", Blueprint: blueprint}, nil)
}

func TestPipeline(t *testing.T) {
	t.Parallel()

	t.Run("runs phase in registration order", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		p := router.NewPipeline()
		require.NoError(t, p.Add(handler.Hook{Name: "one", Phase: handler.Before, Func: rec.hook("one", handler.Continue)}))
		require.NoError(t, p.Add(handler.Hook{Name: "two", Phase: handler.Before, Func: rec.hook("two", handler.Continue)}))
		require.NoError(t, p.Add(handler.Hook{Name: "one", Phase: handler.After, Func: rec.hook("one-after", handler.Continue)}))

		action, err := p.Run(handler.Before, newReq(""), handler.NewResponse(nil), route.Exclusions{})
		require.NoError(t, err)
		assert.Equal(t, handler.Continue, action)
		assert.Equal(t, []string{"one", "two"}, rec.list())
		assert.Equal(t, []string{"one", "two"}, p.Names(handler.Before))
		assert.Equal(t, []string{"one"}, p.Names(handler.After))
		assert.Equal(t, 3, p.Len())
		assert.True(t, p.Has("two"))
	})

	t.Run("halt stops the phase", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		p := router.NewPipeline()
		require.NoError(t, p.Add(handler.Hook{Name: "stop", Phase: handler.Before, Func: rec.hook("stop", handler.Halt)}))
		require.NoError(t, p.Add(handler.Hook{Name: "never", Phase: handler.Before, Func: rec.hook("never", handler.Continue)}))

		action, err := p.Run(handler.Before, newReq(""), handler.NewResponse(nil), route.Exclusions{})
		require.NoError(t, err)
		assert.Equal(t, handler.Halt, action)
		assert.Equal(t, []string{"stop"}, rec.list())
	})

	t.Run("exclusions", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		p := router.NewPipeline()
		require.NoError(t, p.Add(handler.Hook{Name: "a", Func: rec.hook("a", handler.Continue)}))
		require.NoError(t, p.Add(handler.Hook{Name: "b", Func: rec.hook("b", handler.Halt)}))

		action, err := p.Run(handler.Before, newReq(""), handler.NewResponse(nil), route.Exclusions{Names: []string{"b"}})
		require.NoError(t, err)
		assert.Equal(t, handler.Continue, action)

		action, err = p.Run(handler.Before, newReq(""), handler.NewResponse(nil), route.Exclusions{All: true})
		require.NoError(t, err)
		assert.Equal(t, handler.Continue, action)
		assert.Equal(t, []string{"a"}, rec.list())
	})

	t.Run("errors and panics halt", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("bad token")
		p := router.NewPipeline()
		require.NoError(t, p.Add(handler.Hook{Name: "fail", Func: func(*handler.Request, *handler.Response) (handler.Action, error) {
			return handler.Continue, handler.AbortWith(http.StatusForbidden, cause)
		}}))
		require.NoError(t, p.Add(handler.Hook{Name: "panic", Phase: handler.After, Func: func(*handler.Request, *handler.Response) (handler.Action, error) {
			panic("after")
		}}))

		action, err := p.Run(handler.Before, newReq(""), handler.NewResponse(nil), route.Exclusions{})
		assert.Equal(t, handler.Halt, action)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, http.StatusForbidden, handler.StatusCode(err))

		_, err = p.Run(handler.After, newReq(""), handler.NewResponse(nil), route.Exclusions{})
		var pe router.PanicError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "after", pe.Value())
		assert.NotEmpty(t, pe.Stack())
	})

	t.Run("registration errors", func(t *testing.T) {
		t.Parallel()

		p := router.NewPipeline()
		require.NoError(t, p.Add(handler.Hook{Name: "x", Func: cont}))
		assert.ErrorIs(t, p.Add(handler.Hook{Name: "x", Func: cont}), router.ErrDuplicateHook)
		assert.ErrorIs(t, p.Add(handler.Hook{Name: "y"}), router.ErrNilHook)
		assert.ErrorIs(t, p.Add(handler.Hook{Name: " ", Func: cont}), router.ErrInvalidHookName)
		assert.ErrorIs(t, p.Add(handler.Hook{Name: "z", Phase: 9, Func: cont}), router.ErrInvalidPhase)
	})
}

func TestErrorRegistry(t *testing.T) {
	t.Parallel()

	reg := router.NewErrorRegistry()
	assert.NotNil(t, reg.Resolve(http.StatusNotFound))
	assert.NotNil(t, reg.Resolve(http.StatusMethodNotAllowed))
	assert.NotNil(t, reg.Resolve(http.StatusInternalServerError))
	assert.NotNil(t, reg.Resolve(http.StatusBadGateway))

	called := 0
	require.NoError(t, reg.Register(http.StatusBadGateway, func(_ *handler.Request, res *handler.Response, _ error) {
		called++
		res.Text(res.Status(), "upstream")
	}))

	res := handler.NewResponse(nil)
	res.SetStatus(http.StatusBadGateway)
	reg.Resolve(http.StatusBadGateway)(newReq(""), res, errors.New("x"))
	assert.Equal(t, 1, called)
	assert.Equal(t, "upstream", string(res.Body()))

	assert.ErrorIs(t, reg.Register(99, router.DefaultErrorHandler), router.ErrInvalidStatus)
	assert.ErrorIs(t, reg.Register(600, router.DefaultErrorHandler), router.ErrInvalidStatus)
	assert.ErrorIs(t, reg.Register(404, nil), router.ErrNilHandler)
}
