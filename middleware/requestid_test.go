package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/middleware"
)

func echoRequestID(req *handler.Request, res *handler.Response) error {
	id, _ := middleware.GetRequestID(req)
	res.Text(http.StatusOK, id)
	return nil
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid", func(t *testing.T) {
		t.Parallel()
		d := mount(t, []handler.Hook{middleware.RequestID()}, func(app *router.App) {
			app.Get("/", echoRequestID)
		})
		w := get(d, "/")
		require.Equal(t, http.StatusOK, w.Code)

		id := w.Header().Get("X-Request-ID")
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, body(t, w))
	})

	t.Run("ignores client id by default", func(t *testing.T) {
		t.Parallel()
		d := mount(t, []handler.Hook{middleware.RequestID()}, func(app *router.App) {
			app.Get("/", echoRequestID)
		})
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Request-ID", "client-id")
		w := do(d, r)
		assert.NotEqual(t, "client-id", w.Header().Get("X-Request-ID"))
	})

	t.Run("reuses client id when configured", func(t *testing.T) {
		t.Parallel()
		hook := middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			HeaderName:  "X-Trace",
			UseExisting: true,
		})
		d := mount(t, []handler.Hook{hook}, func(app *router.App) {
			app.Get("/", echoRequestID)
		})
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Trace", "abc")
		w := do(d, r)
		assert.Equal(t, "abc", w.Header().Get("X-Trace"))
		assert.Equal(t, "abc", body(t, w))
	})

	t.Run("excluded route has no id", func(t *testing.T) {
		t.Parallel()
		d := mount(t, []handler.Hook{middleware.RequestID()}, func(app *router.App) {
			app.Get("/health", echoRequestID).Exclude(middleware.RequestIDHookName)
		})
		w := get(d, "/health")
		assert.Empty(t, w.Header().Get("X-Request-ID"))
		assert.Empty(t, body(t, w))
	})
}
