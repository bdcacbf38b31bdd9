package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
)

func ok(_ *handler.Request, res *handler.Response) error {
	res.Text(http.StatusOK, "ok")
	return nil
}

func mount(t *testing.T, hooks []handler.Hook, routes func(app *router.App)) *router.Dispatcher {
	t.Helper()
	app := router.New()
	app.Use(hooks...)
	routes(app)
	d, err := app.Build()
	require.NoError(t, err)
	return d
}

func do(d http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)
	return w
}

func get(d http.Handler, target string) *httptest.ResponseRecorder {
	return do(d, httptest.NewRequest(http.MethodGet, target, nil))
}

func body(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	return string(b)
}
