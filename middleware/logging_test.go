package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/middleware"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) records(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(b.buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogging(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))

	hooks := append([]handler.Hook{middleware.RequestID(), middleware.ClientIP()}, middleware.Logging(log)...)
	d := mount(t, hooks, func(app *router.App) {
		app.Get("/users/<id:int>", ok).Name("user")
		app.Get("/fail", func(*handler.Request, *handler.Response) error {
			return handler.Abort(http.StatusTeapot)
		})
	})

	require.Equal(t, http.StatusOK, get(d, "/users/7").Code)
	require.Equal(t, http.StatusTeapot, get(d, "/fail").Code)

	recs := buf.records(t)
	require.Len(t, recs, 1, "failed requests skip the after phase")
	rec := recs[0]
	assert.Equal(t, "request completed", rec["msg"])
	assert.Equal(t, "GET", rec["method"])
	assert.Equal(t, "/users/7", rec["path"])
	assert.Equal(t, "/users/<id:int>", rec["route"])
	assert.EqualValues(t, 200, rec["status"])
	assert.NotEmpty(t, rec["request_id"])
	assert.Equal(t, "192.0.2.1", rec["client_ip"])
}

func TestLoggingSlowRequestsWarn(t *testing.T) {
	t.Parallel()

	buf := &syncBuffer{}
	log := slog.New(slog.NewJSONHandler(buf, nil))
	hooks := middleware.LoggingWithConfig(middleware.LoggingConfig{
		Logger:        log,
		SlowThreshold: time.Millisecond,
	})
	d := mount(t, hooks, func(app *router.App) {
		app.Get("/slow", func(_ *handler.Request, res *handler.Response) error {
			time.Sleep(5 * time.Millisecond)
			res.Text(http.StatusOK, "done")
			return nil
		})
	})

	require.Equal(t, http.StatusOK, get(d, "/slow").Code)
	recs := buf.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "WARN", recs[0]["level"])
}
