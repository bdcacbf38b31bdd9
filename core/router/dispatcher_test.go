package router_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/router"
)

func serve(d http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	d.ServeHTTP(w, r)
	return w
}

func text(body string) handler.HandlerFunc {
	return func(_ *handler.Request, res *handler.Response) error {
		res.Text(http.StatusOK, body)
		return nil
	}
}

// recorder collects hook invocations in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) hook(name string, action handler.Action) handler.HookFunc {
	return func(*handler.Request, *handler.Response) (handler.Action, error) {
		r.add(name)
		return action, nil
	}
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestDispatcherStatuses(t *testing.T) {
	t.Parallel()

	d := build(t, func(app *router.App) {
		app.Get("/users/<id:int>", func(req *handler.Request, res *handler.Response) error {
			id, _ := req.ParamInt("id")
			return res.JSON(http.StatusOK, map[string]int{"id": id})
		})
		app.AddRoute("/resources", []string{"GET", "POST", "PUT", "DELETE"}, text("resources"))
		app.Post("/created", func(_ *handler.Request, res *handler.Response) error {
			res.Text(http.StatusCreated, "made")
			return nil
		})
	})

	t.Run("200 with bound params", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/users/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":42}`, w.Body.String())
	})

	t.Run("handler chosen status", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "POST", "/created")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "made", w.Body.String())
	})

	t.Run("404 names the path", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/users/abc")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "404 Not Found: /users/abc", w.Body.String())
	})

	t.Run("404 as json", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/missing", "Accept", "application/json")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"status":404,"error":"Not Found","path":"/missing"}`, w.Body.String())
	})

	t.Run("405 with allow header", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "PATCH", "/resources")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "405 Method Not Allowed", w.Body.String())

		allowed := strings.Split(w.Header().Get("Allow"), ", ")
		assert.ElementsMatch(t, []string{"GET", "POST", "PUT", "DELETE"}, allowed)
	})

	t.Run("405 as json", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "PATCH", "/resources", "Accept", "application/json")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.JSONEq(t, `{"status":405,"error":"Method Not Allowed"}`, w.Body.String())
	})
}

func TestDispatcherHooks(t *testing.T) {
	t.Parallel()

	t.Run("before, handler, after in order", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := build(t, func(app *router.App) {
			app.Before("a", rec.hook("a", handler.Continue))
			app.After("c", rec.hook("c", handler.Continue))
			app.Before("b", rec.hook("b", handler.Continue))
			app.Get("/", func(*handler.Request, *handler.Response) error {
				rec.add("handler")
				return nil
			})
		})

		w := serve(d, "GET", "/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"a", "b", "handler", "c"}, rec.list())
	})

	t.Run("halt skips later hooks and handler", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := build(t, func(app *router.App) {
			app.Before("a", func(_ *handler.Request, res *handler.Response) (handler.Action, error) {
				rec.add("a")
				res.Text(http.StatusTeapot, "from a")
				return handler.Halt, nil
			})
			app.Before("b", rec.hook("b", handler.Continue))
			app.After("after", rec.hook("after", handler.Continue))
			app.Get("/", func(*handler.Request, *handler.Response) error {
				rec.add("handler")
				return nil
			})
		})

		w := serve(d, "GET", "/")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, "from a", w.Body.String())
		assert.Equal(t, []string{"a"}, rec.list())
	})

	t.Run("halt in after phase skips remaining after hooks", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := build(t, func(app *router.App) {
			app.After("x", rec.hook("x", handler.Halt))
			app.After("y", rec.hook("y", handler.Continue))
			app.Get("/", text("body"))
		})

		w := serve(d, "GET", "/")
		assert.Equal(t, "body", w.Body.String())
		assert.Equal(t, []string{"x"}, rec.list())
	})

	t.Run("exclusions", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := build(t, func(app *router.App) {
			app.Before("auth", rec.hook("auth", handler.Continue))
			app.Before("csrf", rec.hook("csrf", handler.Continue))
			app.After("timing", rec.hook("timing-after", handler.Continue))
			app.Before("timing", rec.hook("timing-before", handler.Continue))

			app.Get("/all", text("all"))
			app.Get("/no-csrf", text("no-csrf")).Exclude("csrf")
			app.ExcludeAllHooks(app.Get("/bare", text("bare")))
			app.ExcludeHooks(app.Get("/no-timing", text("no-timing")), "timing")
			app.ExcludeHooks(app.Get("/all-by-name", text("all-by-name")), "all")
			app.Get("/csrf-and-all", text("csrf-and-all")).Exclude("csrf", "all")
		})

		serve(d, "GET", "/all")
		serve(d, "GET", "/no-csrf")
		serve(d, "GET", "/bare")
		serve(d, "GET", "/no-timing")
		assert.Equal(t, "all-by-name", serve(d, "GET", "/all-by-name").Body.String())
		serve(d, "GET", "/csrf-and-all")

		assert.Equal(t, []string{
			"auth", "csrf", "timing-before", "timing-after",
			"auth", "timing-before", "timing-after",
			"auth", "csrf",
		}, rec.list())
	})

	t.Run("identity flows through attribute store", func(t *testing.T) {
		t.Parallel()

		d := build(t, func(app *router.App) {
			app.Before("auth", func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
				req.SetIdentity("alice")
				return handler.Continue, nil
			})
			app.Get("/me", func(req *handler.Request, res *handler.Response) error {
				res.Text(http.StatusOK, req.Identity().(string))
				return nil
			})
		})

		assert.Equal(t, "alice", serve(d, "GET", "/me").Body.String())
	})

	t.Run("blueprint scoped hooks", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		d := build(t, func(app *router.App) {
			app.Before("global", rec.hook("global", handler.Continue))

			admin := router.NewBlueprint("admin", "/admin")
			admin.Before("admin-only", rec.hook("admin-only", handler.Continue))
			admin.Get("/", text("admin"))

			reports := router.NewBlueprint("reports", "/reports")
			reports.Get("/", text("reports"))
			admin.Register(reports)

			public := router.NewBlueprint("public", "/public")
			public.ExcludeHooks("global")
			public.Get("/", text("public"))

			app.RegisterBlueprint(admin)
			app.RegisterBlueprint(public)
			app.Get("/", text("root"))
		})

		serve(d, "GET", "/")
		serve(d, "GET", "/admin")
		serve(d, "GET", "/admin/reports")
		serve(d, "GET", "/public")

		assert.Equal(t, []string{
			"global",
			"global", "admin-only",
			"global", "admin-only",
		}, rec.list())
	})
}

func TestDispatcherFailures(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	var logMu sync.Mutex
	log := slog.New(slog.NewJSONHandler(&lockedWriter{w: &logs, mu: &logMu}, nil))

	d := build(t, func(app *router.App) {
		app.Get("/error", func(_ *handler.Request, res *handler.Response) error {
			res.Text(http.StatusOK, "partial")
			return errors.New("database password leaked")
		})
		app.Get("/panic", func(*handler.Request, *handler.Response) error {
			panic("boom")
		})
		app.Get("/abort", func(*handler.Request, *handler.Response) error {
			return handler.Abort(http.StatusForbidden, "members only")
		})
		app.Get("/hook-error", text("unreachable"))
		app.Before("guard", func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			if req.Path() == "/hook-error" {
				return handler.Halt, handler.Abort(http.StatusUnauthorized)
			}
			return handler.Continue, nil
		})
		app.Get("/after-panic", text("ok"))
		app.After("explode", func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			if req.Path() == "/after-panic" {
				panic(errors.New("after hook broke"))
			}
			return handler.Continue, nil
		})
	}, router.WithLogger(log))

	t.Run("handler error maps to 500 without leaking", func(t *testing.T) {
		w := serve(d, "GET", "/error")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "500 Internal Server Error", w.Body.String())
		assert.NotContains(t, w.Body.String(), "partial")
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("panic maps to 500", func(t *testing.T) {
		w := serve(d, "GET", "/panic")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "500 Internal Server Error", w.Body.String())
	})

	t.Run("abort keeps its status and message", func(t *testing.T) {
		w := serve(d, "GET", "/abort")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "403 Forbidden\nmembers only", w.Body.String())
	})

	t.Run("hook abort", func(t *testing.T) {
		w := serve(d, "GET", "/hook-error")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("after hook panic", func(t *testing.T) {
		w := serve(d, "GET", "/after-panic")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "ok")
	})

	t.Run("failures are logged", func(t *testing.T) {
		logMu.Lock()
		defer logMu.Unlock()
		out := logs.String()
		assert.Contains(t, out, "database password leaked")
		assert.Contains(t, out, `"stack"`)
		assert.Contains(t, out, `"route":"/panic"`)
	})
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func TestErrorRegistryOverrides(t *testing.T) {
	t.Parallel()

	d := build(t, func(app *router.App) {
		app.RegisterErrorHandler(http.StatusNotFound, func(_ *handler.Request, res *handler.Response, _ error) {
			res.HTML(res.Status(), "<h1>first</h1>")
		})
		app.RegisterErrorHandler(http.StatusNotFound, func(req *handler.Request, res *handler.Response, _ error) {
			res.HTML(res.Status(), "<h1>lost: "+req.Path()+"</h1>")
		})
		app.RegisterErrorHandler(http.StatusMethodNotAllowed, func(_ *handler.Request, res *handler.Response, _ error) {
			allowed := res.Header().Get("Allow")
			res.Header().Set("Allow", "bogus")
			res.Text(res.Status(), "wrong method, allowed: "+allowed)
		})
		app.RegisterErrorHandler(http.StatusInternalServerError, func(*handler.Request, *handler.Response, error) {
			panic("error handler broke")
		})
		app.RegisterErrorHandler(http.StatusTeapot, func(_ *handler.Request, res *handler.Response, err error) {
			_ = res.JSON(res.Status(), map[string]string{"detail": handler.PublicMessage(err)})
		})

		app.Get("/only-get", ok)
		app.Put("/only-get", ok)
		app.Get("/fail", func(*handler.Request, *handler.Response) error { return errors.New("x") })
		app.Get("/teapot", func(*handler.Request, *handler.Response) error {
			return handler.Abort(http.StatusTeapot, "short and stout")
		})
		app.Get("/gone", func(*handler.Request, *handler.Response) error {
			return handler.Abort(http.StatusGone)
		})
	})

	t.Run("last registration wins", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/nowhere")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "<h1>lost: /nowhere</h1>", w.Body.String())
	})

	t.Run("allow header survives custom 405 handler", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "POST", "/only-get")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "GET, PUT", w.Header().Get("Allow"))
		assert.Equal(t, "wrong method, allowed: GET, PUT", w.Body.String())
	})

	t.Run("panicking error handler falls back to built-in", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/fail")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "500 Internal Server Error", w.Body.String())
	})

	t.Run("custom status handler", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/teapot")
		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.JSONEq(t, `{"detail":"short and stout"}`, w.Body.String())
	})

	t.Run("unregistered status uses built-in handler", func(t *testing.T) {
		t.Parallel()

		w := serve(d, "GET", "/gone")
		assert.Equal(t, http.StatusGone, w.Code)
		assert.Equal(t, "410 Gone", w.Body.String())
	})
}

func TestDispatcherTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	var observed []router.Observation
	var mu sync.Mutex
	d := build(t, func(app *router.App) {
		app.Get("/slow", func(_ *handler.Request, res *handler.Response) error {
			<-release
			res.Text(http.StatusOK, "too late")
			return nil
		})
		app.Get("/fast", text("quick"))
	}, router.WithHandlerTimeout(20*time.Millisecond), router.WithObserver(router.ObserverFunc(func(o router.Observation) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, o)
	})))

	w := serve(d, "GET", "/slow")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "503 Service Unavailable", w.Body.String())

	w = serve(d, "GET", "/fast")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quick", w.Body.String())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, observed, 2)
	assert.Equal(t, router.OutcomeTimeout, observed[0].Outcome)
	assert.Equal(t, http.StatusServiceUnavailable, observed[0].Status)
	assert.Equal(t, router.OutcomeMatched, observed[1].Outcome)
	assert.Equal(t, "/fast", observed[1].Pattern)
}

func TestDispatcherTimeoutRacesHijack(t *testing.T) {
	t.Parallel()

	hijackErr := make(chan error, 1)
	d := build(t, func(app *router.App) {
		app.Get("/ws", func(req *handler.Request, res *handler.Response) error {
			<-req.Done()
			conn, _, err := res.Hijack()
			if err == nil {
				_ = conn.Close()
			}
			hijackErr <- err
			return nil
		})
	}, router.WithHandlerTimeout(10*time.Millisecond))

	w := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	d.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))

	if err := <-hijackErr; err != nil {
		assert.ErrorIs(t, err, handler.ErrAbandoned)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "503 Service Unavailable", w.Body.String())
	} else {
		assert.Empty(t, w.Body.String(), "hijacked connection must not receive the timeout response")
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestDispatcherObserver(t *testing.T) {
	t.Parallel()

	var observed []router.Observation
	var mu sync.Mutex
	d := build(t, func(app *router.App) {
		app.Before("stop", func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
			if req.Path() == "/halt" {
				return handler.Halt, nil
			}
			return handler.Continue, nil
		})
		app.Get("/halt", ok)
		app.Get("/ok", ok)
		app.Get("/err", func(*handler.Request, *handler.Response) error { return errors.New("x") })
	}, router.WithObserver(router.ObserverFunc(func(o router.Observation) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, o)
	})))

	serve(d, "GET", "/ok")
	serve(d, "GET", "/halt")
	serve(d, "GET", "/err")
	serve(d, "GET", "/missing")
	serve(d, "POST", "/ok")

	mu.Lock()
	defer mu.Unlock()
	outcomes := make([]router.Outcome, len(observed))
	for i, o := range observed {
		outcomes[i] = o.Outcome
	}
	assert.Equal(t, []router.Outcome{
		router.OutcomeMatched,
		router.OutcomeHalted,
		router.OutcomeFailed,
		router.OutcomeNotFound,
		router.OutcomeMethodNotAllowed,
	}, outcomes)
	assert.Equal(t, http.StatusMethodNotAllowed, observed[4].Status)
	assert.Empty(t, observed[3].Pattern)
}

func TestDispatcherConcurrentRequests(t *testing.T) {
	t.Parallel()

	d := build(t, func(app *router.App) {
		app.Get("/items/<id:int>", func(req *handler.Request, res *handler.Response) error {
			id, _ := req.ParamInt("id")
			return res.JSON(http.StatusOK, map[string]int{"id": id})
		})
	})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := serve(d, "GET", "/items/"+strconv.Itoa(i))
			var body map[string]int
			if assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)) {
				assert.Equal(t, i, body["id"])
			}
		}()
	}
	wg.Wait()
}
