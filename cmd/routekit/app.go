package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/health"
	"github.com/dmitrymomot/routekit/core/logger"
	"github.com/dmitrymomot/routekit/core/render"
	"github.com/dmitrymomot/routekit/core/router"
	"github.com/dmitrymomot/routekit/core/session"
	"github.com/dmitrymomot/routekit/core/socket"
	"github.com/dmitrymomot/routekit/core/static"
	"github.com/dmitrymomot/routekit/metrics"
	"github.com/dmitrymomot/routekit/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// visit is the per-session value kept by the demo.
type visit struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// deps are the collaborators the demo routes are wired to.
type deps struct {
	log        *slog.Logger
	visits     session.Store[visit]
	rates      session.Store[middleware.RateWindow]
	hub        *socket.Hub
	metrics    *metrics.Collector
	csrf       *middleware.CSRFTokens
	adminToken string
	rateLimit  middleware.RateLimitConfig
	probes     []health.CheckFunc
}

// newApp registers every demo route, hook and error handler.
func newApp(d deps, opts ...router.Option) (*router.App, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}

	opts = append([]router.Option{router.WithLogger(d.log), router.WithObserver(d.metrics)}, opts...)
	app := router.New(opts...)

	app.Use(middleware.RequestID(), middleware.ClientIP())
	app.Use(middleware.Logging(d.log)...)
	app.Use(middleware.SecurityHeaders(middleware.BalancedSecurity))
	app.Use(middleware.Session(middleware.SessionConfig{}))
	app.Use(middleware.CSRF(d.csrf.Verifier()))
	rl := d.rateLimit
	rl.Store = d.rates
	app.Use(middleware.RateLimit(rl))

	app.RegisterErrorHandler(http.StatusNotFound, func(req *handler.Request, res *handler.Response, _ error) {
		if err := render.HTML(req, res, views, http.StatusNotFound, "not_found", req.Path()); err != nil {
			router.NotFoundHandler(req, res, err)
		}
	})

	app.Get("/", func(req *handler.Request, res *handler.Response) error {
		sid, _ := middleware.SessionID(req)
		v, err := d.visits.Get(req, sid, visit{Name: "stranger"})
		if err != nil {
			return err
		}
		token, err := d.csrf.Issue(sid)
		if err != nil {
			return err
		}
		return render.HTML(req, res, views, http.StatusOK, "index", map[string]any{
			"Name":   v.Name,
			"Visits": v.Count,
			"CSRF":   token,
		})
	}).Name("home")

	app.Post("/visits", func(req *handler.Request, res *handler.Response) error {
		sid, _ := middleware.SessionID(req)
		name := req.FormValue("name")
		v, err := d.visits.Update(req, sid, 0, func(cur visit, ok bool) (visit, error) {
			if !ok {
				cur.Name = "stranger"
			}
			if name != "" {
				cur.Name = name
			}
			cur.Count++
			return cur, nil
		})
		if err != nil {
			return err
		}
		publish(req, d.log, d.hub, "visit", v)
		res.Redirect(http.StatusSeeOther, "/")
		return nil
	}).Name("count-visit")

	app.Get("/about", func(req *handler.Request, res *handler.Response) error {
		return render.HTML(req, res, views, http.StatusOK, "about", nil)
	}).Name("about")

	app.Get("/health", health.NoContent).Name("health").ExcludeAll()
	app.Get("/health/live", health.Liveness).Name("liveness").ExcludeAll()
	app.Get("/health/ready", health.Readiness(d.log, d.probes...)).Name("readiness").ExcludeAll()
	app.Get("/static/<file:path>", static.FS(staticFS, static.WithSubFS("static"), static.WithCacheControl("public, max-age=3600"))).
		Name("static").ExcludeAll()

	app.Get("/metrics", d.metrics.Handler()).Name("metrics").ExcludeAll()

	d.hub.On("chat", func(c *socket.Conn, data json.RawMessage) error {
		return c.Hub().Broadcast("chat", map[string]any{"from": c.ID(), "message": data})
	})
	app.Get("/ws", d.hub.Handler()).Name("socket").Exclude(
		middleware.SecurityHeadersHookName,
		middleware.LoggingHookName,
	)

	app.RegisterBlueprint(apiBlueprint(d))
	return app, nil
}

func apiBlueprint(d deps) *router.Blueprint {
	api := router.NewBlueprint("api", "/api")
	api.ExcludeHooks(middleware.CSRFHookName, middleware.SessionHookName)

	api.Get("/users/<id:int>", func(req *handler.Request, res *handler.Response) error {
		id, _ := req.ParamInt("id")
		return res.JSON(http.StatusOK, map[string]any{"id": id})
	}).Name("user")

	api.Get("/prices/<amount:float>", func(req *handler.Request, res *handler.Response) error {
		amount, _ := req.ParamFloat("amount")
		return res.JSON(http.StatusOK, map[string]any{"amount": amount, "with_tax": amount * 1.2})
	}).Name("price")

	api.Get("/files/<name:path>", func(req *handler.Request, res *handler.Response) error {
		return res.JSON(http.StatusOK, map[string]any{"file": req.ParamString("name")})
	}).Name("file")

	api.Post("/echo", func(req *handler.Request, res *handler.Response) error {
		body, err := req.Body()
		if err != nil {
			return handler.AbortWith(http.StatusRequestEntityTooLarge, err)
		}
		res.Header().Set("Content-Type", "application/octet-stream")
		_, err = res.Write(body)
		return err
	}).Name("echo")

	admin := router.NewBlueprint("admin", "/admin")
	admin.Use(middleware.Authenticate(middleware.BearerAuth(func(_ *handler.Request, token string) (any, error) {
		if d.adminToken == "" || token != d.adminToken {
			return nil, middleware.ErrUnauthenticated
		}
		return "admin", nil
	})))

	admin.Get("/sessions", func(req *handler.Request, res *handler.Response) error {
		all, err := d.visits.All(req)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(all))
		for id := range all {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return res.JSON(http.StatusOK, map[string]any{"count": len(ids), "sessions": ids})
	}).Name("sessions")

	admin.Delete("/sessions/<id>", func(req *handler.Request, res *handler.Response) error {
		removed, err := d.visits.Remove(req, req.ParamString("id"))
		if err != nil {
			return err
		}
		if !removed {
			return handler.Abort(http.StatusNotFound, "session not found")
		}
		res.SetStatus(http.StatusNoContent)
		return nil
	}).Name("drop-session")

	admin.Get("/sockets", func(_ *handler.Request, res *handler.Response) error {
		return res.JSON(http.StatusOK, map[string]any{"connections": d.hub.Len()})
	}).Name("sockets")

	api.Register(admin)
	return api
}

type broadcaster interface {
	Broadcast(event string, data any) error
}

// publish broadcasts an event to socket clients. Delivery failures are logged;
// they never fail the request that triggered them.
func publish(ctx context.Context, log *slog.Logger, b broadcaster, event string, data any) {
	if err := b.Broadcast(event, data); err != nil {
		log.WarnContext(ctx, "socket broadcast failed", logger.Event(event), logger.Error(err))
	}
}

// newRenderer combines the embedded html templates with templ components.
func newRenderer() (render.Renderer, error) {
	tmpl, err := render.NewTemplates(templateFS, nil, "templates/*.html")
	if err != nil {
		return nil, err
	}

	components := render.NewComponents()
	components.Register("about", func(any) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			_, err := io.WriteString(w, "<!doctype html><h1>About</h1><p>Served by routekit.</p>")
			return err
		})
	})
	components.Register("not_found", func(data any) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			path, _ := data.(string)
			_, err := fmt.Fprintf(w, "<!doctype html><h1>Not found</h1><p>%s</p>", templ.EscapeString(path))
			return err
		})
	})

	return render.Chain(tmpl, components), nil
}
