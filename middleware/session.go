package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/routekit/core/handler"
)

// SessionHookName is the pipeline name of the session cookie hook.
const SessionHookName = "session"

type sessionIDKey struct{}

// SessionConfig configures the session cookie.
type SessionConfig struct {
	CookieName string        // default: "sid"
	Path       string        // default: "/"
	Domain     string
	MaxAge     time.Duration // default: 24h
	Secure     bool
	SameSite   http.SameSite // default: Lax
}

// Session returns a before hook that reads the session id cookie or issues
// a new one. Ids are UUIDs; anything else in the cookie is replaced.
// Handlers key their session.Store entries by SessionID.
func Session(cfg SessionConfig) handler.Hook {
	if cfg.CookieName == "" {
		cfg.CookieName = "sid"
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = http.SameSiteLaxMode
	}

	return handler.Hook{
		Name:  SessionHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, res *handler.Response) (handler.Action, error) {
			if c, err := req.Cookie(cfg.CookieName); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					req.Set(sessionIDKey{}, id.String())
					return handler.Continue, nil
				}
			}

			id := uuid.NewString()
			req.Set(sessionIDKey{}, id)
			res.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     cfg.Path,
				Domain:   cfg.Domain,
				MaxAge:   int(cfg.MaxAge / time.Second),
				Secure:   cfg.Secure,
				HttpOnly: true,
				SameSite: cfg.SameSite,
			})
			return handler.Continue, nil
		},
	}
}

// SessionID returns the id resolved by the session hook.
func SessionID(req *handler.Request) (string, bool) {
	return handler.Attr[string](req, sessionIDKey{})
}
