package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/session"
)

// RateLimitHookName is the pipeline name of the rate limit hook.
const RateLimitHookName = "rate_limit"

var ErrRateLimited = errors.New("rate limit exceeded")

// RateWindow is the fixed-window counter kept per key.
type RateWindow struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}

// RateLimitConfig configures the rate limit hook.
type RateLimitConfig struct {
	// Store keeps one RateWindow per key. Any session.Store backend works,
	// so limits can be shared between instances through redis or postgres.
	Store  session.Store[RateWindow]
	Limit  int
	Window time.Duration
	// Key selects the counter for a request (default: client ip).
	Key func(req *handler.Request) string
	// Now is the clock (default: time.Now).
	Now func() time.Time
}

// RateLimit returns a before hook that allows at most Limit requests per key
// in each Window and answers the rest with 429 and Retry-After.
func RateLimit(cfg RateLimitConfig) handler.Hook {
	if cfg.Store == nil {
		panic("ratelimit middleware: store is required")
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		panic("ratelimit middleware: limit and window must be positive")
	}
	if cfg.Key == nil {
		cfg.Key = func(req *handler.Request) string {
			if ip, ok := GetClientIP(req); ok {
				return ip
			}
			return ExtractClientIP(req)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return handler.Hook{
		Name:  RateLimitHookName,
		Phase: handler.Before,
		Func: func(req *handler.Request, res *handler.Response) (handler.Action, error) {
			now := cfg.Now()
			w, err := cfg.Store.Update(req, "ratelimit:"+cfg.Key(req), cfg.Window,
				func(cur RateWindow, ok bool) (RateWindow, error) {
					if !ok || !now.Before(cur.ResetAt) {
						return RateWindow{Count: 1, ResetAt: now.Add(cfg.Window)}, nil
					}
					cur.Count++
					return cur, nil
				})
			if err != nil {
				return handler.Halt, fmt.Errorf("rate limit: %w", err)
			}

			h := http.Header{}
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(cfg.Limit-w.Count, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(w.ResetAt.Unix(), 10))

			if w.Count > cfg.Limit {
				retry := max(int(w.ResetAt.Sub(now).Round(time.Second)/time.Second), 1)
				h.Set("Retry-After", strconv.Itoa(retry))
				e := handler.AbortWith(http.StatusTooManyRequests, ErrRateLimited)
				e.Header = h
				return handler.Halt, e
			}
			for k, v := range h {
				res.Header()[k] = v
			}
			return handler.Continue, nil
		},
	}
}
