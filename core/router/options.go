package router

import (
	"log/slog"
	"time"
)

// Config holds router settings loadable from the environment.
type Config struct {
	HandlerTimeout       time.Duration `env:"ROUTER_HANDLER_TIMEOUT" envDefault:"0s"`
	NormalizeUnicodePath bool          `env:"ROUTER_NORMALIZE_UNICODE" envDefault:"false"`
}

// Option configures an App during creation.
type Option func(*App)

// WithLogger sets the logger used for dispatch failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithHandlerTimeout sets a per-request deadline. When it elapses while the
// handler runs, the request is answered with 503 through the error registry.
// Zero disables the deadline.
func WithHandlerTimeout(d time.Duration) Option {
	return func(a *App) {
		if d > 0 {
			a.handlerTimeout = d
		}
	}
}

// WithObserver registers an observer notified once per finalized request.
func WithObserver(o Observer) Option {
	return func(a *App) {
		if o != nil {
			a.observers = append(a.observers, o)
		}
	}
}

// WithUnicodeNormalization applies NFC normalization to request paths before
// matching, so composed and decomposed forms of the same text match one route.
func WithUnicodeNormalization() Option {
	return func(a *App) {
		a.normalizeUnicode = true
	}
}

// WithConfig applies a Config.
func WithConfig(cfg Config) Option {
	return func(a *App) {
		WithHandlerTimeout(cfg.HandlerTimeout)(a)
		if cfg.NormalizeUnicodePath {
			a.normalizeUnicode = true
		}
	}
}
