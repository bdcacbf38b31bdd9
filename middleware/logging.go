package middleware

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/logger"
)

// LoggingHookName names both halves of the access log hook.
const LoggingHookName = "logging"

type requestStartKey struct{}

// LoggingConfig configures the access log hooks.
type LoggingConfig struct {
	Logger *slog.Logger
	// Level for regular requests (default: info).
	Level slog.Level
	// SlowThreshold promotes slower requests to warn (default: 5s).
	SlowThreshold time.Duration
	// Component is attached to every record (default: "http").
	Component string
}

// Logging returns the before and after access log hooks.
// Failed requests never reach the after phase; the dispatcher logs those.
func Logging(log *slog.Logger) []handler.Hook {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig returns the access log hooks for cfg.
func LoggingWithConfig(cfg LoggingConfig) []handler.Hook {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	start := func(req *handler.Request, _ *handler.Response) (handler.Action, error) {
		req.Set(requestStartKey{}, time.Now())
		return handler.Continue, nil
	}

	finish := func(req *handler.Request, res *handler.Response) (handler.Action, error) {
		began, ok := handler.Attr[time.Time](req, requestStartKey{})
		if !ok {
			began = time.Now()
		}
		elapsed := time.Since(began)

		route := req.Route()
		attrs := []slog.Attr{
			logger.Component(cfg.Component),
			logger.Method(req.Method()),
			logger.Path(req.Path()),
			logger.Route(route.Pattern),
			logger.Blueprint(route.Blueprint),
			logger.Status(res.Status()),
			logger.Duration(elapsed),
		}
		if id, ok := GetRequestID(req); ok {
			attrs = append(attrs, logger.RequestID(id))
		}
		if ip, ok := GetClientIP(req); ok {
			attrs = append(attrs, logger.ClientIP(ip))
		}

		level := cfg.Level
		if elapsed >= cfg.SlowThreshold {
			level = slog.LevelWarn
		}
		cfg.Logger.LogAttrs(req, level, "request completed", attrs...)
		return handler.Continue, nil
	}

	return []handler.Hook{
		{Name: LoggingHookName, Phase: handler.Before, Func: start},
		{Name: LoggingHookName, Phase: handler.After, Func: finish},
	}
}
