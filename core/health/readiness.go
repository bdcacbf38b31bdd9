package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/routekit/core/handler"
	"github.com/dmitrymomot/routekit/core/logger"
)

// ErrNotReady is the cause attached to a failed readiness probe.
var ErrNotReady = errors.New("service not ready")

// CheckFunc probes one dependency.
type CheckFunc func(context.Context) error

// Check names a probe so failures can be told apart in logs.
func Check(name string, fn CheckFunc) CheckFunc {
	return func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

// Readiness runs every check in order and answers "READY", or 503 on the
// first failure.
func Readiness(log *slog.Logger, checks ...CheckFunc) handler.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(req *handler.Request, res *handler.Response) error {
		for _, check := range checks {
			if err := check(req); err != nil {
				log.ErrorContext(req, "readiness check failed", logger.Error(err))
				return handler.AbortWith(http.StatusServiceUnavailable, errors.Join(ErrNotReady, err))
			}
		}
		res.Text(http.StatusOK, "READY")
		return nil
	}
}
