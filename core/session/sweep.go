package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/routekit/core/logger"
)

// Sweep calls fn every interval until ctx is done. It blocks and returns
// ctx.Err(). Persistent stores use it to purge expired rows in the background.
func Sweep(ctx context.Context, interval time.Duration, log *slog.Logger, fn func(context.Context) (int64, error)) error {
	if interval <= 0 {
		return ErrSweepDisabled
	}

	log.InfoContext(ctx, "session sweeper started", slog.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.InfoContext(context.Background(), "session sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			n, err := fn(ctx)
			if err != nil {
				log.ErrorContext(ctx, "session sweep failed", logger.Error(err))
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "expired sessions removed", logger.Count("removed", int(n)))
			}
		}
	}
}
