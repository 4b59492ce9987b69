// Package maintenance runs periodic background tasks as Go tickers. The API
// server uses it to re-collect the library so reads stay current without a
// separate cron job.
package maintenance

import (
	"context"
	"log/slog"
	"time"
)

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	RefreshInterval time.Duration // Re-collect the library and purge the cache
	RefreshOnStart  bool          // Run one refresh before the first tick
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, cfg Config, refresher *Refresher, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RefreshInterval <= 0 || refresher == nil {
		logger.Info("Maintenance tickers disabled")
		return
	}
	logger.Info("Maintenance tickers started", "refresh", cfg.RefreshInterval)

	if cfg.RefreshOnStart {
		refresh(ctx, refresher, logger)
	}

	t := time.NewTicker(cfg.RefreshInterval)
	defer t.Stop()
	runLoop(ctx, t.C, func() { refresh(ctx, refresher, logger) })

	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

func refresh(ctx context.Context, r *Refresher, logger *slog.Logger) {
	if err := r.Refresh(ctx); err != nil {
		logger.Warn("Library refresh failed", "error", err)
	}
}
