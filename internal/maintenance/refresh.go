package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/albapepper/steam-ledger/internal/collect"
	"github.com/albapepper/steam-ledger/internal/library"
	"github.com/albapepper/steam-ledger/internal/provider/steam"
)

// ErrNothingCollected is returned when a refresh produced no records. The
// previously saved library is left in place.
var ErrNothingCollected = errors.New("refresh collected no records")

// Collector runs one collection. Satisfied by *collect.Pipeline.
type Collector interface {
	Run(ctx context.Context, creds steam.Credentials) collect.Result
}

// Purger drops cached responses. Satisfied by *cache.Cache.
type Purger interface {
	Purge() int
}

// Refresher re-collects one account's library and replaces the saved copy.
type Refresher struct {
	Collector Collector
	Creds     steam.Credentials
	Sink      library.Sink
	Cache     Purger // optional
	Logger    *slog.Logger
}

// Refresh runs the pipeline, saves the records and purges the cache.
// An empty or interrupted run keeps the previous library.
func (r *Refresher) Refresh(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	result := r.Collector.Run(ctx, r.Creds)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("refresh interrupted: %w", err)
	}
	if result.Empty() {
		if result.OwnershipErr != nil {
			return fmt.Errorf("%w: %v", ErrNothingCollected, result.OwnershipErr)
		}
		return ErrNothingCollected
	}

	if err := r.Sink.Save(ctx, result.Records); err != nil {
		return fmt.Errorf("save library: %w", err)
	}

	purged := 0
	if r.Cache != nil {
		purged = r.Cache.Purge()
	}
	logger.Info("Library refreshed",
		"summary", result.Summary(),
		"purged_keys", purged,
		"duration", time.Since(start).Round(time.Millisecond))
	return nil
}
