package collect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/steam"
)

// Options tunes a pipeline run.
type Options struct {
	// Workers is the number of items enriched concurrently. 1 (the default)
	// enriches strictly one item after another. Records keep ownership order
	// either way; only log interleaving differs.
	Workers int
}

// Pipeline runs the ownership listing and per-item enrichment for an account.
type Pipeline struct {
	owned    OwnershipSource
	enricher *Enricher
	opts     Options
	logger   *slog.Logger
}

// NewPipeline creates a pipeline.
func NewPipeline(owned OwnershipSource, enricher *Enricher, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{
		owned:    owned,
		enricher: enricher,
		opts:     opts,
		logger:   logger,
	}
}

// Run collects one record per owned item, in the order the ownership source
// returned them.
//
// An empty or failed ownership listing ends the run immediately with no
// records and no further calls. No single item's failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, creds steam.Credentials) Result {
	start := time.Now()
	var result Result

	items, err := p.owned.OwnedItems(ctx, creds)
	if err != nil {
		result.OwnershipErr = err
		result.AddErrorf("owned games: %v", err)
	}
	result.ItemsOwned = len(items)
	if len(items) == 0 {
		p.logger.Warn("No owned games to process")
		result.Duration = time.Since(start)
		return result
	}

	p.logger.Info("Collecting game data", "count", len(items), "workers", p.opts.Workers)

	records := make([]provider.EnrichedRecord, len(items))
	outcomes := make([]Outcome, len(items))

	if p.opts.Workers == 1 {
		for i, item := range items {
			records[i], outcomes[i] = p.enricher.Enrich(ctx, creds, item, i+1, len(items))
		}
	} else {
		p.runConcurrent(ctx, creds, items, records, outcomes)
	}

	for i, item := range items {
		result.add(item.AppID, outcomes[i])
	}
	result.Records = records
	result.Duration = time.Since(start)

	p.logger.Info("Collection complete", "summary", result.Summary())
	return result
}

// runConcurrent enriches items with a bounded worker pool. Each worker writes
// only the slots of the indices it receives, so no lock guards the slices.
func (p *Pipeline) runConcurrent(
	ctx context.Context,
	creds steam.Credentials,
	items []provider.OwnedItem,
	records []provider.EnrichedRecord,
	outcomes []Outcome,
) {
	workers := p.opts.Workers
	if workers > len(items) {
		workers = len(items)
	}

	ch := make(chan int, len(items))
	for i := range items {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				records[i], outcomes[i] = p.enricher.Enrich(ctx, creds, items[i], i+1, len(items))
			}
		}()
	}
	wg.Wait()
}
