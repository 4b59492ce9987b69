// Package collect orchestrates the per-item enrichment of an account's
// library: ownership list once, then storefront metadata and achievement
// progress for every owned item, merged into one record per item.
package collect

import (
	"fmt"
	"time"

	"github.com/albapepper/steam-ledger/internal/provider"
)

// Outcome records which sources failed for one item. Failures never drop the
// item; they only surface as sentinel fields in its record.
type Outcome struct {
	CatalogErr     error
	AchievementErr error
}

// OK reports whether every source answered.
func (o Outcome) OK() bool {
	return o.CatalogErr == nil && o.AchievementErr == nil
}

// Result tracks the records and failure counts of one pipeline run.
type Result struct {
	Records             []provider.EnrichedRecord
	ItemsOwned          int
	CatalogFailures     int
	AchievementFailures int
	OwnershipErr        error
	Duration            time.Duration
	Errors              []string
}

// Empty reports whether the run produced nothing to persist.
func (r *Result) Empty() bool {
	return len(r.Records) == 0
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// add folds one item's outcome into the run counters.
func (r *Result) add(appID int, o Outcome) {
	if o.CatalogErr != nil {
		r.CatalogFailures++
		r.AddErrorf("catalog %d: %v", appID, o.CatalogErr)
	}
	if o.AchievementErr != nil {
		r.AchievementFailures++
		r.AddErrorf("achievements %d: %v", appID, o.AchievementErr)
	}
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"owned=%d records=%d catalog_failures=%d achievement_failures=%d errors=%d dur=%s",
		r.ItemsOwned, len(r.Records),
		r.CatalogFailures, r.AchievementFailures,
		len(r.Errors), r.Duration.Round(time.Second),
	)
}
