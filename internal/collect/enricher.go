package collect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/provider/steam"
)

// OwnershipSource lists the items owned by an account.
type OwnershipSource interface {
	OwnedItems(ctx context.Context, creds steam.Credentials) ([]provider.OwnedItem, error)
}

// CatalogSource returns best-effort storefront metadata. The metadata is
// usable even when err is non-nil.
type CatalogSource interface {
	CatalogMetadata(ctx context.Context, appID int) (provider.CatalogMetadata, error)
}

// AchievementSource returns achievement progress. The progress is usable
// (zero) even when err is non-nil.
type AchievementSource interface {
	AchievementProgress(ctx context.Context, creds steam.Credentials, appID int) (provider.AchievementProgress, error)
}

// Enricher merges the catalog and achievement facts of one owned item.
type Enricher struct {
	catalog      CatalogSource
	achievements AchievementSource
	logger       *slog.Logger
}

// NewEnricher creates an Enricher over the two per-item sources.
func NewEnricher(catalog CatalogSource, achievements AchievementSource, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		catalog:      catalog,
		achievements: achievements,
		logger:       logger,
	}
}

// Enrich fetches storefront metadata then achievement progress for item and
// merges them into its record. rank and total only feed progress reporting.
//
// A failing source degrades to its sentinel values and is reported in the
// Outcome; the record is always produced.
func (e *Enricher) Enrich(ctx context.Context, creds steam.Credentials, item provider.OwnedItem, rank, total int) (provider.EnrichedRecord, Outcome) {
	var outcome Outcome
	progress := fmt.Sprintf("[%d/%d]", rank, total)
	log := e.logger.With("progress", progress, "app_id", item.AppID)

	log.Info("Processing game", "name", item.Name)

	log.Debug("Fetching store page")
	meta, err := e.catalog.CatalogMetadata(ctx, item.AppID)
	if err != nil {
		outcome.CatalogErr = err
		log.Warn("Failed to fetch details", "error", err)
		if meta.Price == "" {
			meta = provider.UnknownCatalog()
		}
	}
	log.Info("Catalog metadata",
		"price", meta.Price,
		"release_date", meta.ReleaseDate,
		"developer", meta.Developer,
		"publisher", meta.Publisher,
		"genres", meta.GenresField())

	log.Debug("Fetching achievements")
	achieved, err := e.achievements.AchievementProgress(ctx, creds, item.AppID)
	if err != nil {
		outcome.AchievementErr = err
		log.Info("Achievements unavailable", "error", err)
	}

	return provider.Merge(item, meta, achieved), outcome
}
