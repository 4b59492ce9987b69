package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/steam-ledger/internal/provider"
)

// LibraryTable holds one row per collected record per account, keyed by its
// position in the collection. Only the latest collection is kept.
const LibraryTable = "library_items"

const recordColumns = "name, app_id, playtime_hours, price, release_date, developer, publisher, genres, achievements_gained, achievements_total"

var copyColumns = []string{
	"steam_id", "app_id", "position", "name", "playtime_hours", "price",
	"release_date", "developer", "publisher", "genres",
	"achievements_gained", "achievements_total", "updated_at",
}

// ErrNotFound is returned by LibraryItem when the account does not own the item.
var ErrNotFound = errors.New("not found")

// ReplaceLibrary replaces every row for steamID with records in a single
// transaction. Record order is kept in the position column.
func (p *Pool) ReplaceLibrary(ctx context.Context, steamID string, records []provider.EnrichedRecord) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "delete_library", steamID); err != nil {
		return fmt.Errorf("delete library: %w", err)
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(records))
	for i, r := range records {
		rows = append(rows, []any{
			steamID, r.ItemID, i, r.Name, r.PlaytimeHours, r.Price,
			r.ReleaseDate, r.Developer, r.Publisher, r.Genres,
			r.AchievementsGained, r.AchievementsTotal, now,
		})
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{LibraryTable}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy library: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListLibrary returns the account's records in collection order.
func (p *Pool) ListLibrary(ctx context.Context, steamID string) ([]provider.EnrichedRecord, error) {
	rows, err := p.Query(ctx, "list_library", steamID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan library: %w", err)
	}
	return records, nil
}

// LibraryItem returns the first record for appID, or ErrNotFound.
func (p *Pool) LibraryItem(ctx context.Context, steamID string, appID int) (provider.EnrichedRecord, error) {
	rows, err := p.Query(ctx, "library_item", steamID, appID)
	if err != nil {
		return provider.EnrichedRecord{}, fmt.Errorf("library item: %w", err)
	}
	rec, err := pgx.CollectOneRow(rows, scanRecord)
	if errors.Is(err, pgx.ErrNoRows) {
		return provider.EnrichedRecord{}, ErrNotFound
	}
	if err != nil {
		return provider.EnrichedRecord{}, fmt.Errorf("scan library item: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.CollectableRow) (provider.EnrichedRecord, error) {
	var r provider.EnrichedRecord
	err := row.Scan(
		&r.Name, &r.ItemID, &r.PlaytimeHours, &r.Price, &r.ReleaseDate,
		&r.Developer, &r.Publisher, &r.Genres,
		&r.AchievementsGained, &r.AchievementsTotal,
	)
	return r, err
}
