// Package library binds a collected library to where it is kept: the CSV file
// and, optionally, the Postgres library_items table. The CLI writes through
// it, the API reads through it and the periodic refresh does both.
package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/albapepper/steam-ledger/internal/db"
	"github.com/albapepper/steam-ledger/internal/provider"
	"github.com/albapepper/steam-ledger/internal/table"
)

// ErrNotCollected is returned by Records before any collection has been saved.
var ErrNotCollected = errors.New("library not collected yet")

// ErrNoItem is returned by Record when the saved library does not hold the item.
var ErrNoItem = errors.New("item not in library")

// Source reads the latest saved library.
type Source interface {
	Records(ctx context.Context) ([]provider.EnrichedRecord, error)
	Record(ctx context.Context, itemID int) (provider.EnrichedRecord, error)
}

// Sink persists a collected library, replacing the previous one.
type Sink interface {
	Save(ctx context.Context, records []provider.EnrichedRecord) error
}

// File is the CSV table at a path.
type File struct {
	Path string
}

// Records reads the table.
func (f File) Records(ctx context.Context) ([]provider.EnrichedRecord, error) {
	records, err := table.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", f.Path, ErrNotCollected)
	}
	return records, err
}

// Record scans the table for one item.
func (f File) Record(ctx context.Context, itemID int) (provider.EnrichedRecord, error) {
	records, err := f.Records(ctx)
	if err != nil {
		return provider.EnrichedRecord{}, err
	}
	return find(records, itemID)
}

// Save rewrites the table.
func (f File) Save(ctx context.Context, records []provider.EnrichedRecord) error {
	return table.WriteFile(f.Path, records)
}

// Store is the subset of *db.Pool the library needs.
type Store interface {
	ListLibrary(ctx context.Context, steamID string) ([]provider.EnrichedRecord, error)
	LibraryItem(ctx context.Context, steamID string, appID int) (provider.EnrichedRecord, error)
	ReplaceLibrary(ctx context.Context, steamID string, records []provider.EnrichedRecord) error
}

// Table is one account's rows in Postgres.
type Table struct {
	Store   Store
	SteamID string
}

// Records lists the account's rows in collection order.
func (t Table) Records(ctx context.Context) ([]provider.EnrichedRecord, error) {
	records, err := t.Store.ListLibrary(ctx, t.SteamID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("steam id %s: %w", t.SteamID, ErrNotCollected)
	}
	return records, nil
}

// Record looks up one row. A miss on an account with no rows at all is
// reported as ErrNotCollected, like Records.
func (t Table) Record(ctx context.Context, itemID int) (provider.EnrichedRecord, error) {
	rec, err := t.Store.LibraryItem(ctx, t.SteamID, itemID)
	if !errors.Is(err, db.ErrNotFound) {
		return rec, err
	}
	if _, err := t.Records(ctx); err != nil {
		return provider.EnrichedRecord{}, err
	}
	return provider.EnrichedRecord{}, fmt.Errorf("app %d: %w", itemID, ErrNoItem)
}

// Save replaces the account's rows.
func (t Table) Save(ctx context.Context, records []provider.EnrichedRecord) error {
	return t.Store.ReplaceLibrary(ctx, t.SteamID, records)
}

// Sinks writes to every sink in order. All sinks are attempted; the errors
// are joined.
type Sinks struct {
	Targets []Sink
	Logger  *slog.Logger
}

// Save saves records to each target.
func (s Sinks) Save(ctx context.Context, records []provider.EnrichedRecord) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, target := range s.Targets {
		if err := target.Save(ctx, records); err != nil {
			logger.Error("Failed to save library", "sink", describe(target), "error", err)
			errs = append(errs, err)
			continue
		}
		logger.Info("Library saved", "sink", describe(target), "records", len(records))
	}
	return errors.Join(errs...)
}

func describe(s Sink) string {
	switch v := s.(type) {
	case File:
		return "file:" + v.Path
	case Table:
		return "postgres:" + v.SteamID
	default:
		return fmt.Sprintf("%T", s)
	}
}

func find(records []provider.EnrichedRecord, itemID int) (provider.EnrichedRecord, error) {
	for _, rec := range records {
		if rec.ItemID == itemID {
			return rec, nil
		}
	}
	return provider.EnrichedRecord{}, fmt.Errorf("app %d: %w", itemID, ErrNoItem)
}
