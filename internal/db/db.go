// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking, plus the library_items sink.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/steam-ledger/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates the library schema if needed, then creates and validates a new
// connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepared statements reference library_items, so it must exist first.
	if err := ensureSchema(ctx, poolCfg.ConnConfig); err != nil {
		return nil, err
	}

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

func ensureSchema(ctx context.Context, connCfg *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, connCfg.Copy())
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS ` + LibraryTable + ` (
	steam_id            TEXT             NOT NULL,
	app_id              INTEGER          NOT NULL,
	position            INTEGER          NOT NULL,
	name                TEXT             NOT NULL,
	playtime_hours      DOUBLE PRECISION NOT NULL,
	price               TEXT             NOT NULL,
	release_date        TEXT             NOT NULL,
	developer           TEXT             NOT NULL,
	publisher           TEXT             NOT NULL,
	genres              TEXT             NOT NULL,
	achievements_gained INTEGER          NOT NULL,
	achievements_total  INTEGER          NOT NULL,
	updated_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	PRIMARY KEY (steam_id, position)
);
CREATE INDEX IF NOT EXISTS ` + LibraryTable + `_app_idx ON ` + LibraryTable + ` (steam_id, app_id)`

// registerPreparedStatements registers all statements the API and ingestion
// layers use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// API: library
		"list_library": "SELECT " + recordColumns + " FROM " + LibraryTable + " WHERE steam_id = $1 ORDER BY position",
		"library_item": "SELECT " + recordColumns + " FROM " + LibraryTable + " WHERE steam_id = $1 AND app_id = $2 ORDER BY position LIMIT 1",

		// Ingestion
		"delete_library": "DELETE FROM " + LibraryTable + " WHERE steam_id = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
