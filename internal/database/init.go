package database

import (
	"context"
	"fmt"

	"github.com/yourusername/horsemen/internal/config"
)

// schema holds every statement needed by the prediction repository. Statements
// are idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS prediction_runs (
		id            UUID PRIMARY KEY,
		model_version TEXT NOT NULL,
		races         INTEGER NOT NULL,
		entries       INTEGER NOT NULL,
		skipped       INTEGER NOT NULL DEFAULT 0,
		started_at    TIMESTAMPTZ NOT NULL,
		duration_ms   BIGINT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ranked_results (
		run_id       UUID NOT NULL REFERENCES prediction_runs(id) ON DELETE CASCADE,
		position     INTEGER NOT NULL,
		venue        TEXT NOT NULL,
		race_number  TEXT NOT NULL,
		race_name    TEXT NOT NULL DEFAULT '',
		rank         INTEGER NOT NULL,
		mark         TEXT NOT NULL DEFAULT '',
		post         INTEGER NOT NULL,
		horse_number TEXT NOT NULL,
		horse_name   TEXT NOT NULL,
		jockey       TEXT NOT NULL DEFAULT '',
		ai_index     DOUBLE PRECISION NOT NULL,
		post_mark    TEXT NOT NULL,
		sire         TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_prediction_runs_started_at ON prediction_runs (started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ranked_results_race ON ranked_results (venue, race_number)`,
}

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
