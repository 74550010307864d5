package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/horsemen/internal/database"
	"github.com/yourusername/horsemen/internal/models"
)

var resultColumns = []string{
	"run_id", "position", "venue", "race_number", "race_name", "rank", "mark", "post",
	"horse_number", "horse_name", "jockey", "ai_index", "post_mark", "sire",
}

var _ PredictionRepository = (*PostgresPredictionRepository)(nil)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction run repository
func NewPostgresPredictionRepository(db *database.DB) *PostgresPredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// SaveRun stores a run header and all of its ranked rows in one transaction
func (r *PostgresPredictionRepository) SaveRun(ctx context.Context, run *models.PredictionRun) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO prediction_runs (id, model_version, races, entries, skipped, started_at, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, query,
			run.ID, run.ModelVersion, run.Races, run.Entries, run.Skipped, run.StartedAt, run.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert prediction run: %w", err)
		}

		if len(run.Results) == 0 {
			return nil
		}

		// Use COPY for high-performance bulk insert
		copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"ranked_results"}, resultColumns,
			pgx.CopyFromRows(resultRows(run)))
		if err != nil {
			return fmt.Errorf("failed to batch insert ranked results: %w", err)
		}
		if copyCount != int64(len(run.Results)) {
			return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(run.Results))
		}
		return nil
	})
}

// HandleRun persists runs produced by the prediction service
func (r *PostgresPredictionRepository) HandleRun(ctx context.Context, run *models.PredictionRun) error {
	return r.SaveRun(ctx, run)
}

// GetRun retrieves a run and its rows in stored order
func (r *PostgresPredictionRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error) {
	query := `
		SELECT id, model_version, races, entries, skipped, started_at, duration_ms
		FROM prediction_runs
		WHERE id = $1
	`
	run, err := scanRun(r.db.GetPool().QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadResults(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// LatestRun retrieves the most recently started run with its rows
func (r *PostgresPredictionRepository) LatestRun(ctx context.Context) (*models.PredictionRun, error) {
	query := `
		SELECT id, model_version, races, entries, skipped, started_at, duration_ms
		FROM prediction_runs
		ORDER BY started_at DESC
		LIMIT 1
	`
	run, err := scanRun(r.db.GetPool().QueryRow(ctx, query))
	if err != nil {
		return nil, err
	}

	if err := r.loadResults(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns run headers, newest first, without their rows
func (r *PostgresPredictionRepository) ListRuns(ctx context.Context, limit int) ([]*models.PredictionRun, error) {
	query := `
		SELECT id, model_version, races, entries, skipped, started_at, duration_ms
		FROM prediction_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PredictionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction runs: %w", err)
	}
	return runs, nil
}

func (r *PostgresPredictionRepository) loadResults(ctx context.Context, run *models.PredictionRun) error {
	query := `
		SELECT venue, race_number, race_name, rank, mark, post, horse_number, horse_name,
		       jockey, ai_index, post_mark, sire
		FROM ranked_results
		WHERE run_id = $1
		ORDER BY position
	`

	rows, err := r.db.GetPool().Query(ctx, query, run.ID)
	if err != nil {
		return fmt.Errorf("failed to query ranked results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.RankedResult
		var postMark string
		err := rows.Scan(
			&res.Venue, &res.RaceNumber, &res.RaceName, &res.Rank, &res.Mark, &res.Post,
			&res.HorseNumber, &res.HorseName, &res.Jockey, &res.AIIndex, &postMark, &res.Sire,
		)
		if err != nil {
			return fmt.Errorf("failed to scan ranked result: %w", err)
		}
		res.PostMark = models.PostMark(postMark)
		run.Results = append(run.Results, res)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating ranked results: %w", err)
	}
	return nil
}

func scanRun(row pgx.Row) (*models.PredictionRun, error) {
	run := &models.PredictionRun{}
	var durationMs int64
	err := row.Scan(&run.ID, &run.ModelVersion, &run.Races, &run.Entries, &run.Skipped, &run.StartedAt, &durationMs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan prediction run: %w", err)
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

// resultRows lays out run results in resultColumns order for COPY
func resultRows(run *models.PredictionRun) [][]any {
	rows := make([][]any, len(run.Results))
	for i, res := range run.Results {
		rows[i] = []any{
			run.ID, i, res.Venue, res.RaceNumber, res.RaceName, res.Rank, res.Mark, res.Post,
			res.HorseNumber, res.HorseName, res.Jockey, res.AIIndex, string(res.PostMark), res.Sire,
		}
	}
	return rows
}
