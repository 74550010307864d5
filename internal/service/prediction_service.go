// Package service runs the prediction pipeline: input table to ranked races.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/horsemen/internal/config"
	"github.com/yourusername/horsemen/internal/features"
	"github.com/yourusername/horsemen/internal/logger"
	"github.com/yourusername/horsemen/internal/metrics"
	"github.com/yourusername/horsemen/internal/ml"
	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/ranking"
	"github.com/yourusername/horsemen/internal/stats"
	"github.com/yourusername/horsemen/internal/table"
)

// RunSink receives every successful prediction run
type RunSink interface {
	HandleRun(ctx context.Context, run *models.PredictionRun) error
}

// RunSinkFunc adapts a function to RunSink
type RunSinkFunc func(ctx context.Context, run *models.PredictionRun) error

// HandleRun calls f
func (f RunSinkFunc) HandleRun(ctx context.Context, run *models.PredictionRun) error {
	return f(ctx, run)
}

// Options configures a PredictionService
type Options struct {
	Workers int
	Layout  stats.Layout
	Scorer  config.ScorerConfig
}

// PredictionService scores input tables race by race
type PredictionService struct {
	opts      Options
	sinks     []RunSink
	logger    *logrus.Logger
	pipelineL *logger.PipelineLogger
}

// NewPredictionService creates a new prediction service
func NewPredictionService(opts Options, log *logrus.Logger, sinks ...RunSink) *PredictionService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Layout == (stats.Layout{}) {
		opts.Layout = stats.DefaultLayout()
	}
	return &PredictionService{
		opts:      opts,
		sinks:     sinks,
		logger:    log,
		pipelineL: logger.NewPipelineLogger(log),
	}
}

// AddSink registers a sink for subsequent runs
func (s *PredictionService) AddSink(sink RunSink) {
	s.sinks = append(s.sinks, sink)
}

// ExecuteFromDir loads the model and statistics of one version directory and runs
// the pipeline. Loading is all or nothing and happens before any row is read.
func (s *PredictionService) ExecuteFromDir(ctx context.Context, t *table.Table, modelDir string) (*models.PredictionRun, error) {
	version := filepath.Base(modelDir)

	scorer, err := ml.NewScorer(s.opts.Scorer, s.opts.Layout.Path(modelDir, stats.TableModel), version, s.logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := ml.Close(scorer); err != nil {
			s.logger.WithError(err).Warn("Failed to close scorer")
		}
	}()

	store, err := stats.Load(modelDir, s.opts.Layout)
	if err != nil {
		return nil, err
	}

	return s.Execute(ctx, t, store, scorer)
}

// Execute runs the pipeline over t with an already loaded store and scorer
func (s *PredictionService) Execute(ctx context.Context, t *table.Table, store *stats.Store, scorer ml.Scorer) (*models.PredictionRun, error) {
	start := time.Now()
	run := &models.PredictionRun{
		ID:           uuid.New(),
		ModelVersion: store.Version(),
		StartedAt:    start,
	}
	if run.ModelVersion == "" {
		run.ModelVersion = scorer.Version()
	}
	runID := run.ID.String()

	normalized, mode := Normalize(t)
	s.logger.WithFields(logrus.Fields{
		"run_id": runID,
		"schema": mode.String(),
	}).Debug("Input schema detected")

	if err := ValidateColumns(normalized); err != nil {
		metrics.RecordRun("invalid_input", time.Since(start).Seconds())
		s.pipelineL.LogRunFailed(runID, err)
		return nil, err
	}

	s.pipelineL.LogRunStarted(runID, run.ModelVersion, normalized.Len())

	entries, skipped := ToEntries(normalized)
	s.pipelineL.LogSkippedRows(runID, skipped)
	metrics.RecordRowsSkipped(len(skipped))

	races := GroupRaces(entries)
	results, err := s.rankRaces(ctx, runID, races, store, scorer)
	if err != nil {
		metrics.RecordRun("failed", time.Since(start).Seconds())
		s.pipelineL.LogRunFailed(runID, err)
		return nil, err
	}

	for _, r := range results {
		run.Results = append(run.Results, r...)
	}
	run.Races = len(races)
	run.Entries = len(run.Results)
	run.Skipped = len(skipped)
	run.Duration = time.Since(start)

	notable := run.NotableCount()
	metrics.RecordNotablePicks(notable)
	metrics.RecordRun("success", run.Duration.Seconds())
	metrics.UpdateLastRun(run.Entries, float64(time.Now().Unix()))
	s.pipelineL.LogRunCompleted(runID, run.Races, run.Entries, notable, run.Duration)

	for _, sink := range s.sinks {
		if err := sink.HandleRun(ctx, run); err != nil {
			s.logger.WithError(err).WithField("run_id", runID).Warn("Run sink failed")
		}
	}

	return run, nil
}

// rankRaces scores races concurrently and returns results in race order
func (s *PredictionService) rankRaces(ctx context.Context, runID string, races []models.Race, store *stats.Store, scorer ml.Scorer) ([][]models.RankedResult, error) {
	builder := features.NewBuilder(store, s.logger)
	results := make([][]models.RankedResult, len(races))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)

	for i := range races {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ranked, err := s.rankRace(gctx, runID, builder, races[i], scorer)
			if err != nil {
				return err
			}
			results[i] = ranked
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *PredictionService) rankRace(ctx context.Context, runID string, builder *features.Builder, race models.Race, scorer ml.Scorer) ([]models.RankedResult, error) {
	start := time.Now()

	vectors := builder.Build(race.Entries)
	probs, err := scorer.PredictProba(ctx, features.Matrix(vectors))
	if err != nil {
		return nil, fmt.Errorf("failed to score race %s: %w", race.Key, err)
	}
	if len(probs) != len(race.Entries) {
		return nil, fmt.Errorf("failed to score race %s: %w: got %d probabilities for %d entries",
			race.Key, ml.ErrInvalidPrediction, len(probs), len(race.Entries))
	}

	ranked := ranking.Rank(race.Key, race.Name(), race.Entries, vectors, probs)
	elapsed := time.Since(start)

	notable := 0
	for i := range ranked {
		if ranked[i].IsNotable() {
			notable++
		}
	}
	metrics.RecordRaceRanked(len(ranked), elapsed.Seconds())
	s.pipelineL.LogRaceScored(runID, race.Key.String(), len(ranked), notable, elapsed)
	return ranked, nil
}
