package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for prediction runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogRunStarted logs the start of a prediction run.
func (pl *PipelineLogger) LogRunStarted(runID, modelVersion string, rows int) {
	pl.WithFields(logrus.Fields{
		"run_id":        runID,
		"model_version": modelVersion,
		"rows":          rows,
	}).Info("Prediction run started")
}

// LogRaceScored logs one ranked race.
func (pl *PipelineLogger) LogRaceScored(runID, race string, entries, notable int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"run_id":      runID,
		"race":        race,
		"entries":     entries,
		"notable":     notable,
		"duration_ms": duration.Milliseconds(),
	}).Debug("Race scored")
}

// LogRunCompleted logs a successful prediction run.
func (pl *PipelineLogger) LogRunCompleted(runID string, races, entries, notable int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"run_id":      runID,
		"races":       races,
		"entries":     entries,
		"notable":     notable,
		"duration_ms": duration.Milliseconds(),
	}).Info("Prediction run completed")
}

// LogRunFailed logs a prediction run that aborted.
func (pl *PipelineLogger) LogRunFailed(runID string, err error) {
	pl.WithFields(logrus.Fields{
		"run_id": runID,
		"error":  err.Error(),
	}).Error("Prediction run failed")
}

// LogSkippedRows logs input rows dropped for a blank venue or race number.
func (pl *PipelineLogger) LogSkippedRows(runID string, rows []int) {
	if len(rows) == 0 {
		return
	}
	pl.WithFields(logrus.Fields{
		"run_id":  runID,
		"skipped": len(rows),
		"rows":    rows,
	}).Warn("Skipped rows without venue or race number")
}
