package logger

import (
	"github.com/sirupsen/logrus"
)

// ScorerLogger provides dedicated logging for classifier calls.
type ScorerLogger struct {
	*logrus.Entry
}

// NewScorerLogger creates a new scorer logger.
func NewScorerLogger(baseLogger *logrus.Logger) *ScorerLogger {
	return &ScorerLogger{
		Entry: baseLogger.WithField("component", "scorer"),
	}
}

// LogModelLoaded logs a classifier becoming available.
func (sl *ScorerLogger) LogModelLoaded(kind, version, source string) {
	sl.WithFields(logrus.Fields{
		"scorer_kind":   kind,
		"model_version": version,
		"source":        source,
	}).Info("Scorer ready")
}

// LogPrediction logs a completed batch prediction.
func (sl *ScorerLogger) LogPrediction(kind string, rows int, cacheHit bool, latencyMs float64) {
	sl.WithFields(logrus.Fields{
		"scorer_kind": kind,
		"rows":        rows,
		"cache_hit":   cacheHit,
		"latency_ms":  latencyMs,
	}).Debug("Prediction completed")
}

// LogPredictionError logs a failed batch prediction.
func (sl *ScorerLogger) LogPredictionError(kind string, rows int, err error) {
	sl.WithFields(logrus.Fields{
		"scorer_kind": kind,
		"rows":        rows,
		"error":       err.Error(),
	}).Error("Prediction failed")
}
