package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScorerPredictionsTotal tracks scored feature rows
	ScorerPredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horsemen_scorer_predictions_total",
			Help: "Total number of feature rows scored",
		},
		[]string{"scorer_kind", "cache_hit"},
	)

	// ScorerLatency tracks batch prediction latency
	ScorerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horsemen_scorer_latency_seconds",
			Help:    "Batch prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scorer_kind"},
	)

	// ScorerErrorsTotal tracks failed predictions
	ScorerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horsemen_scorer_errors_total",
			Help: "Total number of failed batch predictions",
		},
		[]string{"scorer_kind", "error_type"},
	)

	// ScorerCacheHitRatio tracks cache hit ratio
	ScorerCacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "horsemen_scorer_cache_hit_ratio",
			Help: "Prediction cache hit ratio",
		},
	)
)
