// Package metrics provides the Prometheus registry for the prediction pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "pipeline_runs_total",
		Help:      "Total number of prediction runs by status",
	}, []string{"status"})
	RacesRankedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "races_ranked_total",
		Help:      "Total number of races ranked",
	})
	EntriesScoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "entries_scored_total",
		Help:      "Total number of race entries scored",
	})
	RowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "rows_skipped_total",
		Help:      "Total number of input rows skipped for a blank venue or race number",
	})
	LookupDefaultsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "lookup_defaults_total",
		Help:      "Total number of statistics lookups that fell back to the default score",
	}, []string{"table"})
	NotablePicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "horsemen",
		Name:      "notable_picks_total",
		Help:      "Total number of entries marked notable",
	})
)

// Gauge metrics
var (
	LastRunEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "horsemen",
		Name:      "last_run_entries",
		Help:      "Number of entries ranked by the most recent run",
	})
	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "horsemen",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the most recent successful run",
	})
)

// Histogram metrics
var (
	PipelineRunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "horsemen",
		Name:      "pipeline_run_duration_seconds",
		Help:      "Duration of prediction runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
	})
	RaceScoringDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "horsemen",
		Name:      "race_scoring_duration_seconds",
		Help:      "Duration of scoring a single race in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(RacesRankedTotal)
		registry.MustRegister(EntriesScoredTotal)
		registry.MustRegister(RowsSkippedTotal)
		registry.MustRegister(LookupDefaultsTotal)
		registry.MustRegister(NotablePicksTotal)

		registry.MustRegister(LastRunEntries)
		registry.MustRegister(LastRunTimestamp)

		registry.MustRegister(PipelineRunDuration)
		registry.MustRegister(RaceScoringDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler. Scorer metrics live in the default
// registry and are served alongside the pipeline metrics.
func Handler() http.Handler {
	gatherers := prometheus.Gatherers{GetRegistry(), prometheus.DefaultGatherer}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}

// RecordRun records the outcome of a prediction run.
func RecordRun(status string, durationSeconds float64) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineRunDuration.Observe(durationSeconds)
}

// RecordRaceRanked records one ranked race and its entry count.
func RecordRaceRanked(entries int, durationSeconds float64) {
	RacesRankedTotal.Inc()
	EntriesScoredTotal.Add(float64(entries))
	RaceScoringDuration.Observe(durationSeconds)
}

// RecordRowsSkipped records input rows dropped before grouping.
func RecordRowsSkipped(count int) {
	if count > 0 {
		RowsSkippedTotal.Add(float64(count))
	}
}

// RecordLookupDefault records a statistics lookup that resolved to the default score.
func RecordLookupDefault(table string) {
	LookupDefaultsTotal.WithLabelValues(table).Inc()
}

// RecordNotablePicks records entries that crossed the notable threshold.
func RecordNotablePicks(count int) {
	if count > 0 {
		NotablePicksTotal.Add(float64(count))
	}
}

// UpdateLastRun updates the gauges describing the latest successful run.
func UpdateLastRun(entries int, unixSeconds float64) {
	LastRunEntries.Set(float64(entries))
	LastRunTimestamp.Set(unixSeconds)
}
