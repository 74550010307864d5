package ml

import (
	"context"

	"github.com/sirupsen/logrus"
)

// CachedScorer wraps a Scorer with per-row prediction caching. Scorers are
// deterministic for a model version, so cached rows are indistinguishable from
// fresh ones.
type CachedScorer struct {
	scorer Scorer
	cache  *PredictionCache
	kind   string
	logger *logrus.Logger
}

// NewCachedScorer creates a new cached scorer
func NewCachedScorer(scorer Scorer, cache *PredictionCache, kind string, logger *logrus.Logger) *CachedScorer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CachedScorer{
		scorer: scorer,
		cache:  cache,
		kind:   kind,
		logger: logger,
	}
}

// PredictProba answers cached rows locally and sends the rest to the wrapped
// scorer in a single call
func (c *CachedScorer) PredictProba(ctx context.Context, features [][]float64) ([]float64, error) {
	version := c.scorer.Version()
	probs := make([]float64, len(features))
	keys := make([]CacheKey, len(features))

	var missRows [][]float64
	var missIdx []int
	for i, row := range features {
		keys[i] = NewCacheKey(version, row)
		if p, ok := c.cache.Get(keys[i]); ok {
			probs[i] = p
			continue
		}
		missRows = append(missRows, row)
		missIdx = append(missIdx, i)
	}

	hits := len(features) - len(missRows)
	if hits > 0 {
		ScorerPredictionsTotal.WithLabelValues(c.kind, "true").Add(float64(hits))
	}
	if len(missRows) == 0 {
		c.logger.WithField("rows", len(features)).Debug("All rows served from prediction cache")
		return probs, nil
	}

	fresh, err := c.scorer.PredictProba(ctx, missRows)
	if err != nil {
		return nil, err
	}
	if err := validateProbabilities(fresh, len(missRows)); err != nil {
		return nil, err
	}

	for j, i := range missIdx {
		probs[i] = fresh[j]
		c.cache.Set(keys[i], fresh[j])
	}
	return probs, nil
}

// Version returns the wrapped scorer's version
func (c *CachedScorer) Version() string {
	return c.scorer.Version()
}

// Cache exposes the underlying cache for statistics
func (c *CachedScorer) Cache() *PredictionCache {
	return c.cache
}
