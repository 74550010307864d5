package ml

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/horsemen/internal/config"
)

// NewScorer builds the scorer selected by cfg.Kind. modelPath is the model artifact
// of the chosen version; remote scorers report version as their model version.
// The result is wrapped in a CachedScorer when caching is configured; the cache
// belongs to the returned scorer and is dropped with it.
func NewScorer(cfg config.ScorerConfig, modelPath, version string, logger *logrus.Logger) (Scorer, error) {
	var scorer Scorer

	switch cfg.Kind {
	case config.ScorerEmbedded, "":
		model, err := LoadLogisticModel(modelPath)
		if err != nil {
			return nil, err
		}
		if model.ModelVersion == "" {
			model.ModelVersion = version
		}
		scorer = model
	case config.ScorerHTTP:
		scorer = NewHTTPScorer(HTTPScorerConfig{
			URL:          cfg.URL,
			APIKey:       cfg.APIKey,
			Version:      version,
			Timeout:      time.Duration(cfg.TimeoutSeconds) * time.Second,
			MaxRetries:   cfg.MaxRetries,
			RetryWaitMin: time.Duration(cfg.RetryWaitMinMs) * time.Millisecond,
			RetryWaitMax: time.Duration(cfg.RetryWaitMaxMs) * time.Millisecond,
			RateLimit:    cfg.RateLimit,
		}, logger)
	case config.ScorerGRPC:
		grpcScorer, err := NewGRPCScorer(GRPCScorerConfig{
			Address: cfg.GRPCAddress,
			UseTLS:  cfg.UseTLS,
			Version: version,
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		}, logger)
		if err != nil {
			return nil, err
		}
		scorer = grpcScorer
	default:
		return nil, fmt.Errorf("unknown scorer kind %q", cfg.Kind)
	}

	kind := cfg.Kind
	if kind == "" {
		kind = KindEmbedded
	}

	if cfg.CacheEnabled() {
		cache := NewPredictionCache(time.Duration(cfg.CacheTTLSeconds)*time.Second, cfg.CacheMaxSize)
		scorer = NewCachedScorer(scorer, cache, kind, logger)
	}
	return scorer, nil
}

// Close releases resources held by scorers that own connections
func Close(s Scorer) error {
	switch v := s.(type) {
	case *CachedScorer:
		return Close(v.scorer)
	case io.Closer:
		return v.Close()
	default:
		return nil
	}
}
