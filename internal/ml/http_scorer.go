package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPScorerConfig holds configuration for the model server client
type HTTPScorerConfig struct {
	URL          string
	APIKey       string
	Version      string
	Timeout      time.Duration
	MaxRetries   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
}

// DefaultHTTPScorerConfig returns recommended defaults
func DefaultHTTPScorerConfig() HTTPScorerConfig {
	return HTTPScorerConfig{
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryWaitMin: 100 * time.Millisecond,
		RetryWaitMax: 2 * time.Second,
		RateLimit:    20.0,
	}
}

type predictRequest struct {
	Features [][]float64 `json:"features"`
}

type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
	ModelVersion  string    `json:"model_version,omitempty"`
}

// HTTPScorer scores feature rows against a remote model server.
// Transport-level retries are the only retries; the pipeline never retries a race.
type HTTPScorer struct {
	client   *retryablehttp.Client
	limiter  *rate.Limiter
	endpoint string
	health   string
	apiKey   string
	version  string
	logger   *logrus.Logger
}

// NewHTTPScorer creates a rate-limited, retrying client for the model server
func NewHTTPScorer(cfg HTTPScorerConfig, logger *logrus.Logger) *HTTPScorer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = retryPolicy()
	retryClient.Logger = &retryLogger{entry: logger.WithField("component", "scorer")}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	base := strings.TrimRight(cfg.URL, "/")
	return &HTTPScorer{
		client:   retryClient,
		limiter:  rate.NewLimiter(limit, 1),
		endpoint: base + "/predict",
		health:   base + "/health",
		apiKey:   cfg.APIKey,
		version:  cfg.Version,
		logger:   logger,
	}
}

// PredictProba posts one batch of rows and returns the server's probabilities
func (s *HTTPScorer) PredictProba(ctx context.Context, features [][]float64) ([]float64, error) {
	start := time.Now()
	defer func() {
		ScorerLatency.WithLabelValues(KindHTTP).Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(predictRequest{Features: features})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		ScorerErrorsTotal.WithLabelValues(KindHTTP, "network").Inc()
		return nil, fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		ScorerErrorsTotal.WithLabelValues(KindHTTP, "http_error").Inc()
		return nil, fmt.Errorf("%w: status %d: %s", ErrScorerUnavailable, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		ScorerErrorsTotal.WithLabelValues(KindHTTP, "decode").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if err := validateProbabilities(out.Probabilities, len(features)); err != nil {
		ScorerErrorsTotal.WithLabelValues(KindHTTP, "invalid").Inc()
		return nil, err
	}

	if s.version == "" && out.ModelVersion != "" {
		s.logger.WithField("model_version", out.ModelVersion).Debug("Model server reported version")
	}

	ScorerPredictionsTotal.WithLabelValues(KindHTTP, "false").Add(float64(len(features)))
	return out.Probabilities, nil
}

// Version returns the configured model version
func (s *HTTPScorer) Version() string {
	return s.version
}

// HealthCheck checks the model server health endpoint
func (s *HTTPScorer) HealthCheck(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.health, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrScorerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrScorerUnavailable, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections
func (s *HTTPScorer) Close() error {
	s.client.HTTPClient.CloseIdleConnections()
	return nil
}

// retryPolicy retries network errors, rate limiting and transient server errors
func retryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}

// retryLogger adapts logrus to retryablehttp's leveled logger
type retryLogger struct {
	entry *logrus.Entry
}

func (l *retryLogger) fields(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Error(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Info(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Debug(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.fields(keysAndValues).Warn(msg)
}
