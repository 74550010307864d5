// Package api exposes the prediction pipeline over HTTP and streams completed
// runs to websocket clients.
package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/horsemen/internal/health"
	"github.com/yourusername/horsemen/internal/metrics"
	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/stats"
	"github.com/yourusername/horsemen/internal/table"
)

// Predictor runs the pipeline against one model version directory
type Predictor interface {
	ExecuteFromDir(ctx context.Context, t *table.Table, modelDir string) (*models.PredictionRun, error)
}

// RunStore serves the most recent persisted run
type RunStore interface {
	LatestRun(ctx context.Context) (*models.PredictionRun, error)
}

// Config holds the HTTP server settings
type Config struct {
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	ModelRoot      string
	DefaultVersion string
	Layout         stats.Layout
	HeaderMode     table.HeaderMode
	ResultsPath    string
	MetricsPath    string
}

// Server is the prediction HTTP API
type Server struct {
	cfg       Config
	predictor Predictor
	runs      RunStore
	hub       *Hub
	health    *health.Server
	logger    *logrus.Logger
	server    *http.Server
}

// NewServer wires the API. runs may be nil, in which case results are read
// from cfg.ResultsPath.
func NewServer(cfg Config, predictor Predictor, runs RunStore, hub *Hub, healthSrv *health.Server, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.HeaderMode == "" {
		cfg.HeaderMode = table.HeaderAuto
	}
	if cfg.Layout == (stats.Layout{}) {
		cfg.Layout = stats.DefaultLayout()
	}
	return &Server{
		cfg:       cfg,
		predictor: predictor,
		runs:      runs,
		hub:       hub,
		health:    healthSrv,
		logger:    logger,
	}
}

// Handler returns the routed API
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/predict", s.handlePredict)
	mux.HandleFunc("GET /api/v1/results", s.handleResults)
	mux.HandleFunc("GET /api/v1/models", s.handleModels)
	if s.hub != nil {
		mux.HandleFunc("GET /ws", s.hub.ServeWS)
	}
	if s.health != nil {
		s.health.Register(mux)
	}
	if s.cfg.MetricsPath != "" {
		mux.Handle("GET "+s.cfg.MetricsPath, metrics.Handler())
	}
	return s.logRequests(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.health != nil {
		s.health.SetReady(true)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	if s.health != nil {
		s.health.SetReady(false)
	}
	if s.hub != nil {
		s.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets websocket upgrades pass through the logging middleware
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Debug("HTTP request")
	})
}
