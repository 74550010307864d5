package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"

	"github.com/yourusername/horsemen/internal/ml"
	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/report"
	"github.com/yourusername/horsemen/internal/service"
	"github.com/yourusername/horsemen/internal/stats"
	"github.com/yourusername/horsemen/internal/table"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// ResultsResponse is the body of GET /api/v1/results
type ResultsResponse struct {
	ModelVersion string                `json:"model_version,omitempty"`
	Count        int                   `json:"count"`
	Results      []models.RankedResult `json:"results"`
}

// ModelsResponse is the body of GET /api/v1/models
type ModelsResponse struct {
	Versions []models.ModelVersion `json:"versions"`
}

// handlePredict scores an uploaded CSV. The table is either the raw request
// body or the "file" field of a multipart form.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	version := query.Get("model")
	if version == "" {
		version = s.cfg.DefaultVersion
	}
	dir, err := service.ResolveVersionDir(s.cfg.ModelRoot, version, s.cfg.Layout)
	if err != nil {
		s.writeError(w, err)
		return
	}

	mode := s.cfg.HeaderMode
	if h := query.Get("header"); h != "" {
		mode = table.HeaderMode(h)
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	input, closeInput, err := uploadReader(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer closeInput()

	t, err := service.ReadTable(input, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	run, err := s.predictor.ExecuteFromDir(r.Context(), t, dir)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

func uploadReader(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

// handleResults serves the latest run, optionally narrowed to one race
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	var resp ResultsResponse
	if s.runs != nil {
		run, err := s.runs.LatestRun(r.Context())
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.ModelVersion = run.ModelVersion
		resp.Results = run.Results
	} else {
		results, err := report.ReadFile(s.cfg.ResultsPath)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Results = results
	}

	venue := r.URL.Query().Get("venue")
	race := r.URL.Query().Get("race_number")
	if venue != "" || race != "" {
		filtered := make([]models.RankedResult, 0, len(resp.Results))
		for _, res := range resp.Results {
			if (venue == "" || res.Venue == venue) && (race == "" || res.RaceNumber == race) {
				filtered = append(filtered, res)
			}
		}
		resp.Results = filtered
	}
	if resp.Results == nil {
		resp.Results = []models.RankedResult{}
	}
	resp.Count = len(resp.Results)

	s.writeJSON(w, http.StatusOK, resp)
}

// handleModels lists model version directories with their missing artifacts
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	versions, err := stats.ListVersions(s.cfg.ModelRoot, s.cfg.Layout)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if versions == nil {
		versions = []models.ModelVersion{}
	}
	s.writeJSON(w, http.StatusOK, ModelsResponse{Versions: versions})
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var parseErr *csv.ParseError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, models.ErrMissingColumns),
		errors.Is(err, table.ErrEmpty),
		errors.Is(err, http.ErrMissingFile),
		errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, service.ErrNoUsableVersion),
		errors.Is(err, stats.ErrFileMissing),
		errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, ml.ErrScorerUnavailable),
		errors.Is(err, ml.ErrConnectionFailed):
		return http.StatusServiceUnavailable
	case errors.Is(err, ml.ErrInvalidPrediction),
		errors.Is(err, ml.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).Error("Request failed")
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Warn("Failed to encode response")
	}
}
