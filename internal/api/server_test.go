package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/horsemen/internal/health"
	"github.com/yourusername/horsemen/internal/ml"
	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/report"
	"github.com/yourusername/horsemen/internal/service"
	"github.com/yourusername/horsemen/internal/stats"
	"github.com/yourusername/horsemen/internal/table"
)

type fakePredictor struct {
	mu    sync.Mutex
	dirs  []string
	rows  []int
	err   error
	sinks []service.RunSink
}

func (f *fakePredictor) ExecuteFromDir(ctx context.Context, t *table.Table, dir string) (*models.PredictionRun, error) {
	f.mu.Lock()
	f.dirs = append(f.dirs, dir)
	f.rows = append(f.rows, t.Len())
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	run := sampleRun(filepath.Base(dir))
	for _, sink := range f.sinks {
		_ = sink.HandleRun(ctx, run)
	}
	return run, nil
}

type fakeRunStore struct {
	run *models.PredictionRun
	err error
}

func (f fakeRunStore) LatestRun(ctx context.Context) (*models.PredictionRun, error) {
	return f.run, f.err
}

func sampleRun(version string) *models.PredictionRun {
	return &models.PredictionRun{
		ID:           uuid.New(),
		ModelVersion: version,
		Races:        2,
		Entries:      3,
		Results: []models.RankedResult{
			{Venue: "東京", RaceNumber: "11", Rank: 1, Mark: models.NotableMark, HorseNumber: "2", HorseName: "Entry B", AIIndex: 55, PostMark: models.PostFavorable},
			{Venue: "東京", RaceNumber: "11", Rank: 2, HorseNumber: "1", HorseName: "Entry A", AIIndex: 31.2, PostMark: models.PostStrongFavorable},
			{Venue: "中山", RaceNumber: "1", Rank: 1, HorseNumber: "5", HorseName: "Entry E", AIIndex: 12.3, PostMark: models.PostNeutral},
		},
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// modelRoot creates version directories holding every artifact name of the
// default layout
func modelRoot(t *testing.T, versions ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, v := range versions {
		dir := filepath.Join(root, v)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		for _, a := range stats.DefaultLayout().Artifacts() {
			require.NoError(t, os.WriteFile(filepath.Join(dir, a.File), []byte("{}"), 0o644))
		}
	}
	return root
}

func newTestServer(t *testing.T, cfg Config, predictor Predictor, runs RunStore) (*Server, *Hub) {
	t.Helper()
	hub := NewHub(quietLogger())
	t.Cleanup(hub.Close)
	healthSrv := health.NewServer(health.Config{ServiceName: "horsemen", Logger: quietLogger()})
	return NewServer(cfg, predictor, runs, hub, healthSrv, quietLogger()), hub
}

const inputCSV = "開催,Ｒ,馬番,馬名\n東京,11,1,Entry A\n東京,11,2,Entry B\n"

func TestPredictResolvesLatestVersion(t *testing.T) {
	root := modelRoot(t, "2023_v1", "2024_v1")
	predictor := &fakePredictor{}
	srv, _ := newTestServer(t, Config{ModelRoot: root}, predictor, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(inputCSV))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run models.PredictionRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, "2024_v1", run.ModelVersion)
	assert.Len(t, run.Results, 3)

	require.Len(t, predictor.dirs, 1)
	assert.Equal(t, filepath.Join(root, "2024_v1"), predictor.dirs[0])
	assert.Equal(t, 2, predictor.rows[0])
}

func TestPredictExplicitVersionAndHeaderMode(t *testing.T) {
	root := modelRoot(t, "2023_v1", "2024_v1")
	predictor := &fakePredictor{}
	srv, _ := newTestServer(t, Config{ModelRoot: root}, predictor, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict?model=2023_v1&header=false", strings.NewReader(inputCSV))
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, filepath.Join(root, "2023_v1"), predictor.dirs[0])
	assert.Equal(t, 3, predictor.rows[0], "header row kept as data")
}

func TestPredictMultipartUpload(t *testing.T) {
	root := modelRoot(t, "2024_v1")
	predictor := &fakePredictor{}
	srv, _ := newTestServer(t, Config{ModelRoot: root}, predictor, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "data.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(inputCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, predictor.rows[0])
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name       string
		root       []string
		url        string
		body       string
		maxUpload  int64
		err        error
		wantStatus int
	}{
		{"missing columns", []string{"v1"}, "/api/v1/predict", inputCSV, 0,
			fmt.Errorf("wrapped: %w", models.ErrMissingColumns), http.StatusBadRequest},
		{"empty body", []string{"v1"}, "/api/v1/predict", "", 0, nil, http.StatusBadRequest},
		{"no usable version", nil, "/api/v1/predict", inputCSV, 0, nil, http.StatusNotFound},
		{"path traversal", []string{"v1"}, "/api/v1/predict?model=../v1", inputCSV, 0, nil, http.StatusNotFound},
		{"missing artifact", []string{"v1"}, "/api/v1/predict", inputCSV, 0,
			&stats.LoadError{Table: stats.TableSire, Path: "sire_stats.json", Err: stats.ErrFileMissing}, http.StatusNotFound},
		{"scorer down", []string{"v1"}, "/api/v1/predict", inputCSV, 0,
			fmt.Errorf("failed to score race 東京 11R: %w", ml.ErrScorerUnavailable), http.StatusServiceUnavailable},
		{"upload too large", []string{"v1"}, "/api/v1/predict", inputCSV, 8, nil, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := modelRoot(t, tt.root...)
			srv, _ := newTestServer(t, Config{ModelRoot: root, MaxUploadBytes: tt.maxUpload}, &fakePredictor{err: tt.err}, nil)

			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.url, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestResultsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, report.WriteFile(path, sampleRun("2024_v1"), report.FormatFromPath(path)))

	srv, _ := newTestServer(t, Config{ResultsPath: path}, &fakePredictor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?venue=%E6%9D%B1%E4%BA%AC&race_number=11", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, r := range resp.Results {
		assert.Equal(t, "東京", r.Venue)
	}
}

func TestResultsMissingFile(t *testing.T) {
	srv, _ := newTestServer(t, Config{ResultsPath: filepath.Join(t.TempDir(), "data.csv")}, &fakePredictor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsFromRunStore(t *testing.T) {
	srv, _ := newTestServer(t, Config{}, &fakePredictor{}, fakeRunStore{run: sampleRun("2024_v1")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?race_number=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ResultsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024_v1", resp.ModelVersion)
	assert.Equal(t, 1, resp.Count)

	srv, _ = newTestServer(t, Config{}, &fakePredictor{}, fakeRunStore{err: models.ErrNotFound})
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestModels(t *testing.T) {
	root := modelRoot(t, "2024_v1")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "draft"), 0o755))
	srv, _ := newTestServer(t, Config{ModelRoot: root}, &fakePredictor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ModelsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Versions, 2)
	assert.Equal(t, "2024_v1", resp.Versions[0].Name)
	assert.True(t, resp.Versions[0].Complete)
	assert.Equal(t, "draft", resp.Versions[1].Name)
	assert.False(t, resp.Versions[1].Complete)
	assert.Contains(t, resp.Versions[1].Missing, string(stats.TableModel))
}

func TestModelsMissingRoot(t *testing.T) {
	srv, _ := newTestServer(t, Config{ModelRoot: filepath.Join(t.TempDir(), "nope")}, &fakePredictor{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/models", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetricsMounted(t *testing.T) {
	srv, _ := newTestServer(t, Config{MetricsPath: "/metrics"}, &fakePredictor{}, nil)
	handler := srv.Handler()

	for _, path := range []string{"/health", "/live", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWebsocketReceivesRuns(t *testing.T) {
	root := modelRoot(t, "2024_v1")
	predictor := &fakePredictor{}
	srv, hub := newTestServer(t, Config{ModelRoot: root}, predictor, nil)
	predictor.sinks = []service.RunSink{hub}

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(ts.URL+"/api/v1/predict", "text/csv", strings.NewReader(inputCSV))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event RunEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "run_completed", event.Type)
	assert.Equal(t, "2024_v1", event.ModelVersion)
	assert.Equal(t, 1, event.Notable)
	assert.Len(t, event.Results, 3)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(quietLogger())
	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrMissingColumns, http.StatusBadRequest},
		{table.ErrEmpty, http.StatusBadRequest},
		{models.ErrNotFound, http.StatusNotFound},
		{service.ErrNoUsableVersion, http.StatusNotFound},
		{ml.ErrConnectionFailed, http.StatusServiceUnavailable},
		{ml.ErrInvalidPrediction, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
