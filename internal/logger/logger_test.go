package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerFor(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		environment string
		wantLevel   logrus.Level
		wantJSON    bool
	}{
		{"production debug", "debug", "production", logrus.DebugLevel, true},
		{"development warn", "warn", "development", logrus.WarnLevel, false},
		{"invalid level", "chatty", "development", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log := NewLoggerFor(tt.level, tt.environment, buf)

			assert.Equal(t, tt.wantLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}

func TestPipelineLoggerRunCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogRunCompleted("run-1", 3, 36, 2, 150*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "pipeline", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, float64(36), logEntry["entries"])
	assert.Equal(t, float64(150), logEntry["duration_ms"])
}

func TestPipelineLoggerRunFailed(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogRunFailed("run-2", errors.New("scorer unavailable"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "scorer unavailable", logEntry["error"])
}

func TestPipelineLoggerSkippedRowsEmpty(t *testing.T) {
	log, buf := setupTestLogger()
	pipelineLogger := NewPipelineLogger(log)

	pipelineLogger.LogSkippedRows("run-3", nil)

	assert.Zero(t, buf.Len())
}

func TestScorerLoggerPrediction(t *testing.T) {
	log, buf := setupTestLogger()
	scorerLogger := NewScorerLogger(log)

	scorerLogger.LogPrediction("http", 12, true, 3.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scorer", logEntry["component"])
	assert.Equal(t, "http", logEntry["scorer_kind"])
	assert.Equal(t, true, logEntry["cache_hit"])
}
