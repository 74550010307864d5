package report

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/horsemen/internal/config"
	"github.com/yourusername/horsemen/internal/models"
)

func sampleRun() *models.PredictionRun {
	return &models.PredictionRun{
		ID:           uuid.New(),
		ModelVersion: "2024_v1",
		Races:        2,
		Entries:      3,
		Skipped:      1,
		StartedAt:    time.Date(2024, 5, 26, 9, 0, 0, 0, time.UTC),
		Duration:     120 * time.Millisecond,
		Results: []models.RankedResult{
			{Venue: "東京", RaceNumber: "11", RaceName: "日本ダービー", Rank: 1, Mark: models.NotableMark, Post: 1,
				HorseNumber: "2", HorseName: "Entry B", Jockey: "Top Jockey", AIIndex: 55, PostMark: models.PostFavorable, Sire: "Strong Sire"},
			{Venue: "東京", RaceNumber: "11", RaceName: "日本ダービー", Rank: 2, Post: 3,
				HorseNumber: "1", HorseName: "Entry A", Jockey: "Other, Jockey", AIIndex: 31.2, PostMark: models.PostStrongFavorable, Sire: "Unknown"},
			{Venue: "東京", RaceNumber: "12", Rank: 1, Post: 8,
				HorseNumber: "5", HorseName: "Entry E", AIIndex: 12.3, PostMark: models.PostUnfavorable},
		},
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	run := sampleRun()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, run, config.OutputCSV, Options{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Contains(t, lines[1], "55.0")
	assert.Contains(t, lines[2], `"Other, Jockey"`)

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, run.Results, got)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"missing column", "venue,race_number,rank\n東京,11,1\n"},
		{"bad rank", "venue,race_number,rank,ai_index\n東京,11,first,10.0\n"},
		{"bad index", "venue,race_number,rank,ai_index\n東京,11,1,high\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrInvalidResults)
		})
	}
}

func TestReadCSVToleratesExtraColumnsAndBOM(t *testing.T) {
	input := "\ufeffextra,venue,race_number,rank,ai_index\nx,中山,1,1,42.5\n"

	got, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "中山", got[0].Venue)
	assert.Equal(t, 42.5, got[0].AIIndex)
	assert.Empty(t, got[0].HorseName)
}

func TestWriteJSON(t *testing.T) {
	run := sampleRun()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, run, config.OutputJSON, Options{}))

	var decoded models.PredictionRun
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, run.ID, decoded.ID)
	assert.Equal(t, run.Results, decoded.Results)
}

func TestWriteConsole(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRun(), config.OutputConsole, Options{}))

	out := buf.String()
	assert.Contains(t, out, "東京 11R 日本ダービー")
	assert.Contains(t, out, "東京 12R")
	assert.Contains(t, out, "Entry B")
	assert.Contains(t, out, "55.0")
	assert.Contains(t, out, models.NotableMark)
	assert.Contains(t, out, "Ranked 3 entries in 2 races (1 notable, 1 rows skipped) with model 2024_v1")
	assert.Less(t, strings.Index(out, "11R"), strings.Index(out, "12R"))
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, sampleRun(), "xml", Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, config.OutputJSON, FormatFromPath("out/results.JSON"))
	assert.Equal(t, config.OutputParquet, FormatFromPath("results.parquet"))
	assert.Equal(t, config.OutputCSV, FormatFromPath("data.csv"))
	assert.Equal(t, config.OutputCSV, FormatFromPath("results"))
}

func TestWriteFileAndReadBack(t *testing.T) {
	run := sampleRun()

	for _, name := range []string{"results.csv", "results.json", "results.parquet"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, WriteFile(path, run, FormatFromPath(path)))

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, run.Results, got)
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "data.csv"))
	assert.Error(t, err)
}

func TestFileSink(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	path := filepath.Join(t.TempDir(), "data.csv")
	sink := NewFileSink(path, config.OutputConsole, log)
	assert.Equal(t, path, sink.Path())

	run := sampleRun()
	require.NoError(t, sink.HandleRun(context.Background(), run))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, len(run.Results))
}

func TestFileSinkFollowsExtension(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	tests := []struct {
		name   string
		file   string
		format string
	}{
		{"json into csv file", "data.csv", config.OutputJSON},
		{"parquet into csv file", "data.csv", config.OutputParquet},
		{"csv into json file", "data.json", config.OutputCSV},
		{"csv into parquet file", "data.parquet", config.OutputCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			sink := NewFileSink(path, tt.format, log)

			run := sampleRun()
			require.NoError(t, sink.HandleRun(context.Background(), run))

			got, err := ReadFile(path)
			require.NoError(t, err)
			require.Len(t, got, len(run.Results))
			assert.Equal(t, run.Results[0].HorseName, got[0].HorseName)
			assert.Equal(t, run.Results[0].AIIndex, got[0].AIIndex)
		})
	}
}
