// Package report writes ranked prediction runs as console tables, CSV, JSON or
// Parquet, and reads persisted results back for the dashboard.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/horsemen/internal/config"
	"github.com/yourusername/horsemen/internal/models"
)

var (
	// ErrUnknownFormat indicates an output format the writer does not support
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrInvalidResults indicates a results file that cannot be read back
	ErrInvalidResults = errors.New("invalid results file")
)

// Columns is the header of every tabular output, in display order.
var Columns = []string{
	"venue",
	"race_number",
	"race_name",
	"rank",
	"mark",
	"post",
	"horse_number",
	"horse_name",
	"jockey",
	"ai_index",
	"post_mark",
	"sire",
}

// Options tunes human readable output
type Options struct {
	UseColors bool
}

// Write renders run to w in the given format. An empty format means console.
func Write(w io.Writer, run *models.PredictionRun, format string, opts Options) error {
	switch format {
	case config.OutputConsole, "":
		return writeConsole(w, run, opts)
	case config.OutputCSV:
		if err := writeCSV(w, run.Results); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case config.OutputJSON:
		if err := writeJSON(w, run); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case config.OutputParquet:
		if err := writeParquet(w, run.Results); err != nil {
			return fmt.Errorf("error writing parquet output: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

// WriteFile writes run to path, creating parent directories as needed.
func WriteFile(path string, run *models.PredictionRun, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, run, format, Options{}); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// FormatFromPath infers the output format from a file extension, defaulting to CSV.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return config.OutputJSON
	case ".parquet":
		return config.OutputParquet
	default:
		return config.OutputCSV
	}
}

// ReadFile loads results previously written by WriteFile.
func ReadFile(path string) ([]models.RankedResult, error) {
	switch FormatFromPath(path) {
	case config.OutputJSON:
		return readJSON(path)
	case config.OutputParquet:
		return readParquet(path)
	default:
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = file.Close() }()
		return ReadCSV(file)
	}
}

// FileSink persists every run it receives to a flat file, replacing the previous one.
type FileSink struct {
	path   string
	format string
	logger *logrus.Logger
	mu     sync.Mutex
}

// NewFileSink creates a sink writing to path. The file is always written in the
// format its extension names so ReadFile can load it back; a conflicting format
// is logged and ignored.
func NewFileSink(path, format string, logger *logrus.Logger) *FileSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	fileFormat := FormatFromPath(path)
	if format != "" && format != config.OutputConsole && format != fileFormat {
		logger.WithFields(logrus.Fields{
			"path":      path,
			"requested": format,
			"format":    fileFormat,
		}).Warn("Output format does not match file extension, using extension")
	}
	return &FileSink{path: path, format: fileFormat, logger: logger}
}

// Path returns the file the sink writes to
func (s *FileSink) Path() string {
	return s.path
}

// HandleRun writes the run's results
func (s *FileSink) HandleRun(ctx context.Context, run *models.PredictionRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := WriteFile(s.path, run, s.format); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"run_id": run.ID.String(),
		"path":   s.path,
		"format": s.format,
		"rows":   len(run.Results),
	}).Info("Results written")
	return nil
}

func formatIndex(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func row(r models.RankedResult) []string {
	return []string{
		r.Venue,
		r.RaceNumber,
		r.RaceName,
		strconv.Itoa(r.Rank),
		r.Mark,
		strconv.Itoa(r.Post),
		r.HorseNumber,
		r.HorseName,
		r.Jockey,
		formatIndex(r.AIIndex),
		string(r.PostMark),
		r.Sire,
	}
}
