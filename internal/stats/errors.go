// Package stats provides the read-only statistics store the feature builder joins against.
package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrFileMissing indicates a statistics or model artifact is absent
	ErrFileMissing = errors.New("model file not found")

	// ErrUnsupportedFormat indicates an artifact extension the loader cannot read
	ErrUnsupportedFormat = errors.New("unsupported artifact format")

	// ErrInvalidTable indicates an artifact was readable but its contents are unusable
	ErrInvalidTable = errors.New("invalid statistics table")
)

// LoadError reports which artifact failed to load
type LoadError struct {
	Table Table
	Path  string
	Err   error
}

func (e *LoadError) Error() string {
	if errors.Is(e.Err, ErrFileMissing) {
		return fmt.Sprintf("%s: %s (%s)", ErrFileMissing.Error(), e.Table, e.Path)
	}
	return fmt.Sprintf("failed to load %s table from %s: %v", e.Table, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(table Table, path string, err error) *LoadError {
	return &LoadError{Table: table, Path: path, Err: err}
}
