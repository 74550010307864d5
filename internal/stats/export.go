package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// WriteEntityTable writes a name-keyed table in the format implied by the path extension.
func WriteEntityTable(path string, table EntityTable) error {
	switch format(path) {
	case ".json":
		return writeJSON(path, table)
	case ".parquet":
		keys := make([]string, 0, len(table))
		for k := range table {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([]EntityRow, len(keys))
		for i, k := range keys {
			rows[i] = EntityRow{Key: k, Value: table[k]}
		}
		return writeParquet(path, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// WriteCoursePostTable writes a course/post table in the format implied by the path extension.
func WriteCoursePostTable(path string, rows []CoursePostRow) error {
	switch format(path) {
	case ".json":
		return writeJSON(path, rows)
	case ".parquet":
		return writeParquet(path, rows)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Convert rewrites the statistics tables of src into dst using the Parquet format and
// returns the layout describing dst. The model artifact is copied unchanged.
func Convert(src, dst string, layout Layout) (Layout, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return Layout{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	out := Layout{
		Model:            layout.Model,
		Sire:             parquetName(layout.Sire),
		BroodmareSire:    parquetName(layout.BroodmareSire),
		Jockey:           parquetName(layout.Jockey),
		Trainer:          parquetName(layout.Trainer),
		Breeder:          parquetName(layout.Breeder),
		CoursePostStats:  parquetName(layout.CoursePostStats),
		CoursePostCounts: parquetName(layout.CoursePostCounts),
	}

	for _, table := range EntityTables {
		in := layout.Path(src, table)
		entities, err := readEntityTable(in)
		if err != nil {
			return Layout{}, newLoadError(table, in, err)
		}
		if err := WriteEntityTable(out.Path(dst, table), entities); err != nil {
			return Layout{}, fmt.Errorf("failed to write %s table: %w", table, err)
		}
	}

	for _, table := range []Table{TableCoursePostStats, TableCoursePostCounts} {
		in := layout.Path(src, table)
		rows, err := readCoursePostTable(in)
		if err != nil {
			return Layout{}, newLoadError(table, in, err)
		}
		if err := WriteCoursePostTable(out.Path(dst, table), rows); err != nil {
			return Layout{}, fmt.Errorf("failed to write %s table: %w", table, err)
		}
	}

	modelIn := layout.Path(src, TableModel)
	data, err := readFile(modelIn)
	if err != nil {
		return Layout{}, newLoadError(TableModel, modelIn, err)
	}
	if err := os.WriteFile(out.Path(dst, TableModel), data, 0o644); err != nil {
		return Layout{}, fmt.Errorf("failed to copy model artifact: %w", err)
	}

	return out, nil
}

func parquetName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".parquet"
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func writeParquet[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}
