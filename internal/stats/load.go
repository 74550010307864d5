package stats

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// EntityRow is one row of a name-keyed table in Parquet form.
type EntityRow struct {
	Key   string  `parquet:"key" json:"key"`
	Value float64 `parquet:"value" json:"value"`
}

// CoursePostRow is one row of a course/post table, in both JSON and Parquet form.
type CoursePostRow struct {
	CourseID string  `parquet:"course_id" json:"course_id"`
	Post     int32   `parquet:"post" json:"post"`
	Value    float64 `parquet:"value" json:"value"`
}

// Load reads every statistics table of the layout from dir. Loading is all or
// nothing: the first table that is missing or unreadable aborts with a *LoadError
// naming it. The model artifact is not read here.
func Load(dir string, layout Layout) (*Store, error) {
	var t Tables
	var err error

	entityTargets := []struct {
		table Table
		dst   *EntityTable
	}{
		{TableSire, &t.Sire},
		{TableBroodmareSire, &t.BroodmareSire},
		{TableJockey, &t.Jockey},
		{TableTrainer, &t.Trainer},
		{TableBreeder, &t.Breeder},
	}
	for _, target := range entityTargets {
		path := layout.Path(dir, target.table)
		if *target.dst, err = readEntityTable(path); err != nil {
			return nil, newLoadError(target.table, path, err)
		}
	}

	path := layout.Path(dir, TableCoursePostStats)
	scoreRows, err := readCoursePostTable(path)
	if err != nil {
		return nil, newLoadError(TableCoursePostStats, path, err)
	}
	t.CoursePostScores = make(map[CoursePostKey]float64, len(scoreRows))
	for _, r := range scoreRows {
		t.CoursePostScores[CoursePostKey{CourseID: r.CourseID, Post: int(r.Post)}] = r.Value
	}

	path = layout.Path(dir, TableCoursePostCounts)
	countRows, err := readCoursePostTable(path)
	if err != nil {
		return nil, newLoadError(TableCoursePostCounts, path, err)
	}
	t.CoursePostCounts = make(map[CoursePostKey]int, len(countRows))
	for _, r := range countRows {
		if r.Value < 0 {
			return nil, newLoadError(TableCoursePostCounts, path,
				fmt.Errorf("%w: negative count for %s/%d", ErrInvalidTable, r.CourseID, r.Post))
		}
		t.CoursePostCounts[CoursePostKey{CourseID: r.CourseID, Post: int(r.Post)}] = int(r.Value)
	}

	return NewStore(filepath.Base(dir), t), nil
}

func readEntityTable(path string) (EntityTable, error) {
	switch format(path) {
	case ".json":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		var table EntityTable
		if err := json.Unmarshal(data, &table); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
		}
		if table == nil {
			table = EntityTable{}
		}
		return table, nil
	case ".parquet":
		rows, err := readParquet[EntityRow](path)
		if err != nil {
			return nil, err
		}
		table := make(EntityTable, len(rows))
		for _, r := range rows {
			if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
				return nil, fmt.Errorf("%w: non-finite score for %q", ErrInvalidTable, r.Key)
			}
			table[r.Key] = r.Value
		}
		return table, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func readCoursePostTable(path string) ([]CoursePostRow, error) {
	var rows []CoursePostRow
	switch format(path) {
	case ".json":
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
		}
	case ".parquet":
		var err error
		if rows, err = readParquet[CoursePostRow](path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	for _, r := range rows {
		if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
			return nil, fmt.Errorf("%w: non-finite value for %s/%d", ErrInvalidTable, r.CourseID, r.Post)
		}
	}
	return rows, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileMissing
		}
		return nil, err
	}
	return data, nil
}

func readParquet[T any](path string) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileMissing
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
		}
		if n == 0 {
			break
		}
	}
	return rows[:read], nil
}

func format(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
