package stats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeVersionDir writes a complete JSON artifact set for the given tables.
func writeVersionDir(t *testing.T, dir string, tables Tables) {
	t.Helper()
	layout := DefaultLayout()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, layout.Model), []byte(`{"version":"test"}`), 0o644))

	require.NoError(t, WriteEntityTable(layout.Path(dir, TableSire), tables.Sire))
	require.NoError(t, WriteEntityTable(layout.Path(dir, TableBroodmareSire), tables.BroodmareSire))
	require.NoError(t, WriteEntityTable(layout.Path(dir, TableJockey), tables.Jockey))
	require.NoError(t, WriteEntityTable(layout.Path(dir, TableTrainer), tables.Trainer))
	require.NoError(t, WriteEntityTable(layout.Path(dir, TableBreeder), tables.Breeder))

	var scores, counts []CoursePostRow
	for k, v := range tables.CoursePostScores {
		scores = append(scores, CoursePostRow{CourseID: k.CourseID, Post: int32(k.Post), Value: v})
	}
	for k, v := range tables.CoursePostCounts {
		counts = append(counts, CoursePostRow{CourseID: k.CourseID, Post: int32(k.Post), Value: float64(v)})
	}
	require.NoError(t, WriteCoursePostTable(layout.Path(dir, TableCoursePostStats), scores))
	require.NoError(t, WriteCoursePostTable(layout.Path(dir, TableCoursePostCounts), counts))
}

func TestLoadJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2024_v1")
	writeVersionDir(t, dir, testTables())

	store, err := Load(dir, DefaultLayout())
	require.NoError(t, err)

	assert.Equal(t, "2024_v1", store.Version())

	score, found := store.Score(TableSire, "ディープインパクト")
	assert.True(t, found)
	assert.InDelta(t, 0.31, score, 1e-9)

	score, found = store.CoursePostScore("芝2000", 1)
	assert.True(t, found)
	assert.InDelta(t, 0.30, score, 1e-9)

	score, found = store.CoursePostScore("芝2000", 2)
	assert.False(t, found)
	assert.InDelta(t, DefaultScore, score, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeVersionDir(t, dir, testTables())
	layout := DefaultLayout()
	require.NoError(t, os.Remove(layout.Path(dir, TableJockey)))

	store, err := Load(dir, layout)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.True(t, errors.Is(err, ErrFileMissing))

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, TableJockey, loadErr.Table)
	assert.Contains(t, err.Error(), "model file not found")
	assert.Contains(t, err.Error(), "jockey_stats.json")
}

func TestLoadInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeVersionDir(t, dir, testTables())
	layout := DefaultLayout()
	require.NoError(t, os.WriteFile(layout.Path(dir, TableBreeder), []byte("{not json"), 0o644))

	_, err := Load(dir, layout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTable))
	assert.False(t, errors.Is(err, ErrFileMissing))
}

func TestLoadNegativeCount(t *testing.T) {
	dir := t.TempDir()
	tables := testTables()
	tables.CoursePostCounts[CoursePostKey{CourseID: "芝2000", Post: 5}] = -1
	writeVersionDir(t, dir, tables)

	_, err := Load(dir, DefaultLayout())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTable))
}

func TestLoadUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	writeVersionDir(t, dir, testTables())
	layout := DefaultLayout()
	layout.Sire = "sire_stats.pkl"
	require.NoError(t, os.WriteFile(filepath.Join(dir, layout.Sire), []byte{0x80}, 0o644))

	_, err := Load(dir, layout)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestConvertToParquet(t *testing.T) {
	src := filepath.Join(t.TempDir(), "v1")
	dst := filepath.Join(t.TempDir(), "v1_parquet")
	writeVersionDir(t, src, testTables())

	layout, err := Convert(src, dst, DefaultLayout())
	require.NoError(t, err)
	assert.Equal(t, "sire_stats.parquet", layout.Sire)
	assert.Equal(t, "course_post_counts.parquet", layout.CoursePostCounts)
	assert.Equal(t, "model.json", layout.Model)
	assert.Empty(t, layout.Missing(dst))

	store, err := Load(dst, layout)
	require.NoError(t, err)

	score, found := store.Score(TableBroodmareSire, "サンデーサイレンス")
	assert.True(t, found)
	assert.InDelta(t, 0.29, score, 1e-9)

	count, ok := store.CoursePostCount("芝1600", 3)
	assert.True(t, ok)
	assert.Equal(t, 12, count)

	score, found = store.CoursePostScore("ダ1200", 8)
	assert.True(t, found)
	assert.InDelta(t, 0.26, score, 1e-9)
}

func TestListVersions(t *testing.T) {
	root := t.TempDir()
	writeVersionDir(t, filepath.Join(root, "2024_v2"), testTables())
	writeVersionDir(t, filepath.Join(root, "2023_v1"), testTables())
	require.NoError(t, os.MkdirAll(filepath.Join(root, "draft"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.txt"), []byte("notes"), 0o644))

	versions, err := ListVersions(root, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, versions, 3)

	assert.Equal(t, "2023_v1", versions[0].Name)
	assert.True(t, versions[0].IsUsable())
	assert.Equal(t, "2024_v2", versions[1].Name)
	assert.Equal(t, "draft", versions[2].Name)
	assert.False(t, versions[2].IsUsable())
	assert.Contains(t, versions[2].Missing, string(TableModel))
	assert.Len(t, versions[2].Missing, 8)
}

func TestListVersionsMissingRoot(t *testing.T) {
	_, err := ListVersions(filepath.Join(t.TempDir(), "nope"), DefaultLayout())
	assert.Error(t, err)
}
