package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTables() Tables {
	return Tables{
		Sire:          EntityTable{"ディープインパクト": 0.31, "キングカメハメハ": 0.27},
		BroodmareSire: EntityTable{"サンデーサイレンス": 0.29},
		Jockey:        EntityTable{"ルメール": 0.33},
		Trainer:       EntityTable{"矢作芳人": 0.24},
		Breeder:       EntityTable{"ノーザンファーム": 0.28},
		CoursePostScores: map[CoursePostKey]float64{
			{CourseID: "芝2000", Post: 1}: 0.30,
			{CourseID: "芝2000", Post: 2}: 0.10,
			{CourseID: "ダ1200", Post: 8}: 0.26,
		},
		CoursePostCounts: map[CoursePostKey]int{
			{CourseID: "芝2000", Post: 1}: 40,
			{CourseID: "芝2000", Post: 2}: 4,
			{CourseID: "芝1600", Post: 3}: 12,
			{CourseID: "ダ1200", Post: 8}: 5,
		},
	}
}

func TestStoreScore(t *testing.T) {
	store := NewStore("v1", testTables())

	tests := []struct {
		name      string
		table     Table
		key       string
		wantScore float64
		wantFound bool
	}{
		{"known sire", TableSire, "ディープインパクト", 0.31, true},
		{"unknown sire", TableSire, "Unknown Horse", DefaultScore, false},
		{"known broodmare sire", TableBroodmareSire, "サンデーサイレンス", 0.29, true},
		{"known jockey", TableJockey, "ルメール", 0.33, true},
		{"empty name", TableTrainer, "", DefaultScore, false},
		{"unknown table", Table("owner"), "ルメール", DefaultScore, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, found := store.Score(tt.table, tt.key)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestStoreCoursePostScore(t *testing.T) {
	store := NewStore("v1", testTables())

	tests := []struct {
		name      string
		course    string
		post      int
		wantScore float64
		wantFound bool
	}{
		{"enough observations", "芝2000", 1, 0.30, true},
		{"below minimum observations", "芝2000", 2, DefaultScore, false},
		{"exactly minimum observations", "ダ1200", 8, 0.26, true},
		{"counted but no score", "芝1600", 3, DefaultScore, false},
		{"unknown cell", "障3000", 1, DefaultScore, false},
		{"post zero", "芝2000", 0, DefaultScore, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, found := store.CoursePostScore(tt.course, tt.post)
			assert.InDelta(t, tt.wantScore, score, 1e-9)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestNewStoreCopiesTables(t *testing.T) {
	tables := testTables()
	store := NewStore("v1", tables)

	tables.Sire["ディープインパクト"] = 0.99
	tables.CoursePostCounts[CoursePostKey{CourseID: "芝2000", Post: 1}] = 0

	score, _ := store.Score(TableSire, "ディープインパクト")
	assert.InDelta(t, 0.31, score, 1e-9)

	count, ok := store.CoursePostCount("芝2000", 1)
	assert.True(t, ok)
	assert.Equal(t, 40, count)
}

func TestStoreSizes(t *testing.T) {
	store := NewStore("v1", testTables())
	sizes := store.Sizes()

	assert.Equal(t, 2, sizes[TableSire])
	assert.Equal(t, 1, sizes[TableBreeder])
	assert.Equal(t, 3, sizes[TableCoursePostStats])
	assert.Equal(t, 4, sizes[TableCoursePostCounts])
	assert.Equal(t, "v1", store.Version())
}
