package features

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/stats"
)

func testStore() *stats.Store {
	return stats.NewStore("test", stats.Tables{
		Sire:          stats.EntityTable{"ディープインパクト": 0.3},
		BroodmareSire: stats.EntityTable{"サンデーサイレンス": 0.5},
		Jockey:        stats.EntityTable{"ルメール": 0.4},
		Trainer:       stats.EntityTable{"矢作芳人": 0.5},
		Breeder:       stats.EntityTable{"ノーザンファーム": 0.5},
		CoursePostScores: map[stats.CoursePostKey]float64{
			{CourseID: "芝2000", Post: 1}: 0.28,
			{CourseID: "芝2000", Post: 2}: 0.27,
		},
		CoursePostCounts: map[stats.CoursePostKey]int{
			{CourseID: "芝2000", Post: 1}: 30,
			{CourseID: "芝2000", Post: 2}: 3,
		},
	})
}

func testBuilder() *Builder {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewBuilder(testStore(), log)
}

func TestCourseID(t *testing.T) {
	tests := []struct {
		surface  string
		distance string
		want     string
	}{
		{"芝", "2000", "芝2000"},
		{"芝・外", "1600", "芝1600"},
		{"ダート", "1200", "ダ1200"},
		{"障害", "3000", "障3000"},
		{"Turf", "2400", "芝2400"},
		{"dirt", " 1800 ", "ダ1800"},
		{"", "", "障"},
	}

	for _, tt := range tests {
		t.Run(tt.surface+tt.distance, func(t *testing.T) {
			assert.Equal(t, tt.want, CourseID(tt.surface, tt.distance))
		})
	}
}

func TestSexCode(t *testing.T) {
	tests := map[string]int{
		"牡":       0,
		"牝":       1,
		"セ":       2,
		"female":  1,
		"Gelding": 2,
		"":        0,
		"unknown": 0,
	}

	for in, want := range tests {
		assert.Equal(t, want, SexCode(in), "sex %q", in)
	}
}

func TestParseAge(t *testing.T) {
	assert.Equal(t, 4.0, ParseAge("4"))
	assert.Equal(t, 5.0, ParseAge(" 5 "))
	assert.Equal(t, DefaultAge, ParseAge(""))
	assert.Equal(t, DefaultAge, ParseAge("four"))
	assert.Equal(t, DefaultAge, ParseAge("NaN"))
	assert.Equal(t, DefaultAge, ParseAge("Inf"))
}

func TestParsePost(t *testing.T) {
	assert.Equal(t, 3, ParsePost("3"))
	assert.Equal(t, 7, ParsePost("7.0"))
	assert.Equal(t, 2, ParsePost("2.9"))
	assert.Equal(t, DefaultPost, ParsePost(""))
	assert.Equal(t, DefaultPost, ParsePost("外"))
}

func TestBuildKnownEntities(t *testing.T) {
	race := []models.RaceEntry{{
		Surface:       "芝",
		Distance:      "2000",
		HorseNumber:   "1",
		Sex:           "牝",
		Age:           "4",
		Jockey:        "ルメール",
		Trainer:       "矢作芳人",
		Breeder:       "ノーザンファーム",
		Sire:          "ディープインパクト",
		BroodmareSire: "サンデーサイレンス",
		PostNumber:    "1",
	}}

	vectors := testBuilder().Build(race)
	require.Len(t, vectors, 1)
	v := vectors[0]

	assert.InDelta(t, 0.28, v.CoursePostScore, 1e-9)
	assert.Equal(t, 1, v.SexCode)
	assert.Equal(t, 4.0, v.Age)
	assert.Equal(t, 1, v.PostNumber)
	assert.InDelta(t, 0.3, v.SireScore, 1e-9)
	assert.InDelta(t, 0.5, v.BroodmareSireScore, 1e-9)
	assert.InDelta(t, 0.15, v.PedigreeCombined, 1e-9)
	assert.InDelta(t, 0.1, v.TeamCombined, 1e-9)
}

func TestBuildUnknownSireUsesDefault(t *testing.T) {
	race := []models.RaceEntry{{
		Surface:       "芝",
		Distance:      "2000",
		Sire:          "Unknown Horse",
		BroodmareSire: "サンデーサイレンス",
		PostNumber:    "1",
	}}

	v := testBuilder().Build(race)[0]

	assert.InDelta(t, 0.2, v.SireScore, 1e-9)
	assert.InDelta(t, 0.2*0.5, v.PedigreeCombined, 1e-9)
}

func TestBuildSparseCoursePostUsesDefault(t *testing.T) {
	race := []models.RaceEntry{
		{Surface: "芝", Distance: "2000", PostNumber: "2"},
		{Surface: "芝", Distance: "2000", PostNumber: "9"},
	}

	vectors := testBuilder().Build(race)

	assert.InDelta(t, stats.DefaultScore, vectors[0].CoursePostScore, 1e-9)
	assert.InDelta(t, stats.DefaultScore, vectors[1].CoursePostScore, 1e-9)
}

func TestBuildUsesFirstEntryCourse(t *testing.T) {
	race := []models.RaceEntry{
		{Surface: "芝", Distance: "2000", PostNumber: "2"},
		{Surface: "ダ", Distance: "1200", PostNumber: "1"},
	}

	vectors := testBuilder().Build(race)

	assert.InDelta(t, 0.28, vectors[1].CoursePostScore, 1e-9)
}

func TestBuildEmptyRace(t *testing.T) {
	assert.Nil(t, testBuilder().Build(nil))
}

func TestBuildBlankEntryIsFinite(t *testing.T) {
	vectors := testBuilder().Build([]models.RaceEntry{{}})
	require.Len(t, vectors, 1)

	for i, x := range vectors[0].Values() {
		assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "feature %s", models.FeatureNames[i])
	}
	assert.Equal(t, DefaultAge, vectors[0].Age)
	assert.Equal(t, 0, vectors[0].SexCode)
}

func TestMatrix(t *testing.T) {
	vectors := []models.FeatureVector{
		{CoursePostScore: 0.25, SexCode: 2, Age: 5, SireScore: math.NaN(), TeamCombined: math.Inf(1)},
	}

	rows := Matrix(vectors)
	require.Len(t, rows, 1)
	require.Len(t, rows[0], models.FeatureCount)

	assert.Equal(t, 0.25, rows[0][0])
	assert.Equal(t, 2.0, rows[0][1])
	assert.Equal(t, 5.0, rows[0][2])
	assert.Equal(t, 0.0, rows[0][3])
	assert.Equal(t, 0.0, rows[0][9])
}
