package models

import (
	"time"

	"github.com/google/uuid"
)

// NotableMark flags entries whose AI index clears the notable threshold.
const NotableMark = "⭐"

// PostMark grades how favourable the post position has historically been on a course.
type PostMark string

// Post position grades
const (
	PostStrongFavorable PostMark = "◎"
	PostFavorable       PostMark = "○"
	PostNeutral         PostMark = "-"
	PostUnfavorable     PostMark = "▼"
)

// RankedResult represents one ranked, annotated entry within a race
type RankedResult struct {
	Venue       string   `json:"venue" parquet:"venue"`
	RaceNumber  string   `json:"race_number" parquet:"race_number"`
	RaceName    string   `json:"race_name" parquet:"race_name"`
	Rank        int      `json:"rank" parquet:"rank"`
	Mark        string   `json:"mark" parquet:"mark"`
	Post        int      `json:"post" parquet:"post"`
	HorseNumber string   `json:"horse_number" parquet:"horse_number"`
	HorseName   string   `json:"horse_name" parquet:"horse_name"`
	Jockey      string   `json:"jockey" parquet:"jockey"`
	AIIndex     float64  `json:"ai_index" parquet:"ai_index"`
	PostMark    PostMark `json:"post_mark" parquet:"post_mark"`
	Sire        string   `json:"sire" parquet:"sire"`
}

// IsNotable reports whether the entry carries the notable mark
func (r *RankedResult) IsNotable() bool {
	return r.Mark == NotableMark
}

// PredictionRun represents one invocation of the prediction pipeline
type PredictionRun struct {
	ID           uuid.UUID      `json:"id"`
	ModelVersion string         `json:"model_version"`
	Races        int            `json:"races"`
	Entries      int            `json:"entries"`
	Skipped      int            `json:"skipped"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
	Results      []RankedResult `json:"results"`
}

// RaceResults returns the ranked rows of one race in rank order.
func (p *PredictionRun) RaceResults(key RaceKey) []RankedResult {
	var out []RankedResult
	for _, r := range p.Results {
		if r.Venue == key.Venue && r.RaceNumber == key.RaceNumber {
			out = append(out, r)
		}
	}
	return out
}

// NotableCount returns the number of entries carrying the notable mark.
func (p *PredictionRun) NotableCount() int {
	n := 0
	for i := range p.Results {
		if p.Results[i].IsNotable() {
			n++
		}
	}
	return n
}
