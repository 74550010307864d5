// Package ranking orders scored entries within a race and annotates them.
package ranking

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/horsemen/internal/models"
)

// NotableThreshold is the AI index at or above which an entry is marked notable.
// It is compared against the unrounded index.
const NotableThreshold = 50.0

// Post mark thresholds on the course/post score
const (
	StrongFavorableAbove = 0.25
	FavorableAbove       = 0.22
	UnfavorableBelow     = 0.15
)

// PostMarkFor classifies a course/post score
func PostMarkFor(score float64) models.PostMark {
	switch {
	case score > StrongFavorableAbove:
		return models.PostStrongFavorable
	case score > FavorableAbove:
		return models.PostFavorable
	case score < UnfavorableBelow:
		return models.PostUnfavorable
	default:
		return models.PostNeutral
	}
}

// RoundIndex rounds an AI index to one decimal place, halves away from zero.
// The shortest decimal form of the float is rounded, so 12.25 gives 12.3 where
// round-half-to-even on the binary value would give 12.2.
func RoundIndex(index float64) float64 {
	v, _ := decimal.NewFromFloat(index).Round(1).Float64()
	return v
}

type scored struct {
	entry  models.RaceEntry
	vector models.FeatureVector
	index  float64
}

// Rank orders one race by descending AI index (probability × 100) and assigns
// ranks 1..N. Equal indices keep their input order. entries, vectors and probs
// must be the same length and aligned.
func Rank(key models.RaceKey, raceName string, entries []models.RaceEntry, vectors []models.FeatureVector, probs []float64) []models.RankedResult {
	rows := make([]scored, len(entries))
	for i := range entries {
		rows[i] = scored{entry: entries[i], vector: vectors[i], index: probs[i] * 100}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].index > rows[j].index
	})

	results := make([]models.RankedResult, len(rows))
	for i, r := range rows {
		mark := ""
		if r.index >= NotableThreshold {
			mark = models.NotableMark
		}
		results[i] = models.RankedResult{
			Venue:       key.Venue,
			RaceNumber:  key.RaceNumber,
			RaceName:    raceName,
			Rank:        i + 1,
			Mark:        mark,
			Post:        r.vector.PostNumber,
			HorseNumber: r.entry.HorseNumber,
			HorseName:   r.entry.HorseName,
			Jockey:      r.entry.Jockey,
			AIIndex:     RoundIndex(r.index),
			PostMark:    PostMarkFor(r.vector.CoursePostScore),
			Sire:        r.entry.Sire,
		}
	}
	return results
}
