// Package features turns race entries into classifier inputs by joining them
// against the statistics store.
package features

import (
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/horsemen/internal/metrics"
	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/stats"
)

const (
	// DefaultAge is used when the age column is blank or not numeric.
	DefaultAge = 3.0

	// DefaultPost is used when the post column is blank or not numeric.
	DefaultPost = 0
)

// Course surface symbols
const (
	SurfaceTurf         = "芝"
	SurfaceDirt         = "ダ"
	SurfaceSteeplechase = "障"
)

// Builder computes feature vectors for one race at a time.
type Builder struct {
	store  *stats.Store
	logger *logrus.Logger
}

// NewBuilder creates a builder over an immutable store.
func NewBuilder(store *stats.Store, logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Builder{store: store, logger: logger}
}

// Build returns one vector per entry, in entry order. The course is taken from the
// first entry of the race. Build never fails: every miss resolves to a default.
func (b *Builder) Build(race []models.RaceEntry) []models.FeatureVector {
	if len(race) == 0 {
		return nil
	}

	courseID := CourseID(race[0].Surface, race[0].Distance)
	vectors := make([]models.FeatureVector, len(race))
	for i, entry := range race {
		vectors[i] = b.vector(courseID, entry)
	}
	return vectors
}

func (b *Builder) vector(courseID string, entry models.RaceEntry) models.FeatureVector {
	post := ParsePost(entry.PostNumber)

	v := models.FeatureVector{
		CoursePostScore:    b.coursePost(courseID, post, entry),
		SexCode:            SexCode(entry.Sex),
		Age:                ParseAge(entry.Age),
		PostNumber:         post,
		SireScore:          b.lookup(stats.TableSire, entry.Sire, entry),
		BroodmareSireScore: b.lookup(stats.TableBroodmareSire, entry.BroodmareSire, entry),
		JockeyScore:        b.lookup(stats.TableJockey, entry.Jockey, entry),
		TrainerScore:       b.lookup(stats.TableTrainer, entry.Trainer, entry),
		BreederScore:       b.lookup(stats.TableBreeder, entry.Breeder, entry),
	}
	v.PedigreeCombined = v.SireScore * v.BroodmareSireScore
	v.TeamCombined = v.JockeyScore * v.TrainerScore * v.BreederScore
	return v
}

func (b *Builder) lookup(table stats.Table, name string, entry models.RaceEntry) float64 {
	score, found := b.store.Score(table, name)
	if !found {
		metrics.RecordLookupDefault(string(table))
		b.logger.WithFields(logrus.Fields{
			"table":        table,
			"name":         name,
			"horse_number": entry.HorseNumber,
		}).Debug("Statistics lookup miss, using default score")
	}
	return score
}

func (b *Builder) coursePost(courseID string, post int, entry models.RaceEntry) float64 {
	score, found := b.store.CoursePostScore(courseID, post)
	if !found {
		metrics.RecordLookupDefault(string(stats.TableCoursePostStats))
		b.logger.WithFields(logrus.Fields{
			"course_id":    courseID,
			"post":         post,
			"horse_number": entry.HorseNumber,
		}).Debug("Course/post cell below minimum observations, using default score")
	}
	return score
}

// CourseID combines a surface symbol with the distance text, e.g. "芝2000".
// Surfaces that are neither turf nor dirt map to steeplechase.
func CourseID(surface, distance string) string {
	return surfaceSymbol(surface) + strings.TrimSpace(distance)
}

func surfaceSymbol(surface string) string {
	lower := strings.ToLower(surface)
	switch {
	case strings.Contains(surface, SurfaceTurf), strings.Contains(lower, "turf"):
		return SurfaceTurf
	case strings.Contains(surface, SurfaceDirt), strings.Contains(lower, "dirt"):
		return SurfaceDirt
	default:
		return SurfaceSteeplechase
	}
}

// SexCode encodes sex as 0 for male, 1 for female and 2 for gelding. Anything
// else is treated as male.
func SexCode(sex string) int {
	switch strings.ToLower(strings.TrimSpace(sex)) {
	case "牝", "female", "f":
		return 1
	case "セ", "gelding", "g":
		return 2
	default:
		return 0
	}
}

// ParseAge parses the age column, falling back to DefaultAge.
func ParseAge(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultAge
	}
	return v
}

// ParsePost parses the post column, truncating fractional values.
func ParsePost(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultPost
	}
	return int(v)
}

// Matrix lays vectors out as classifier rows. Non-finite values are zeroed.
func Matrix(vectors []models.FeatureVector) [][]float64 {
	rows := make([][]float64, len(vectors))
	for i, v := range vectors {
		values := v.Values()
		row := make([]float64, len(values))
		for j, x := range values {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				x = 0
			}
			row[j] = x
		}
		rows[i] = row
	}
	return rows
}
