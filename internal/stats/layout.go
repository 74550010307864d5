package stats

import (
	"os"
	"path/filepath"
)

// Layout names the artifact files inside one model version directory.
type Layout struct {
	Model            string `mapstructure:"model" validate:"required"`
	Sire             string `mapstructure:"sire" validate:"required"`
	BroodmareSire    string `mapstructure:"broodmare_sire" validate:"required"`
	Jockey           string `mapstructure:"jockey" validate:"required"`
	Trainer          string `mapstructure:"trainer" validate:"required"`
	Breeder          string `mapstructure:"breeder" validate:"required"`
	CoursePostStats  string `mapstructure:"course_post_stats" validate:"required"`
	CoursePostCounts string `mapstructure:"course_post_counts" validate:"required"`
}

// DefaultLayout returns the file names written by the statistics job.
func DefaultLayout() Layout {
	return Layout{
		Model:            "model.json",
		Sire:             "sire_stats.json",
		BroodmareSire:    "bms_stats.json",
		Jockey:           "jockey_stats.json",
		Trainer:          "trainer_stats.json",
		Breeder:          "breeder_stats.json",
		CoursePostStats:  "course_post_stats.json",
		CoursePostCounts: "course_post_counts.json",
	}
}

// Artifact pairs a table with its file name.
type Artifact struct {
	Table Table
	File  string
}

// Artifacts returns every file of the layout in load order, model first.
func (l Layout) Artifacts() []Artifact {
	return []Artifact{
		{TableModel, l.Model},
		{TableSire, l.Sire},
		{TableBroodmareSire, l.BroodmareSire},
		{TableJockey, l.Jockey},
		{TableTrainer, l.Trainer},
		{TableBreeder, l.Breeder},
		{TableCoursePostStats, l.CoursePostStats},
		{TableCoursePostCounts, l.CoursePostCounts},
	}
}

// Path returns the absolute location of a table's file under dir.
func (l Layout) Path(dir string, table Table) string {
	for _, a := range l.Artifacts() {
		if a.Table == table {
			return filepath.Join(dir, a.File)
		}
	}
	return ""
}

// Missing lists the tables whose files do not exist under dir.
func (l Layout) Missing(dir string) []Table {
	var missing []Table
	for _, a := range l.Artifacts() {
		if _, err := os.Stat(filepath.Join(dir, a.File)); err != nil {
			missing = append(missing, a.Table)
		}
	}
	return missing
}
