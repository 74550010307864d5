package stats

import "fmt"

const (
	// DefaultScore is the neutral prior used for any entity or course/post cell without a usable statistic.
	DefaultScore = 0.2

	// MinObservations is the smallest course/post sample size whose stored score is trusted.
	MinObservations = 5
)

// Table names one lookup table of the store.
type Table string

// Store tables
const (
	TableModel            Table = "model"
	TableSire             Table = "sire"
	TableBroodmareSire    Table = "broodmare_sire"
	TableJockey           Table = "jockey"
	TableTrainer          Table = "trainer"
	TableBreeder          Table = "breeder"
	TableCoursePostStats  Table = "course_post_stats"
	TableCoursePostCounts Table = "course_post_counts"
)

// EntityTables lists the name-keyed tables in lookup order.
var EntityTables = []Table{TableSire, TableBroodmareSire, TableJockey, TableTrainer, TableBreeder}

// EntityTable maps an entity name to its historical performance score.
type EntityTable map[string]float64

// CoursePostKey identifies a post position on a course ("芝2000", 3).
type CoursePostKey struct {
	CourseID string
	Post     int
}

func (k CoursePostKey) String() string {
	return fmt.Sprintf("%s/%d", k.CourseID, k.Post)
}

// Tables is the raw content of a store, as produced by the offline statistics job.
type Tables struct {
	Sire             EntityTable
	BroodmareSire    EntityTable
	Jockey           EntityTable
	Trainer          EntityTable
	Breeder          EntityTable
	CoursePostScores map[CoursePostKey]float64
	CoursePostCounts map[CoursePostKey]int
}

// Store is an immutable snapshot of the statistics tables of one model version.
// It is safe for concurrent reads.
type Store struct {
	version  string
	entities map[Table]EntityTable
	cpScores map[CoursePostKey]float64
	cpCounts map[CoursePostKey]int
}

// NewStore builds a store from in-memory tables. The maps are copied so later
// changes by the caller do not leak into the snapshot.
func NewStore(version string, t Tables) *Store {
	s := &Store{
		version: version,
		entities: map[Table]EntityTable{
			TableSire:          copyEntities(t.Sire),
			TableBroodmareSire: copyEntities(t.BroodmareSire),
			TableJockey:        copyEntities(t.Jockey),
			TableTrainer:       copyEntities(t.Trainer),
			TableBreeder:       copyEntities(t.Breeder),
		},
		cpScores: make(map[CoursePostKey]float64, len(t.CoursePostScores)),
		cpCounts: make(map[CoursePostKey]int, len(t.CoursePostCounts)),
	}
	for k, v := range t.CoursePostScores {
		s.cpScores[k] = v
	}
	for k, v := range t.CoursePostCounts {
		s.cpCounts[k] = v
	}
	return s
}

func copyEntities(src EntityTable) EntityTable {
	dst := make(EntityTable, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Version returns the model version the store was loaded for.
func (s *Store) Version() string {
	return s.version
}

// Score looks up name in an entity table. Unknown names, and unknown tables,
// resolve to DefaultScore with found=false.
func (s *Store) Score(table Table, name string) (score float64, found bool) {
	entities, ok := s.entities[table]
	if !ok {
		return DefaultScore, false
	}
	if v, ok := entities[name]; ok {
		return v, true
	}
	return DefaultScore, false
}

// CoursePostCount returns the number of historical observations of a course/post cell.
func (s *Store) CoursePostCount(courseID string, post int) (int, bool) {
	n, ok := s.cpCounts[CoursePostKey{CourseID: courseID, Post: post}]
	return n, ok
}

// CoursePostScore returns the post-position score for a course. The count table is
// consulted first: an absent cell, a cell observed fewer than MinObservations times,
// or a counted cell with no stored score all resolve to DefaultScore with found=false.
func (s *Store) CoursePostScore(courseID string, post int) (score float64, found bool) {
	key := CoursePostKey{CourseID: courseID, Post: post}

	count, ok := s.cpCounts[key]
	if !ok || count < MinObservations {
		return DefaultScore, false
	}

	v, ok := s.cpScores[key]
	if !ok {
		return DefaultScore, false
	}
	return v, true
}

// Sizes returns the number of rows held by each table.
func (s *Store) Sizes() map[Table]int {
	sizes := make(map[Table]int, len(s.entities)+2)
	for table, entities := range s.entities {
		sizes[table] = len(entities)
	}
	sizes[TableCoursePostStats] = len(s.cpScores)
	sizes[TableCoursePostCounts] = len(s.cpCounts)
	return sizes
}
