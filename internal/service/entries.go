package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/table"
)

// ValidateColumns checks a normalized table can be grouped into races
func ValidateColumns(t *table.Table) error {
	var missing []string
	for _, col := range []string{ColVenue, ColRaceNumber} {
		if _, ok := t.ColumnIndex(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (%s)", models.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// ToEntries converts normalized rows to race entries. Rows with a blank venue or
// race number cannot be grouped; their row indices are returned as skipped.
func ToEntries(t *table.Table) (entries []models.RaceEntry, skipped []int) {
	idx := map[string]int{}
	for i, c := range t.Columns {
		if _, seen := idx[c]; !seen {
			idx[c] = i
		}
	}
	cell := func(row int, col string) string {
		j, ok := idx[col]
		if !ok {
			return ""
		}
		return t.Cell(row, j)
	}

	for i := range t.Rows {
		e := models.RaceEntry{
			Index:         i,
			Venue:         strings.TrimSpace(cell(i, ColVenue)),
			RaceNumber:    strings.TrimSpace(cell(i, ColRaceNumber)),
			RaceName:      cell(i, ColRaceName),
			Surface:       cell(i, ColSurface),
			Distance:      cell(i, ColDistance),
			HorseNumber:   strings.TrimSpace(cell(i, ColHorseNumber)),
			HorseName:     strings.TrimSpace(cell(i, ColHorseName)),
			Sex:           cell(i, ColSex),
			Age:           cell(i, ColAge),
			Jockey:        cell(i, ColJockey),
			Trainer:       cell(i, ColTrainer),
			Breeder:       cell(i, ColBreeder),
			Sire:          cell(i, ColSire),
			BroodmareSire: cell(i, ColBroodmareSire),
			PostNumber:    cell(i, ColPostNumber),
		}
		if e.Key().IsZero() {
			skipped = append(skipped, i)
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped
}

// GroupRaces partitions entries by race key. Entries keep input order within a
// race and races are ordered by venue, then race number.
func GroupRaces(entries []models.RaceEntry) []models.Race {
	byKey := map[models.RaceKey]int{}
	var races []models.Race
	for _, e := range entries {
		key := e.Key()
		i, ok := byKey[key]
		if !ok {
			i = len(races)
			byKey[key] = i
			races = append(races, models.Race{Key: key})
		}
		races[i].Entries = append(races[i].Entries, e)
	}

	sort.SliceStable(races, func(i, j int) bool {
		return races[i].Key.Less(races[j].Key)
	})
	return races
}
