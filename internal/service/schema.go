package service

import (
	"io"
	"strings"
	"unicode"

	"github.com/yourusername/horsemen/internal/table"
)

// SchemaMode tells how input columns are identified
type SchemaMode int

// Schema modes
const (
	// SchemaNamed tables carry a header row with recognised column names
	SchemaNamed SchemaMode = iota
	// SchemaPositional tables are header-less exports where columns are identified by position
	SchemaPositional
)

func (m SchemaMode) String() string {
	if m == SchemaPositional {
		return "positional"
	}
	return "named"
}

// Canonical column names
const (
	ColVenue         = "venue"
	ColRaceNumber    = "race_number"
	ColHorseNumber   = "horse_number"
	ColRaceName      = "race_name"
	ColSurface       = "surface"
	ColDistance      = "distance"
	ColHorseName     = "horse_name"
	ColSex           = "sex"
	ColAge           = "age"
	ColJockey        = "jockey"
	ColTrainer       = "trainer"
	ColBreeder       = "breeder"
	ColSire          = "sire"
	ColBroodmareSire = "broodmare_sire"
	ColPostNumber    = "post_number"
)

// positionalColumns maps export column positions to canonical names
var positionalColumns = map[int]string{
	1:  ColVenue,
	2:  ColRaceNumber,
	3:  ColHorseNumber,
	4:  ColRaceName,
	5:  ColSurface,
	6:  ColDistance,
	7:  ColHorseName,
	8:  ColSex,
	9:  ColAge,
	10: ColJockey,
	12: ColTrainer,
	15: ColBreeder,
	16: ColSire,
	20: ColBroodmareSire,
	22: ColPostNumber,
}

// columnAliases maps accepted header spellings to canonical names
var columnAliases = map[string]string{
	"開催":    ColVenue,
	"場所":    ColVenue,
	"Ｒ":     ColRaceNumber,
	"R":     ColRaceNumber,
	"馬番":    ColHorseNumber,
	"番":     ColHorseNumber,
	"レース名":  ColRaceName,
	"芝ダート":  ColSurface,
	"芝・ダ":   ColSurface,
	"距離":    ColDistance,
	"馬名":    ColHorseName,
	"性別":    ColSex,
	"年齢":    ColAge,
	"騎手":    ColJockey,
	"調教師":   ColTrainer,
	"生産者":   ColBreeder,
	"種牡馬":   ColSire,
	"父":     ColSire,
	"母父馬":   ColBroodmareSire,
	"母父":    ColBroodmareSire,
	"枠番":    ColPostNumber,
	"枠":     ColPostNumber,
	"race":  ColRaceNumber,
	"track": ColVenue,
	"bms":   ColBroodmareSire,
	"post":  ColPostNumber,
}

func init() {
	for _, canonical := range positionalColumns {
		columnAliases[canonical] = canonical
	}
}

// CanonicalColumn resolves a header cell to its canonical name
func CanonicalColumn(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if c, ok := columnAliases[name]; ok {
		return c, true
	}
	c, ok := columnAliases[strings.ToLower(name)]
	return c, ok
}

// IsKnownColumn reports whether a header cell names a recognised column.
// It drives header auto-detection in table.ReadCSV.
func IsKnownColumn(name string) bool {
	_, ok := CanonicalColumn(name)
	return ok
}

// DetectSchema reports positional mode when the first column name is all digits,
// which is how header-less tables are labelled.
func DetectSchema(t *table.Table) SchemaMode {
	if len(t.Columns) == 0 {
		return SchemaNamed
	}
	first := strings.TrimSpace(t.Columns[0])
	if first == "" {
		return SchemaNamed
	}
	for _, r := range first {
		if !unicode.IsDigit(r) {
			return SchemaNamed
		}
	}
	return SchemaPositional
}

// Normalize renames columns to canonical names. Unknown columns keep their
// names and are ignored downstream.
func Normalize(t *table.Table) (*table.Table, SchemaMode) {
	mode := DetectSchema(t)
	if mode == SchemaPositional {
		return t.Rename(func(i int, _ string) string {
			return positionalColumns[i]
		}), mode
	}
	return t.Rename(func(_ int, name string) string {
		if c, ok := CanonicalColumn(name); ok {
			return c
		}
		return name
	}), mode
}

// ReadTable reads a CSV input, detecting a header row by its column names when
// mode is table.HeaderAuto.
func ReadTable(r io.Reader, mode table.HeaderMode) (*table.Table, error) {
	return table.ReadCSV(r, mode, IsKnownColumn)
}
