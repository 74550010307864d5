package table

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownHeader(cell string) bool {
	return cell == "開催" || cell == "venue"
}

func TestReadCSVAutoDetectsHeader(t *testing.T) {
	input := "\ufeff開催,Ｒ,馬名\n東京,11,イクイノックス\n東京,11,リバティアイランド\n"

	tbl, err := ReadCSV(strings.NewReader(input), HeaderAuto, knownHeader)
	require.NoError(t, err)

	assert.Equal(t, []string{"開催", "Ｒ", "馬名"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "イクイノックス", tbl.Cell(0, 2))
}

func TestReadCSVAutoPositional(t *testing.T) {
	input := "2024-05-26,東京,11,1\n2024-05-26,東京,11,2\n"

	tbl, err := ReadCSV(strings.NewReader(input), HeaderAuto, knownHeader)
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2", "3"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "東京", tbl.Cell(0, 1))
}

func TestReadCSVForcedModes(t *testing.T) {
	input := "a,b\n1,2\n"

	withHeader, err := ReadCSV(strings.NewReader(input), HeaderPresent, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, withHeader.Columns)
	assert.Equal(t, 1, withHeader.Len())

	without, err := ReadCSV(strings.NewReader(input), HeaderAbsent, knownHeader)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, without.Columns)
	assert.Equal(t, 2, without.Len())
}

func TestReadCSVRaggedRowsArePadded(t *testing.T) {
	input := "venue,race\n東京,11,extra\n中山\n"

	tbl, err := ReadCSV(strings.NewReader(input), HeaderAuto, knownHeader)
	require.NoError(t, err)

	assert.Equal(t, []string{"venue", "race", ""}, tbl.Columns)
	assert.Equal(t, "", tbl.Cell(1, 1))
	assert.Equal(t, "", tbl.Cell(5, 0))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), HeaderAuto, knownHeader)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRename(t *testing.T) {
	tbl := New([]string{"0", "1", "2"}, [][]string{{"a", "b", "c"}})

	renamed := tbl.Rename(func(i int, name string) string {
		if i == 1 {
			return "venue"
		}
		return ""
	})

	assert.Equal(t, []string{"0", "venue", "2"}, renamed.Columns)
	assert.Equal(t, []string{"0", "1", "2"}, tbl.Columns)
	idx, ok := renamed.ColumnIndex("venue")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}
