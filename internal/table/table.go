// Package table holds the raw, string-typed input table of race entries.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// HeaderMode tells ReadCSV whether the first record is a header
type HeaderMode string

// Header modes
const (
	HeaderAuto    HeaderMode = "auto"
	HeaderPresent HeaderMode = "true"
	HeaderAbsent  HeaderMode = "false"
)

// ErrEmpty indicates an input with no records at all
var ErrEmpty = errors.New("input table is empty")

// Table is a rectangular grid of text cells. Header-less tables get the
// column names "0".."n-1".
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table, padding short rows with blank cells
func New(columns []string, rows [][]string) *Table {
	t := &Table{Columns: columns, Rows: make([][]string, len(rows))}
	for i, row := range rows {
		t.Rows[i] = pad(row, len(columns))
	}
	return t
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column by exact name
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the cell at row i, column j, or "" when out of range
func (t *Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Rename returns a copy of the table with columns renamed through fn.
// fn returns "" to keep a column's name.
func (t *Table) Rename(fn func(i int, name string) string) *Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if renamed := fn(i, c); renamed != "" {
			cols[i] = renamed
		} else {
			cols[i] = c
		}
	}
	return &Table{Columns: cols, Rows: t.Rows}
}

// ReadCSV reads a CSV table. In HeaderAuto mode the first record is a header
// when isHeader reports true for any of its cells.
func ReadCSV(r io.Reader, mode HeaderMode, isHeader func(cell string) bool) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	records[0] = stripBOM(records[0])

	hasHeader := false
	switch mode {
	case HeaderPresent:
		hasHeader = true
	case HeaderAbsent:
		hasHeader = false
	default:
		if isHeader != nil {
			for _, cell := range records[0] {
				if isHeader(strings.TrimSpace(cell)) {
					hasHeader = true
					break
				}
			}
		}
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	var columns []string
	rows := records
	if hasHeader {
		columns = make([]string, width)
		for i := range columns {
			if i < len(records[0]) {
				columns[i] = strings.TrimSpace(records[0][i])
			}
		}
		rows = records[1:]
	} else {
		columns = PositionalColumns(width)
	}

	return New(columns, rows), nil
}

// PositionalColumns returns the names "0".."n-1"
func PositionalColumns(n int) []string {
	cols := make([]string, n)
	for i := range cols {
		cols[i] = strconv.Itoa(i)
	}
	return cols
}

func stripBOM(rec []string) []string {
	if len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
	}
	return rec
}

func pad(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	out := make([]string, width)
	copy(out, row)
	return out
}
