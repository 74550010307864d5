package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourusername/horsemen/internal/models"
)

func writeCSV(w io.Writer, results []models.RankedResult) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := csvWriter.Write(row(r)); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

// ReadCSV parses a results CSV written by this package. Columns are matched by
// header name so extra or reordered columns are tolerated.
func ReadCSV(r io.Reader) ([]models.RankedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidResults)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResults, err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	for _, required := range []string{"venue", "race_number", "rank", "ai_index"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidResults, required)
		}
	}

	var results []models.RankedResult
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidResults, line, err)
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(record) {
				return ""
			}
			return record[i]
		}

		rank, err := strconv.Atoi(get("rank"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: rank: %v", ErrInvalidResults, line, err)
		}
		index, err := strconv.ParseFloat(get("ai_index"), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: ai_index: %v", ErrInvalidResults, line, err)
		}
		post, _ := strconv.Atoi(get("post"))

		results = append(results, models.RankedResult{
			Venue:       get("venue"),
			RaceNumber:  get("race_number"),
			RaceName:    get("race_name"),
			Rank:        rank,
			Mark:        get("mark"),
			Post:        post,
			HorseNumber: get("horse_number"),
			HorseName:   get("horse_name"),
			Jockey:      get("jockey"),
			AIIndex:     index,
			PostMark:    models.PostMark(get("post_mark")),
			Sire:        get("sire"),
		})
	}
	return results, nil
}
