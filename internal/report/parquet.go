package report

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/yourusername/horsemen/internal/models"
)

func writeParquet(w io.Writer, results []models.RankedResult) error {
	writer := parquet.NewGenericWriter[models.RankedResult](w)
	if _, err := writer.Write(results); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	return writer.Close()
}

func readParquet(path string) ([]models.RankedResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[models.RankedResult](file)
	defer func() { _ = reader.Close() }()

	rows := make([]models.RankedResult, reader.NumRows())
	read := 0
	for read < len(rows) {
		n, err := reader.Read(rows[read:])
		read += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidResults, err)
		}
		if n == 0 {
			break
		}
	}
	return rows[:read], nil
}
