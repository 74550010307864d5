package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/yourusername/horsemen/internal/models"
)

func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func readJSON(path string) ([]models.RankedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var run models.PredictionRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResults, err)
	}
	return run.Results, nil
}
