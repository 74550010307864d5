package ml

import (
	"context"
	"fmt"
	"math"
)

// Scorer kinds, used as metric labels
const (
	KindEmbedded = "embedded"
	KindHTTP     = "http"
	KindGRPC     = "grpc"
)

// Scorer is a binary classifier returning the positive-class probability for each
// feature row. Rows follow models.FeatureNames order. Implementations must be safe
// for concurrent use.
type Scorer interface {
	PredictProba(ctx context.Context, features [][]float64) ([]float64, error)
	Version() string
}

// validateProbabilities checks a scorer response against the request size.
func validateProbabilities(probs []float64, rows int) error {
	if len(probs) != rows {
		return fmt.Errorf("%w: got %d probabilities for %d rows", ErrInvalidPrediction, len(probs), rows)
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %v at row %d outside [0,1]", ErrInvalidPrediction, p, i)
		}
	}
	return nil
}
