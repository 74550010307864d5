package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/yourusername/horsemen/internal/models"
	"github.com/yourusername/horsemen/internal/stats"
)

// LogisticModel is a linear classifier exported by the training job
type LogisticModel struct {
	ModelVersion string    `json:"version"`
	FeatureNames []string  `json:"feature_names"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

// LoadLogisticModel reads a model artifact. A missing file is reported as a
// *stats.LoadError wrapping stats.ErrFileMissing.
func LoadLogisticModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &stats.LoadError{Table: stats.TableModel, Path: path, Err: stats.ErrFileMissing}
		}
		return nil, &stats.LoadError{Table: stats.TableModel, Path: path, Err: err}
	}

	var model LogisticModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, &stats.LoadError{Table: stats.TableModel, Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidModel, err)}
	}
	if err := model.Validate(); err != nil {
		return nil, &stats.LoadError{Table: stats.TableModel, Path: path, Err: err}
	}
	return &model, nil
}

// Validate checks the artifact matches the feature layout the pipeline produces
func (m *LogisticModel) Validate() error {
	if len(m.Coefficients) != models.FeatureCount {
		return fmt.Errorf("%w: expected %d coefficients, got %d", ErrInvalidModel, models.FeatureCount, len(m.Coefficients))
	}
	if len(m.FeatureNames) > 0 {
		if len(m.FeatureNames) != models.FeatureCount {
			return fmt.Errorf("%w: expected %d feature names, got %d", ErrInvalidModel, models.FeatureCount, len(m.FeatureNames))
		}
		for i, name := range m.FeatureNames {
			if name != models.FeatureNames[i] {
				return fmt.Errorf("%w: feature %d is %q, expected %q", ErrInvalidModel, i, name, models.FeatureNames[i])
			}
		}
	}
	for i, c := range m.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("%w: coefficient %d is not finite", ErrInvalidModel, i)
		}
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("%w: intercept is not finite", ErrInvalidModel)
	}
	return nil
}

// PredictProba applies the sigmoid of the linear score to every row
func (m *LogisticModel) PredictProba(ctx context.Context, features [][]float64) ([]float64, error) {
	start := time.Now()
	defer func() {
		ScorerLatency.WithLabelValues(KindEmbedded).Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs := make([]float64, len(features))
	for i, row := range features {
		if len(row) != len(m.Coefficients) {
			ScorerErrorsTotal.WithLabelValues(KindEmbedded, "shape").Inc()
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrInvalidPrediction, i, len(row), len(m.Coefficients))
		}
		z := m.Intercept
		for j, x := range row {
			z += m.Coefficients[j] * x
		}
		probs[i] = sigmoid(z)
	}

	ScorerPredictionsTotal.WithLabelValues(KindEmbedded, "false").Add(float64(len(features)))
	return probs, nil
}

// Version returns the artifact version
func (m *LogisticModel) Version() string {
	return m.ModelVersion
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
