package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/horsemen/internal/models"
)

// PredictionRepository defines the interface for prediction run data access
type PredictionRepository interface {
	SaveRun(ctx context.Context, run *models.PredictionRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error)
	ListRuns(ctx context.Context, limit int) ([]*models.PredictionRun, error)
	LatestRun(ctx context.Context) (*models.PredictionRun, error)
}
