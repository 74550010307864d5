// Package repository persists prediction runs in PostgreSQL.
package repository

import (
	"fmt"

	"github.com/yourusername/horsemen/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	DB         *database.DB
	Prediction *PostgresPredictionRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		DB:         db,
		Prediction: NewPostgresPredictionRepository(db),
	}, nil
}
