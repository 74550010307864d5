package models

import "time"

// ModelVersion represents one versioned model directory holding a classifier and its
// statistics tables
type ModelVersion struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	ModifiedAt time.Time `json:"modified_at"`
	Complete   bool      `json:"complete"`
	Missing    []string  `json:"missing,omitempty"`
}

// IsUsable reports whether every artifact of the version is present
func (m *ModelVersion) IsUsable() bool {
	return m.Complete && len(m.Missing) == 0
}
