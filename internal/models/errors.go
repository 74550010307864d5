package models

import "errors"

// Custom errors
var (
	ErrNotFound       = errors.New("record not found")
	ErrMissingColumns = errors.New("invalid CSV format: missing venue or race number column")
)
