package storage

import "errors"

// Common storage errors.
var (
	// ErrNotFound is returned when a progression record is not found.
	ErrNotFound = errors.New("progression not found")
)
