package graph

import "errors"

// Sentinel errors for graph operations.
var (
	// ErrUnknownKey is returned when a key is not part of the palette the
	// graph was built over. Callers must not substitute a default key.
	ErrUnknownKey = errors.New("unknown key")

	// ErrInvalidGraph is returned by Validate when a structural invariant
	// is broken.
	ErrInvalidGraph = errors.New("invalid key graph")

	// ErrIncompleteTable is returned when the chord table lacks triads for a
	// palette key.
	ErrIncompleteTable = errors.New("incomplete chord table")
)
