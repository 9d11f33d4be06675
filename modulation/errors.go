package modulation

import (
	"errors"

	"github.com/c360studio/modulator/graph"
)

var (
	// ErrUnreachable is returned when no chain of shared chords connects the
	// start key to the destination. It is an expected outcome, not a fault.
	ErrUnreachable = errors.New("destination key unreachable")

	// ErrUnknownKey is returned when a query names a key outside the palette.
	ErrUnknownKey = graph.ErrUnknownKey
)
