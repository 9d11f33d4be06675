package theory

import "errors"

// Parsing errors.
var (
	// ErrInvalidPitch is returned for a spelling that is not a letter A-G
	// followed by sharps or flats.
	ErrInvalidPitch = errors.New("invalid pitch spelling")

	// ErrInvalidMode is returned for a mode other than major or minor.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrInvalidKey is returned when a key string cannot be split into a
	// tonic and a mode.
	ErrInvalidKey = errors.New("invalid key")
)
