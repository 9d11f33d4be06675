package theory

import (
	"fmt"
	"slices"
)

// Oracle spells the diatonic scale of a key.
type Oracle interface {
	// ScaleDegrees returns the ordered scale-degree spellings of the key,
	// tonic first. Implementations return seven degrees; no octave is
	// repeated.
	ScaleDegrees(tonic Pitch, mode Mode) ([]Pitch, error)
}

// defaultPalette is the fixed set of tonic spellings the engine is built over.
// It includes enharmonic pairs (A#/Bb, C#/Db, D#/Eb, F#/Gb, G#/Ab).
var defaultPalette = []Pitch{
	"Ab", "A", "A#", "Bb", "B", "C", "C#", "Db", "D", "D#", "Eb", "E", "F", "F#", "Gb", "G", "G#",
}

// DefaultPalette returns a copy of the 17-spelling palette.
func DefaultPalette() []Pitch {
	return slices.Clone(defaultPalette)
}

// ParsePalette parses a list of spellings, rejecting duplicates.
func ParsePalette(spellings []string) ([]Pitch, error) {
	palette := make([]Pitch, 0, len(spellings))
	seen := make(map[Pitch]bool, len(spellings))
	for _, s := range spellings {
		p, err := ParsePitch(s)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: duplicate spelling %q", ErrInvalidPitch, p)
		}
		seen[p] = true
		palette = append(palette, p)
	}
	return palette, nil
}

var (
	letters = []byte("CDEFGAB")

	// Semitone offsets of each degree above the tonic.
	majorSteps = []int{0, 2, 4, 5, 7, 9, 11}
	minorSteps = []int{0, 2, 3, 5, 7, 8, 10} // natural minor
)

// DiatonicOracle spells major and natural-minor scales letter by letter, so
// every degree uses the next letter name and carries whatever accidentals
// that requires (G# major spells its seventh degree "F##").
type DiatonicOracle struct{}

// ScaleDegrees implements Oracle.
func (DiatonicOracle) ScaleDegrees(tonic Pitch, mode Mode) ([]Pitch, error) {
	start := slices.Index(letters, tonic.Letter())
	if start < 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPitch, tonic)
	}

	var steps []int
	switch mode {
	case Major:
		steps = majorSteps
	case Minor:
		steps = minorSteps
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	root := tonic.Class()
	degrees := make([]Pitch, len(steps))
	for i, step := range steps {
		letter := letters[(start+i)%len(letters)]
		degrees[i] = spell(letter, root+step)
	}
	return degrees, nil
}
