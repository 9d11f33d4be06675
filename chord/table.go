package chord

import (
	"fmt"
	"slices"

	"github.com/c360studio/modulator/theory"
)

// scaleDegrees is the number of diatonic degrees a scale must provide.
const scaleDegrees = 7

// Scale offsets (0-based) with a special role during table construction.
const (
	mediantDegree     = 2 // iii, never used as a shared or cadential chord in major
	dominantDegree    = 4
	leadingToneDegree = 6
)

// Table holds the chord lookups for every key of a palette. It is built once
// by BuildTable and is read-only afterwards.
type Table struct {
	palette            []theory.Pitch
	triads             map[theory.Key]*Set
	tonics             map[theory.Key]Chord
	dominantSevenths   map[theory.Pitch]Chord
	diminishedSevenths map[theory.Pitch]Chord
}

// BuildTable asks the oracle for the scale of every palette spelling in both
// modes and derives the triad sets, tonic triads and cadential seventh
// chords.
//
// The diminished seventh is taken from the major scale of each spelling and
// serves the cadences of both its major and its minor key.
func BuildTable(palette []theory.Pitch, oracle theory.Oracle) (*Table, error) {
	t := &Table{
		palette:            slices.Clone(palette),
		triads:             make(map[theory.Key]*Set, 2*len(palette)),
		tonics:             make(map[theory.Key]Chord, 2*len(palette)),
		dominantSevenths:   make(map[theory.Pitch]Chord, len(palette)),
		diminishedSevenths: make(map[theory.Pitch]Chord, len(palette)),
	}

	for _, tonic := range palette {
		scale, err := extendedScale(oracle, tonic, theory.Major)
		if err != nil {
			return nil, err
		}
		t.addMajor(tonic, scale)
	}

	for _, tonic := range palette {
		scale, err := extendedScale(oracle, tonic, theory.Minor)
		if err != nil {
			return nil, err
		}
		t.addMinor(tonic, scale)
	}

	return t, nil
}

// extendedScale returns the seven degrees, the octave tonic, and degrees 2-6
// again, so a triad or seventh chord can be stacked on every degree without
// wrapping indices.
func extendedScale(oracle theory.Oracle, tonic theory.Pitch, mode theory.Mode) ([]theory.Pitch, error) {
	degrees, err := oracle.ScaleDegrees(tonic, mode)
	if err != nil {
		return nil, fmt.Errorf("scale of %s %s: %w", tonic, mode, err)
	}
	if len(degrees) < scaleDegrees {
		return nil, fmt.Errorf("%w: %s %s has %d degrees, need %d",
			ErrMalformedOracleOutput, tonic, mode, len(degrees), scaleDegrees)
	}
	for i, d := range degrees[:scaleDegrees] {
		if d == "" {
			return nil, fmt.Errorf("%w: %s %s degree %d is empty", ErrMalformedOracleOutput, tonic, mode, i+1)
		}
	}

	scale := make([]theory.Pitch, 0, 2*scaleDegrees-1)
	scale = append(scale, degrees[:scaleDegrees]...)
	scale = append(scale, degrees[0])
	scale = append(scale, degrees[1:6]...)
	return scale, nil
}

func (t *Table) addMajor(tonic theory.Pitch, scale []theory.Pitch) {
	key := theory.NewKey(tonic, theory.Major)
	var triads []Chord

	for p := 0; p <= len(scale)-6; p++ {
		triad := Triad(scale[p], scale[p+2], scale[p+4])
		if p != mediantDegree {
			triads = append(triads, triad)
		}

		switch p {
		case 0:
			t.tonics[key] = triad
		case dominantDegree:
			t.dominantSevenths[tonic] = Seventh(scale[p], scale[p+2], scale[p+4], scale[p+6])
		case leadingToneDegree:
			t.diminishedSevenths[tonic] = Seventh(scale[p], scale[p+2], scale[p+4], lowered(scale[p+6]))
		}
	}

	t.triads[key] = NewSet(triads...)
}

func (t *Table) addMinor(tonic theory.Pitch, scale []theory.Pitch) {
	key := theory.NewKey(tonic, theory.Minor)
	var triads []Chord

	for p := 0; p <= len(scale)-5; p++ {
		triad := Triad(scale[p], scale[p+2], scale[p+4])
		triads = append(triads, triad)
		if p == 0 {
			t.tonics[key] = triad
		}
	}

	t.triads[key] = NewSet(triads...)
}

// lowered turns the major sixth above the leading tone into the diminished
// seventh: one trailing sharp is dropped if present, otherwise a flat is added.
func lowered(p theory.Pitch) theory.Pitch {
	if p.Sharpened() {
		return p[:len(p)-1]
	}
	return p + "b"
}

// Palette returns a copy of the spellings the table was built over.
func (t *Table) Palette() []theory.Pitch {
	return slices.Clone(t.palette)
}

// Triads returns the diatonic triad set of a key. The major iii chord is
// excluded.
func (t *Table) Triads(key theory.Key) (*Set, bool) {
	s, ok := t.triads[key]
	return s, ok
}

// Tonic returns the tonic triad of a key.
func (t *Table) Tonic(key theory.Key) (Chord, bool) {
	c, ok := t.tonics[key]
	return slices.Clone(c), ok
}

// DominantSeventh returns the dominant seventh of the major key on tonic.
func (t *Table) DominantSeventh(tonic theory.Pitch) (Chord, bool) {
	c, ok := t.dominantSevenths[tonic]
	return slices.Clone(c), ok
}

// DiminishedSeventh returns the leading-tone diminished seventh for tonic,
// derived from its major scale.
func (t *Table) DiminishedSeventh(tonic theory.Pitch) (Chord, bool) {
	c, ok := t.diminishedSevenths[tonic]
	return slices.Clone(c), ok
}
