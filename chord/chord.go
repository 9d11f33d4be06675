// Package chord builds the per-key chord tables the key graph is derived
// from: diatonic triads, tonic triads and the seventh chords used for
// cadences.
package chord

import (
	"cmp"
	"strings"

	"github.com/c360studio/modulator/theory"
)

// Chord is a tuple of chord tones stored root, third, fifth (, seventh).
// Triads have three tones and seventh chords four.
type Chord []theory.Pitch

// Triad returns the chord root-third-fifth.
func Triad(root, third, fifth theory.Pitch) Chord {
	return Chord{root, third, fifth}
}

// Seventh returns the chord root-third-fifth-seventh.
func Seventh(root, third, fifth, seventh theory.Pitch) Chord {
	return Chord{root, third, fifth, seventh}
}

// Root returns the first chord tone.
func (c Chord) Root() theory.Pitch {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Equal reports whether two chords have the same tones in the same order.
func (c Chord) Equal(other Chord) bool {
	return Compare(c, other) == 0
}

// String returns the tones joined by spaces, e.g. "G B D F".
func (c Chord) String() string {
	tones := make([]string, len(c))
	for i, p := range c {
		tones[i] = string(p)
	}
	return strings.Join(tones, " ")
}

// Compare orders chords lexicographically by tone spelling; a chord that is
// a prefix of another sorts first.
func Compare(a, b Chord) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(string(a[i]), string(b[i])); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
