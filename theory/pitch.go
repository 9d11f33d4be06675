// Package theory provides the pitch spellings, modes and keys the modulation
// engine is built over, plus the oracle that spells diatonic scales.
//
// Spellings are kept exactly as written: "A#" and "Bb" denote the same
// physical pitch class but are distinct identities everywhere in the engine.
package theory

import (
	"fmt"
	"strings"
)

// Pitch is a pitch-class spelling such as "C", "F#" or "Bb".
// The first byte is always an upper-case letter A-G, followed by zero or more
// accidentals ('#' for sharp, 'b' for flat). No octave is carried.
type Pitch string

const (
	sharp = '#'
	flat  = 'b'
)

// naturalClass maps a letter name to its pitch class in semitones above C.
var naturalClass = map[byte]int{
	'C': 0,
	'D': 2,
	'E': 4,
	'F': 5,
	'G': 7,
	'A': 9,
	'B': 11,
}

// ParsePitch parses a pitch spelling. The letter is case-insensitive and
// flats may be written either as 'b' or as '-' (music21 notation), so "b-",
// "Bb" and "B-" all parse to "Bb".
func ParsePitch(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty spelling", ErrInvalidPitch)
	}

	letter := s[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if _, ok := naturalClass[letter]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPitch, s)
	}

	var sb strings.Builder
	sb.WriteByte(letter)
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case sharp:
			sb.WriteByte(sharp)
		case flat, '-':
			sb.WriteByte(flat)
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidPitch, s)
		}
	}

	p := Pitch(sb.String())
	if strings.ContainsRune(string(p[1:]), sharp) && strings.ContainsRune(string(p[1:]), flat) {
		return "", fmt.Errorf("%w: mixed accidentals in %q", ErrInvalidPitch, s)
	}
	return p, nil
}

// MustParsePitch is like ParsePitch but panics on error.
func MustParsePitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Letter returns the letter name of the spelling.
func (p Pitch) Letter() byte {
	if p == "" {
		return 0
	}
	return p[0]
}

// Accidental returns the net accidental: positive for sharps, negative for flats.
func (p Pitch) Accidental() int {
	n := 0
	for i := 1; i < len(p); i++ {
		switch p[i] {
		case sharp:
			n++
		case flat:
			n--
		}
	}
	return n
}

// Class returns the physical pitch class (0-11, C = 0).
func (p Pitch) Class() int {
	return mod12(naturalClass[p.Letter()] + p.Accidental())
}

// Sharpened reports whether the spelling ends in a sharp.
func (p Pitch) Sharpened() bool {
	return len(p) > 1 && p[len(p)-1] == sharp
}

// String returns the spelling.
func (p Pitch) String() string {
	return string(p)
}

// SameLetter reports whether two spellings share a letter name.
func SameLetter(a, b Pitch) bool {
	return a.Letter() == b.Letter()
}

// spell returns the spelling of pitch class pc on the given letter.
func spell(letter byte, pc int) Pitch {
	diff := mod12(pc - naturalClass[letter])
	if diff > 6 {
		diff -= 12
	}

	var sb strings.Builder
	sb.WriteByte(letter)
	for ; diff > 0; diff-- {
		sb.WriteByte(sharp)
	}
	for ; diff < 0; diff++ {
		sb.WriteByte(flat)
	}
	return Pitch(sb.String())
}

func mod12(n int) int {
	return ((n % 12) + 12) % 12
}
