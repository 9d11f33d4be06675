package theory

import (
	"fmt"
	"strings"
)

// Mode is the diatonic mode of a key.
type Mode string

const (
	Major Mode = "major"
	Minor Mode = "minor"
)

// Modes lists both modes in construction order.
var Modes = []Mode{Major, Minor}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Major:
		return Major, nil
	case Minor:
		return Minor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Key identifies a key node: a tonic spelling plus a mode.
type Key struct {
	Tonic Pitch `json:"tonic" yaml:"tonic"`
	Mode  Mode  `json:"mode" yaml:"mode"`
}

// NewKey returns the key for a tonic and mode.
func NewKey(tonic Pitch, mode Mode) Key {
	return Key{Tonic: tonic, Mode: mode}
}

// ParseKey parses a tonic spelling and a mode name.
func ParseKey(tonic, mode string) (Key, error) {
	p, err := ParsePitch(tonic)
	if err != nil {
		return Key{}, err
	}
	m, err := ParseMode(mode)
	if err != nil {
		return Key{}, err
	}
	return Key{Tonic: p, Mode: m}, nil
}

// ParseKeyString parses the compact forms "C:major", "C major" and "c_minor".
func ParseKeyString(s string) (Key, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '_' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Key{}, fmt.Errorf("%w: expected <tonic>:<mode>, got %q", ErrInvalidKey, s)
	}
	return ParseKey(fields[0], fields[1])
}

// String returns "<tonic> <mode>", e.g. "Bb major".
func (k Key) String() string {
	return string(k.Tonic) + " " + string(k.Mode)
}

// Parallel returns the key on the same tonic in the other mode.
func (k Key) Parallel() Key {
	if k.Mode == Major {
		return Key{Tonic: k.Tonic, Mode: Minor}
	}
	return Key{Tonic: k.Tonic, Mode: Major}
}
