package chord

import (
	"slices"

	"github.com/emirpasic/gods/sets/treeset"
)

// Set is an immutable ordered set of chords. Iteration follows Compare, so
// the first chord of a set is always its lexicographically smallest member.
type Set struct {
	tree *treeset.Set
}

func comparator(a, b interface{}) int {
	return Compare(a.(Chord), b.(Chord))
}

// NewSet returns a set holding the given chords; duplicates collapse.
func NewSet(chords ...Chord) *Set {
	s := &Set{tree: treeset.NewWith(comparator)}
	for _, c := range chords {
		s.tree.Add(slices.Clone(c))
	}
	return s
}

// Len returns the number of chords in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.tree.Size()
}

// Empty reports whether the set holds no chords.
func (s *Set) Empty() bool {
	return s.Len() == 0
}

// Contains reports whether c is a member.
func (s *Set) Contains(c Chord) bool {
	if s == nil {
		return false
	}
	return s.tree.Contains(c)
}

// Chords returns copies of the members in order.
func (s *Set) Chords() []Chord {
	if s == nil {
		return nil
	}
	values := s.tree.Values()
	chords := make([]Chord, len(values))
	for i, v := range values {
		chords[i] = slices.Clone(v.(Chord))
	}
	return chords
}

// Intersect returns the chords present in both sets.
func (s *Set) Intersect(other *Set) *Set {
	out := NewSet()
	for _, c := range s.Chords() {
		if other.Contains(c) {
			out.tree.Add(c)
		}
	}
	return out
}

// Union returns the chords present in either set.
func (s *Set) Union(other *Set) *Set {
	out := NewSet(s.Chords()...)
	for _, c := range other.Chords() {
		out.tree.Add(c)
	}
	return out
}
