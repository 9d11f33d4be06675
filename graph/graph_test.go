package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/theory"
)

func buildDefault(t *testing.T) *Graph {
	t.Helper()
	table, err := chord.BuildTable(theory.DefaultPalette(), theory.DiatonicOracle{})
	require.NoError(t, err)
	g, err := Build(table)
	require.NoError(t, err)
	return g
}

func key(tonic theory.Pitch, mode theory.Mode) theory.Key {
	return theory.NewKey(tonic, mode)
}

func TestBuild_NodeCount(t *testing.T) {
	g := buildDefault(t)
	assert.Equal(t, 34, g.Len())

	keys := g.Keys()
	require.Len(t, keys, 34)
	assert.Equal(t, key("Ab", theory.Major), keys[0])
	assert.Equal(t, key("Ab", theory.Minor), keys[1])
	assert.Equal(t, key("G#", theory.Minor), keys[33])
}

func TestBuild_Invariants(t *testing.T) {
	g := buildDefault(t)
	require.NoError(t, g.Validate())

	total := 0
	for _, n := range g.Nodes() {
		seen := make(map[theory.Key]bool)
		for _, e := range n.Edges() {
			assert.NotEmpty(t, e.Chords, "%s -> %s", n.Key, e.To)
			assert.NotEqual(t, n.Key, e.To, "self loop on %s", n.Key)
			assert.False(t, seen[e.To], "duplicate edge %s -> %s", n.Key, e.To)
			seen[e.To] = true

			other, err := g.Node(e.To)
			require.NoError(t, err)
			back, ok := other.ChordsTo(n.Key)
			require.True(t, ok, "missing mirror %s -> %s", e.To, n.Key)
			assert.Equal(t, e.Chords, back)
		}
		total += n.Degree()
	}
	assert.Equal(t, 2*g.EdgeCount(), total)
}

func TestBuild_EdgeListsAreSorted(t *testing.T) {
	g := buildDefault(t)
	for _, n := range g.Nodes() {
		for _, e := range n.Edges() {
			for i := 1; i < len(e.Chords); i++ {
				assert.Negative(t, chord.Compare(e.Chords[i-1], e.Chords[i]), "%s -> %s", n.Key, e.To)
			}
		}
	}
}

func TestBuild_RelativeKeysShareEveryMajorTriad(t *testing.T) {
	g := buildDefault(t)

	cMajor, err := g.Node(key("C", theory.Major))
	require.NoError(t, err)

	chords, ok := cMajor.ChordsTo(key("A", theory.Minor))
	require.True(t, ok)
	assert.Equal(t, []chord.Chord{
		chord.Triad("A", "C", "E"),
		chord.Triad("B", "D", "F"),
		chord.Triad("C", "E", "G"),
		chord.Triad("D", "F", "A"),
		chord.Triad("F", "A", "C"),
		chord.Triad("G", "B", "D"),
	}, chords)
}

func TestBuild_DominantKeysIntersect(t *testing.T) {
	g := buildDefault(t)

	cMajor, err := g.Node(key("C", theory.Major))
	require.NoError(t, err)

	chords, ok := cMajor.ChordsTo(key("G", theory.Major))
	require.True(t, ok)
	assert.Equal(t, []chord.Chord{
		chord.Triad("A", "C", "E"),
		chord.Triad("C", "E", "G"),
		chord.Triad("G", "B", "D"),
	}, chords)

	pivot, ok := cMajor.Pivot(key("G", theory.Major))
	require.True(t, ok)
	assert.Equal(t, chord.Triad("A", "C", "E"), pivot)
}

func TestBuild_DisjointKeysStayUnlinked(t *testing.T) {
	g := buildDefault(t)

	cMajor, err := g.Node(key("C", theory.Major))
	require.NoError(t, err)
	assert.False(t, cMajor.Connected(key("F#", theory.Major)))
	assert.False(t, cMajor.Connected(key("Gb", theory.Major)))

	_, ok := cMajor.Pivot(key("F#", theory.Major))
	assert.False(t, ok)
}

func TestBuild_ParallelKeysUseUnion(t *testing.T) {
	g := buildDefault(t)
	table, err := chord.BuildTable(theory.DefaultPalette(), theory.DiatonicOracle{})
	require.NoError(t, err)

	for _, p := range theory.DefaultPalette() {
		major := key(p, theory.Major)
		minor := key(p, theory.Minor)

		n, err := g.Node(major)
		require.NoError(t, err)
		chords, ok := n.ChordsTo(minor)
		require.True(t, ok, "%s not linked to %s", major, minor)

		majorTriads, _ := table.Triads(major)
		minorTriads, _ := table.Triads(minor)
		assert.Equal(t, majorTriads.Union(minorTriads).Chords(), chords)
	}
}

func TestBuild_SameLetterQuirk(t *testing.T) {
	g := buildDefault(t)

	// A and A# share a letter name, so they are treated as parallel even
	// though their scales have nothing in common.
	aMajor, err := g.Node(key("A", theory.Major))
	require.NoError(t, err)
	chords, ok := aMajor.ChordsTo(key("A#", theory.Minor))
	require.True(t, ok)
	assert.NotEmpty(t, chords)

	// Same-letter, same-mode pairs are never linked.
	assert.False(t, aMajor.Connected(key("A#", theory.Major)))
	assert.False(t, aMajor.Connected(key("Ab", theory.Major)))
}

func TestGraph_UnknownKey(t *testing.T) {
	g := buildDefault(t)

	_, err := g.Node(key("Cb", theory.Major))
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.False(t, g.Has(key("Cb", theory.Major)))
	assert.True(t, g.Has(key("C", theory.Minor)))
}

func TestGraph_FingerprintIsDeterministic(t *testing.T) {
	a := buildDefault(t)
	b := buildDefault(t)

	assert.Len(t, a.Fingerprint(), 64)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	table, err := chord.BuildTable([]theory.Pitch{"C", "G"}, theory.DiatonicOracle{})
	require.NoError(t, err)
	small, err := Build(table)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), small.Fingerprint())
}

func TestBuild_SmallPalette(t *testing.T) {
	table, err := chord.BuildTable([]theory.Pitch{"C", "G"}, theory.DiatonicOracle{})
	require.NoError(t, err)
	g, err := Build(table)
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	// Both parallel pairs plus three of the four cross pairs: C minor and
	// G major share no triad.
	assert.Equal(t, 5, g.EdgeCount())
	cMinor, _ := g.Node(key("C", theory.Minor))
	assert.False(t, cMinor.Connected(key("G", theory.Major)))

	cMajor, _ := g.Node(key("C", theory.Major))
	var order []theory.Key
	for _, e := range cMajor.Edges() {
		order = append(order, e.To)
	}
	assert.Equal(t, []theory.Key{
		key("C", theory.Minor),
		key("G", theory.Major),
		key("G", theory.Minor),
	}, order)
}
