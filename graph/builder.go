package graph

import (
	"fmt"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/theory"
)

// Build constructs the key graph for every spelling in the table's palette.
//
// For each ordered pair of spellings (p1, p2), in palette order:
//   - different letter names: the four mode pairings are linked by the
//     intersection of their triad sets;
//   - same letter name, p1 == p2 included: only major(p1)-minor(p2) and
//     minor(p1)-major(p2) are linked, by the union of their triad sets.
//
// A pair already linked from an earlier iteration is not reprocessed, and
// empty chord lists never produce an edge.
func Build(table *chord.Table) (*Graph, error) {
	palette := table.Palette()
	g := &Graph{
		nodes: make(map[theory.Key]*Node, 2*len(palette)),
		order: make([]theory.Key, 0, 2*len(palette)),
	}

	triads := make(map[theory.Key]*chord.Set, 2*len(palette))
	for _, p := range palette {
		for _, mode := range theory.Modes {
			key := theory.NewKey(p, mode)
			set, ok := table.Triads(key)
			if !ok {
				return nil, fmt.Errorf("%w: no triads for %s", ErrIncompleteTable, key)
			}
			if _, dup := g.nodes[key]; dup {
				continue
			}
			triads[key] = set
			g.nodes[key] = newNode(key)
			g.order = append(g.order, key)
		}
	}

	for _, p1 := range palette {
		maj1, min1 := g.pair(p1)
		for _, p2 := range palette {
			maj2, min2 := g.pair(p2)

			if !theory.SameLetter(p1, p2) {
				g.intersect(triads, maj1, maj2)
				g.intersect(triads, min1, min2)
				g.intersect(triads, maj1, min2)
				g.intersect(triads, min1, maj2)
				continue
			}

			// Parallel keys may borrow any chord of either mode.
			g.union(triads, maj1, min2)
			g.union(triads, min1, maj2)
		}
	}

	return g, nil
}

func (g *Graph) pair(p theory.Pitch) (major, minor *Node) {
	return g.nodes[theory.NewKey(p, theory.Major)], g.nodes[theory.NewKey(p, theory.Minor)]
}

func (g *Graph) intersect(triads map[theory.Key]*chord.Set, a, b *Node) {
	if a == b || a.Connected(b.Key) {
		return
	}
	g.add(a, b, triads[a.Key].Intersect(triads[b.Key]))
}

func (g *Graph) union(triads map[theory.Key]*chord.Set, a, b *Node) {
	if a == b || a.Connected(b.Key) {
		return
	}
	g.add(a, b, triads[a.Key].Union(triads[b.Key]))
}

func (g *Graph) add(a, b *Node, shared *chord.Set) {
	if link(a, b, shared.Chords()) {
		g.edges++
	}
}
