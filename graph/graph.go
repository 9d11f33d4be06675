// Package graph provides the key graph: one node per (tonic spelling, mode)
// pair, connected by undirected edges labelled with the chords the two keys
// share.
//
// # Lifecycle
//
// A Graph is produced complete by Build and never modified afterwards. Nodes
// and edges are stored in construction order, which is what makes traversal
// results reproducible. After Build returns, the graph can be read from
// multiple goroutines without locking.
package graph

import (
	"fmt"
	"slices"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/theory"
)

// Edge is one direction of an undirected link. Chords is the shared (or, for
// parallel keys, borrowable) chord list in chord.Compare order and is never
// empty.
type Edge struct {
	To     theory.Key    `json:"to" yaml:"to"`
	Chords []chord.Chord `json:"chords" yaml:"chords"`
}

// Node is a key together with its adjacency in insertion order.
type Node struct {
	Key theory.Key

	edges []Edge
	index map[theory.Key]int
}

func newNode(key theory.Key) *Node {
	return &Node{
		Key:   key,
		index: make(map[theory.Key]int),
	}
}

// Edges returns the node's edges in insertion order. The chord lists are
// shared with the graph and must not be modified.
func (n *Node) Edges() []Edge {
	return slices.Clone(n.edges)
}

// Degree returns the number of neighbours.
func (n *Node) Degree() int {
	return len(n.edges)
}

// Connected reports whether an edge to key exists.
func (n *Node) Connected(key theory.Key) bool {
	_, ok := n.index[key]
	return ok
}

// ChordsTo returns the chord list of the edge to key.
func (n *Node) ChordsTo(key theory.Key) ([]chord.Chord, bool) {
	i, ok := n.index[key]
	if !ok {
		return nil, false
	}
	return n.edges[i].Chords, true
}

// Pivot returns the first chord of the edge to key: the chord used to move
// from this key into the neighbour.
func (n *Node) Pivot(key theory.Key) (chord.Chord, bool) {
	chords, ok := n.ChordsTo(key)
	if !ok {
		return nil, false
	}
	return chords[0], true
}

// link inserts the edge a<->b with the same chord list on both sides.
// Empty lists and existing edges are ignored. It reports whether an edge was
// added.
func link(a, b *Node, chords []chord.Chord) bool {
	if len(chords) == 0 || a.Connected(b.Key) || b.Connected(a.Key) {
		return false
	}
	a.index[b.Key] = len(a.edges)
	a.edges = append(a.edges, Edge{To: b.Key, Chords: chords})
	b.index[a.Key] = len(b.edges)
	b.edges = append(b.edges, Edge{To: a.Key, Chords: chords})
	return true
}

// Graph is the immutable key graph.
type Graph struct {
	nodes map[theory.Key]*Node
	order []theory.Key
	edges int
}

// Node returns the node for key, or ErrUnknownKey if the key is not part of
// the palette the graph was built over.
func (g *Graph) Node(key theory.Key) (*Node, error) {
	n, ok := g.nodes[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return n, nil
}

// Has reports whether key is a node of the graph.
func (g *Graph) Has(key theory.Key) bool {
	_, ok := g.nodes[key]
	return ok
}

// Keys returns every node key in construction order.
func (g *Graph) Keys() []theory.Key {
	return slices.Clone(g.order)
}

// Nodes returns every node in construction order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, k := range g.order {
		nodes[i] = g.nodes[k]
	}
	return nodes
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Validate checks the structural invariants: every edge has a non-empty
// chord list, a mirror edge with an identical list, and a known endpoint.
func (g *Graph) Validate() error {
	for _, k := range g.order {
		n := g.nodes[k]
		for _, e := range n.edges {
			if len(e.Chords) == 0 {
				return fmt.Errorf("%w: %s -> %s has no chords", ErrInvalidGraph, k, e.To)
			}
			other, ok := g.nodes[e.To]
			if !ok {
				return fmt.Errorf("%w: %s -> %s points outside the graph", ErrInvalidGraph, k, e.To)
			}
			back, ok := other.ChordsTo(k)
			if !ok {
				return fmt.Errorf("%w: %s -> %s has no mirror edge", ErrInvalidGraph, k, e.To)
			}
			if !slices.EqualFunc(back, e.Chords, chord.Chord.Equal) {
				return fmt.Errorf("%w: %s <-> %s chord lists differ", ErrInvalidGraph, k, e.To)
			}
		}
	}
	return nil
}
