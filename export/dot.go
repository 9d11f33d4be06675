package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/theory"
)

// WriteGraphDOT writes g as an undirected Graphviz graph. Each key pair is
// emitted once, labelled with its pivot chord and the number of shared chords.
func WriteGraphDOT(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)

	position := make(map[theory.Key]int, g.Len())
	for i, k := range g.Keys() {
		position[k] = i
	}

	fmt.Fprintln(bw, "graph keys {")
	for _, n := range g.Nodes() {
		shape := "box"
		if n.Key.Mode == theory.Minor {
			shape = "ellipse"
		}
		fmt.Fprintf(bw, "  %q [shape=%s];\n", n.Key.String(), shape)
	}
	for _, n := range g.Nodes() {
		for _, e := range n.Edges() {
			if position[e.To] < position[n.Key] {
				continue
			}
			fmt.Fprintf(bw, "  %q -- %q [label=%q];\n",
				n.Key.String(), e.To.String(),
				fmt.Sprintf("%s (%d)", e.Chords[0], len(e.Chords)))
		}
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}
