package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/modulation"
)

const separator = "-----------------------------------"

// WriteGraphText writes one block per key: the key, then each neighbour
// with its shared chords, then a separator line.
func WriteGraphText(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for _, n := range g.Nodes() {
		fmt.Fprintln(bw, n.Key)
		for _, e := range n.Edges() {
			fmt.Fprintf(bw, "  %s: %s\n", e.To, chordList(e.Chords))
		}
		fmt.Fprintln(bw, separator)
	}
	return bw.Flush()
}

// WriteProgressionText writes the route header followed by one numbered
// chord per line.
func WriteProgressionText(w io.Writer, p *modulation.Progression) error {
	bw := bufio.NewWriter(w)

	route := make([]string, len(p.Route))
	for i, k := range p.Route {
		route[i] = k.String()
	}
	hops := "hops"
	if p.Hops() == 1 {
		hops = "hop"
	}
	fmt.Fprintf(bw, "%s (%d %s)\n", strings.Join(route, " -> "), p.Hops(), hops)

	for i, c := range p.Chords {
		fmt.Fprintf(bw, "%3d. %s\n", i+1, c)
	}
	return bw.Flush()
}

func chordList(chords []chord.Chord) string {
	parts := make([]string, len(chords))
	for i, c := range chords {
		parts[i] = "[" + c.String() + "]"
	}
	return strings.Join(parts, " ")
}
