package graph

import (
	"encoding/hex"
	"io"

	"lukechampine.com/blake3"
)

// Fingerprint returns a BLAKE3 digest over the graph's canonical text form:
// nodes in construction order, each followed by its edges in insertion order.
// Builds over the same palette and oracle yield the same fingerprint on every
// platform.
func (g *Graph) Fingerprint() string {
	h := blake3.New(32, nil)
	for _, k := range g.order {
		io.WriteString(h, "node "+k.String()+"\n")
		for _, e := range g.nodes[k].edges {
			io.WriteString(h, "  edge "+e.To.String()+":")
			for _, c := range e.Chords {
				io.WriteString(h, " ["+c.String()+"]")
			}
			io.WriteString(h, "\n")
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
