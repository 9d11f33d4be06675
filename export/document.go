package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/modulation"
)

// GraphDocument is the serialized form of a key graph.
type GraphDocument struct {
	Fingerprint string        `json:"fingerprint" yaml:"fingerprint"`
	Nodes       int           `json:"nodes" yaml:"nodes"`
	Edges       int           `json:"edges" yaml:"edges"`
	Keys        []KeyDocument `json:"keys" yaml:"keys"`
}

// KeyDocument is one node with its adjacency.
type KeyDocument struct {
	Key   string         `json:"key" yaml:"key"`
	Edges []EdgeDocument `json:"edges" yaml:"edges"`
}

// EdgeDocument is one direction of an edge.
type EdgeDocument struct {
	To     string   `json:"to" yaml:"to"`
	Chords []string `json:"chords" yaml:"chords"`
}

// NewGraphDocument converts g into its serialized form.
func NewGraphDocument(g *graph.Graph) *GraphDocument {
	doc := &GraphDocument{
		Fingerprint: g.Fingerprint(),
		Nodes:       g.Len(),
		Edges:       g.EdgeCount(),
		Keys:        make([]KeyDocument, 0, g.Len()),
	}
	for _, n := range g.Nodes() {
		kd := KeyDocument{Key: n.Key.String(), Edges: make([]EdgeDocument, 0, n.Degree())}
		for _, e := range n.Edges() {
			ed := EdgeDocument{To: e.To.String(), Chords: make([]string, len(e.Chords))}
			for i, c := range e.Chords {
				ed.Chords[i] = c.String()
			}
			kd.Edges = append(kd.Edges, ed)
		}
		doc.Keys = append(doc.Keys, kd)
	}
	return doc
}

// ProgressionDocument is the serialized form of a progression.
type ProgressionDocument struct {
	Start       string   `json:"start" yaml:"start"`
	Destination string   `json:"destination" yaml:"destination"`
	Hops        int      `json:"hops" yaml:"hops"`
	Route       []string `json:"route" yaml:"route"`
	Chords      []string `json:"chords" yaml:"chords"`
}

// NewProgressionDocument converts p into its serialized form.
func NewProgressionDocument(p *modulation.Progression) *ProgressionDocument {
	doc := &ProgressionDocument{
		Start:       p.Start.String(),
		Destination: p.Destination.String(),
		Hops:        p.Hops(),
		Route:       make([]string, len(p.Route)),
		Chords:      make([]string, len(p.Chords)),
	}
	for i, k := range p.Route {
		doc.Route[i] = k.String()
	}
	for i, c := range p.Chords {
		doc.Chords[i] = c.String()
	}
	return doc
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
