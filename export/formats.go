// Package export renders key graphs and chord progressions for people and
// for downstream tools.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/modulation"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatText produces the human-readable adjacency dump.
	FormatText Format = "text"

	// FormatJSON produces a JSON document.
	FormatJSON Format = "json"

	// FormatYAML produces a YAML document.
	FormatYAML Format = "yaml"

	// FormatDOT produces a Graphviz graph. Graphs only.
	FormatDOT Format = "dot"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string

	// Progressions reports whether progressions can be written in this format.
	Progressions bool
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatText: {
		Name:         FormatText,
		MIMEType:     "text/plain",
		Extension:    ".txt",
		Description:  "Plain text, one block per key",
		Progressions: true,
	},
	FormatJSON: {
		Name:         FormatJSON,
		MIMEType:     "application/json",
		Extension:    ".json",
		Description:  "JSON document",
		Progressions: true,
	},
	FormatYAML: {
		Name:         FormatYAML,
		MIMEType:     "application/yaml",
		Extension:    ".yaml",
		Description:  "YAML document",
		Progressions: true,
	},
	FormatDOT: {
		Name:        FormatDOT,
		MIMEType:    "text/vnd.graphviz",
		Extension:   ".dot",
		Description: "Graphviz DOT, one undirected edge per key pair",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := FormatRegistry[f]; !ok {
		return "", fmt.Errorf("unknown format %q (supported: %s)", s, strings.Join(FormatNames(), ", "))
	}
	return f, nil
}

// FormatNames returns the supported format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// WriteGraph renders g in the given format.
func WriteGraph(w io.Writer, g *graph.Graph, format Format) error {
	switch format {
	case FormatText:
		return WriteGraphText(w, g)
	case FormatJSON:
		return writeJSON(w, NewGraphDocument(g))
	case FormatYAML:
		return writeYAML(w, NewGraphDocument(g))
	case FormatDOT:
		return WriteGraphDOT(w, g)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteProgression renders p in the given format.
func WriteProgression(w io.Writer, p *modulation.Progression, format Format) error {
	switch format {
	case FormatText:
		return WriteProgressionText(w, p)
	case FormatJSON:
		return writeJSON(w, NewProgressionDocument(p))
	case FormatYAML:
		return writeYAML(w, NewProgressionDocument(p))
	default:
		return fmt.Errorf("format %q does not support progressions", format)
	}
}
