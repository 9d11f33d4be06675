package modulation

import (
	"context"
	"fmt"
	"slices"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/theory"
)

// Progression is a playable chord sequence that modulates from Start to
// Destination. Route lists the keys visited, Start first.
type Progression struct {
	Start       theory.Key    `json:"start"`
	Destination theory.Key    `json:"destination"`
	Route       []theory.Key  `json:"route"`
	Chords      []chord.Chord `json:"chords"`
}

// Hops returns the number of key changes, which equals the number of pivot
// chords in the progression.
func (p *Progression) Hops() int {
	return len(p.Route) - 1
}

// FindChordPath returns a minimum-hop modulation from start to dest.
//
// The progression opens on the start tonic, moves through one pivot chord per
// key change, and closes with the destination cadence (seventh chord, then
// tonic). Every intermediate key also gets its cadence, placed after the pivot
// that enters it.
//
// Errors: ErrUnknownKey when either key is outside the palette, ErrUnreachable
// when no path exists. A partial progression is never returned.
func (e *Engine) FindChordPath(ctx context.Context, start, dest theory.Key) (*Progression, error) {
	startNode, err := e.graph.Node(start)
	if err != nil {
		return nil, fmt.Errorf("start key: %w", err)
	}
	if _, err := e.graph.Node(dest); err != nil {
		return nil, fmt.Errorf("destination key: %w", err)
	}

	parents, err := e.search(ctx, startNode, dest)
	if err != nil {
		return nil, err
	}

	p, err := e.assemble(start, dest, parents)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Chord path found",
		"start", start.String(),
		"destination", dest.String(),
		"hops", p.Hops(),
		"chords", len(p.Chords))
	return p, nil
}

// Distance returns the hop distance between two keys.
func (e *Engine) Distance(ctx context.Context, start, dest theory.Key) (int, error) {
	startNode, err := e.graph.Node(start)
	if err != nil {
		return 0, fmt.Errorf("start key: %w", err)
	}
	if _, err := e.graph.Node(dest); err != nil {
		return 0, fmt.Errorf("destination key: %w", err)
	}

	parents, err := e.search(ctx, startNode, dest)
	if err != nil {
		return 0, err
	}

	hops := 0
	for n := parents[dest]; n != nil; n = parents[n.Key] {
		hops++
	}
	return hops, nil
}

// search runs a breadth-first search from start and returns the parent of
// every discovered node (nil for start). Nodes are dequeued in arrival order
// and the first discovery of a node fixes its parent.
func (e *Engine) search(ctx context.Context, start *graph.Node, dest theory.Key) (map[theory.Key]*graph.Node, error) {
	parents := map[theory.Key]*graph.Node{start.Key: nil}
	queue := []*graph.Node{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("search %s -> %s: %w", start.Key, dest, err)
		}

		current := queue[0]
		queue = queue[1:]

		if current.Key == dest {
			return parents, nil
		}

		for _, edge := range current.Edges() {
			if _, seen := parents[edge.To]; seen {
				continue
			}
			next, err := e.graph.Node(edge.To)
			if err != nil {
				return nil, err
			}
			parents[edge.To] = current
			queue = append(queue, next)
		}
	}

	return nil, fmt.Errorf("%w: %s -> %s", ErrUnreachable, start.Key, dest)
}

// assemble walks the parent chain from dest back to start, collecting chords
// in reverse, then flips them into playing order.
func (e *Engine) assemble(start, dest theory.Key, parents map[theory.Key]*graph.Node) (*Progression, error) {
	chords, err := e.cadence(dest)
	if err != nil {
		return nil, err
	}
	route := []theory.Key{dest}

	for current := dest; current != start; {
		parent := parents[current]
		if parent == nil {
			return nil, fmt.Errorf("assemble %s -> %s: broken parent chain at %s", start, dest, current)
		}
		pivot, ok := parent.Pivot(current)
		if !ok {
			return nil, fmt.Errorf("assemble %s -> %s: no edge %s -> %s", start, dest, parent.Key, current)
		}

		// The start key only contributes its bare tonic.
		if parent.Key != start {
			cadence, err := e.cadence(parent.Key)
			if err != nil {
				return nil, err
			}
			chords = append(chords, cadence...)
		}
		chords = append(chords, slices.Clone(pivot))
		route = append(route, parent.Key)
		current = parent.Key
	}

	tonic, ok := e.table.Tonic(start)
	if !ok {
		return nil, fmt.Errorf("assemble: no tonic for %s", start)
	}
	chords = append(chords, tonic)

	slices.Reverse(chords)
	slices.Reverse(route)

	return &Progression{
		Start:       start,
		Destination: dest,
		Route:       route,
		Chords:      chords,
	}, nil
}

// cadence returns the tonic triad followed by a seventh chord, in reverse
// playing order. Minor keys always take the leading-tone diminished seventh;
// major keys pick the dominant or the diminished seventh at random.
func (e *Engine) cadence(key theory.Key) ([]chord.Chord, error) {
	tonic, ok := e.table.Tonic(key)
	if !ok {
		return nil, fmt.Errorf("cadence: no tonic for %s", key)
	}

	seventh, ok := e.table.DiminishedSeventh(key.Tonic)
	if key.Mode == theory.Major && e.random.IntN(2) == 0 {
		seventh, ok = e.table.DominantSeventh(key.Tonic)
	}
	if !ok {
		return nil, fmt.Errorf("cadence: no seventh chord for %s", key)
	}

	return []chord.Chord{tonic, seventh}, nil
}
