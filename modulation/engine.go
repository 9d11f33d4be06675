// Package modulation finds chord progressions that modulate from one key to
// another over the key graph.
//
// An Engine is built once with New and then answers any number of
// FindChordPath queries. The engine is immutable after New returns and is
// safe for concurrent use, provided the configured RandomSource is.
package modulation

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/c360studio/modulator/chord"
	"github.com/c360studio/modulator/graph"
	"github.com/c360studio/modulator/theory"
)

// RandomSource chooses between the dominant and diminished seventh in major
// cadences. *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource serialises access to a seeded generator.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a reproducible RandomSource that is safe for
// concurrent use.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	palette []theory.Pitch
	oracle  theory.Oracle
	random  RandomSource
	logger  *slog.Logger
}

// WithPalette replaces the default 17-spelling palette.
func WithPalette(palette []theory.Pitch) Option {
	return func(o *options) { o.palette = palette }
}

// WithOracle replaces the built-in diatonic scale speller.
func WithOracle(oracle theory.Oracle) Option {
	return func(o *options) { o.oracle = oracle }
}

// WithRandom sets the source used for major-cadence seventh selection.
func WithRandom(r RandomSource) Option {
	return func(o *options) { o.random = r }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Engine holds the chord table and key graph and answers path queries.
type Engine struct {
	table  *chord.Table
	graph  *graph.Graph
	random RandomSource
	logger *slog.Logger
}

// New builds the chord table and key graph. Any construction error is fatal:
// no engine is returned over a partial table.
func New(opts ...Option) (*Engine, error) {
	o := options{
		palette: theory.DefaultPalette(),
		oracle:  theory.DiatonicOracle{},
		random:  globalSource{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if len(o.palette) == 0 {
		return nil, fmt.Errorf("build engine: empty palette")
	}

	table, err := chord.BuildTable(o.palette, o.oracle)
	if err != nil {
		return nil, fmt.Errorf("build chord table: %w", err)
	}

	g, err := graph.Build(table)
	if err != nil {
		return nil, fmt.Errorf("build key graph: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("build key graph: %w", err)
	}

	o.logger.Debug("Key graph built",
		"nodes", g.Len(),
		"edges", g.EdgeCount(),
		"fingerprint", g.Fingerprint())

	return &Engine{
		table:  table,
		graph:  g,
		random: o.random,
		logger: o.logger,
	}, nil
}

// Graph returns the key graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Table returns the chord table.
func (e *Engine) Table() *chord.Table {
	return e.table
}

// Keys returns every key the engine knows, in construction order.
func (e *Engine) Keys() []theory.Key {
	return e.graph.Keys()
}
