package pheromone

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/parallel"
)

// Field is the pheromone state of every node of one graph.
// Reads are safe on a nil Field and on unknown nodes; they return zero.
type Field struct {
	graph  *navmesh.Graph
	params Params
	n      int

	conc [K][]float32
	buf  [K][]float32 // scatter accumulator, zero between ticks
	grad [K][]mathx.Vec3

	hasSource []bool
	source    [][K]float32

	in    [][]int32 // nodes that scatter into each node
	outN  []float32 // number of present links per node
	share []float32 // per-neighbor share of the channel being diffused

	workers int
}

// Option configures a Field.
type Option func(*Field)

// WithWorkers sets the number of goroutines used by per-node passes.
// Zero means one per CPU.
func WithWorkers(n int) Option {
	return func(f *Field) { f.workers = parallel.Workers(n) }
}

// NewField allocates zeroed state for every node of g.
func NewField(g *navmesh.Graph, p Params, opts ...Option) (*Field, error) {
	if g == nil {
		return nil, fmt.Errorf("pheromone: nil graph")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := g.Len()
	f := &Field{
		graph:     g,
		params:    p,
		n:         n,
		hasSource: make([]bool, n),
		source:    make([][K]float32, n),
		in:        make([][]int32, n),
		outN:      make([]float32, n),
		share:     make([]float32, n),
		workers:   1,
	}
	for ch := range f.conc {
		f.conc[ch] = make([]float32, n)
		f.buf[ch] = make([]float32, n)
		f.grad[ch] = make([]mathx.Vec3, n)
	}
	for i := 0; i < n; i++ {
		links := g.Links(i)
		f.outN[i] = float32(len(links))
		for _, l := range links {
			f.in[l.To] = append(f.in[l.To], int32(i))
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Field) Len() int {
	if f == nil {
		return 0
	}
	return f.n
}

// Params returns the tuning the field was built with.
func (f *Field) Params() Params { return f.params }

// Graph returns the graph the field is laid over.
func (f *Field) Graph() *navmesh.Graph { return f.graph }

func (f *Field) ok(i int, ch Channel) bool {
	return f != nil && i >= 0 && i < f.n && int(ch) < K
}

// At returns the concentration of ch at node index i.
func (f *Field) At(i int, ch Channel) float32 {
	if !f.ok(i, ch) {
		return 0
	}
	return f.conc[ch][i]
}

// Concentration returns the concentration of ch at node id. Unknown or
// stale ids read as zero.
func (f *Field) Concentration(id navmesh.NodeID, ch Channel) float32 {
	if f == nil {
		return 0
	}
	i, err := f.graph.Index(id)
	if err != nil {
		return 0
	}
	return f.At(i, ch)
}

// Concentrations returns every channel at node index i.
func (f *Field) Concentrations(i int) [K]float32 {
	var out [K]float32
	if !f.ok(i, 0) {
		return out
	}
	for ch := range out {
		out[ch] = f.conc[ch][i]
	}
	return out
}

// Set overwrites the concentration of ch at node index i. NaN and
// negative values store as zero.
func (f *Field) Set(i int, ch Channel, v float32) {
	if !f.ok(i, ch) {
		return
	}
	f.conc[ch][i] = mathx.Sanitize(v)
}

// Deposit adds amount of ch at node id.
func (f *Field) Deposit(id navmesh.NodeID, ch Channel, amount float32) error {
	if f == nil {
		return fmt.Errorf("pheromone: deposit on nil field")
	}
	i, err := f.graph.Index(id)
	if err != nil {
		return err
	}
	if int(ch) >= K {
		return fmt.Errorf("pheromone: unknown channel %d", ch)
	}
	f.conc[ch][i] = mathx.Sanitize(f.conc[ch][i] + mathx.Sanitize(amount))
	return nil
}

// Total sums ch over every node.
func (f *Field) Total(ch Channel) float64 {
	if !f.ok(0, ch) {
		return 0
	}
	var sum float64
	for _, v := range f.conc[ch] {
		sum += float64(v)
	}
	return sum
}

// Reset zeroes every concentration, buffer and gradient. Sources stay.
func (f *Field) Reset() {
	for ch := range f.conc {
		clear(f.conc[ch])
		clear(f.buf[ch])
		clear(f.grad[ch])
	}
}
