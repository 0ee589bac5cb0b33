package pheromone

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// SetSource sets the fixed value of ch at node id, creating the source if
// needed. Setting the last non-zero channel to zero removes the source.
func (f *Field) SetSource(id navmesh.NodeID, ch Channel, v float32) error {
	return f.editSource(id, ch, func(s *[K]float32) { s[ch] = mathx.Sanitize(v) })
}

// AddSource raises the fixed value of ch at node id.
func (f *Field) AddSource(id navmesh.NodeID, ch Channel, v float32) error {
	return f.editSource(id, ch, func(s *[K]float32) { s[ch] = mathx.Sanitize(s[ch] + mathx.Sanitize(v)) })
}

// SubSource lowers the fixed value of ch at node id, flooring at zero.
func (f *Field) SubSource(id navmesh.NodeID, ch Channel, v float32) error {
	return f.editSource(id, ch, func(s *[K]float32) { s[ch] = mathx.Sanitize(s[ch] - mathx.Sanitize(v)) })
}

// ClearSource zeroes ch at node id.
func (f *Field) ClearSource(id navmesh.NodeID, ch Channel) error {
	return f.editSource(id, ch, func(s *[K]float32) { s[ch] = 0 })
}

// RemoveSource drops every channel of the source at node id.
func (f *Field) RemoveSource(id navmesh.NodeID) error {
	return f.editSource(id, 0, func(s *[K]float32) { *s = [K]float32{} })
}

func (f *Field) editSource(id navmesh.NodeID, ch Channel, edit func(*[K]float32)) error {
	if f == nil {
		return fmt.Errorf("pheromone: source on nil field")
	}
	if int(ch) >= K {
		return fmt.Errorf("pheromone: unknown channel %d", ch)
	}
	i, err := f.graph.Index(id)
	if err != nil {
		return err
	}
	s := f.source[i]
	edit(&s)
	f.source[i] = s
	f.hasSource[i] = s != [K]float32{}
	return nil
}

// Source returns the fixed values at node id, if it carries a source.
func (f *Field) Source(id navmesh.NodeID) ([K]float32, bool) {
	if f == nil {
		return [K]float32{}, false
	}
	i, err := f.graph.Index(id)
	if err != nil || !f.hasSource[i] {
		return [K]float32{}, false
	}
	return f.source[i], true
}

// SourceCount returns how many nodes carry a source.
func (f *Field) SourceCount() int {
	n := 0
	for _, ok := range f.hasSource {
		if ok {
			n++
		}
	}
	return n
}

// ApplySources overwrites the concentrations of every source node with its
// fixed values. Run after diffusion: neighbors see a source's previous
// value during the scatter.
func (f *Field) ApplySources() {
	for i, ok := range f.hasSource {
		if !ok {
			continue
		}
		for ch := range f.conc {
			f.conc[ch][i] = f.source[i][ch]
		}
	}
}
