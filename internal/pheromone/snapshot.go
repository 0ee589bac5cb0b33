package pheromone

import (
	"github.com/talgya/mini-colony/internal/mathx"
)

// NodeState is a read-only copy of one node's pheromone state.
type NodeState struct {
	Index          int           `json:"index"`
	Pos            mathx.Vec3    `json:"pos"`
	Concentrations [K]float32    `json:"concentrations"`
	Gradients      [K]mathx.Vec3 `json:"gradients"`
	Source         *[K]float32   `json:"source,omitempty"`
}

// Snapshot copies the state of every node for inspection.
func (f *Field) Snapshot() []NodeState {
	if f == nil {
		return nil
	}
	out := make([]NodeState, f.n)
	for i := range out {
		out[i] = f.NodeState(i)
	}
	return out
}

// NodeState copies the state of node index i.
func (f *Field) NodeState(i int) NodeState {
	st := NodeState{Index: i}
	if !f.ok(i, 0) {
		return st
	}
	st.Pos = f.graph.PosAt(i)
	for ch := range st.Concentrations {
		st.Concentrations[ch] = f.conc[ch][i]
		st.Gradients[ch] = f.grad[ch][i]
	}
	if f.hasSource[i] {
		s := f.source[i]
		st.Source = &s
	}
	return st
}

// Totals sums every channel over the field.
func (f *Field) Totals() [K]float64 {
	var out [K]float64
	for _, ch := range Channels {
		out[ch] = f.Total(ch)
	}
	return out
}
