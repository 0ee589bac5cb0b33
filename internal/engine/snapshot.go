package engine

import (
	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/objects"
	"github.com/talgya/mini-colony/internal/pheromone"
)

// AntView is a read-only copy of one ant.
type AntView struct {
	ID        agents.AntID `json:"id"`
	Kind      string       `json:"kind"`
	Position  string       `json:"position"`
	Pos       mathx.Vec3   `json:"pos"`
	Direction mathx.Vec3   `json:"direction"`
	Speed     float32      `json:"speed"`
	Node      int          `json:"node"` // -1 when detached
	Job       agents.Job   `json:"job"`
	Holds     float32      `json:"holds"`
	Hoard     float32      `json:"hoard,omitempty"`
}

// Snapshot is a consistent copy of the colony taken between ticks.
type Snapshot struct {
	Tick    uint64           `json:"tick"`
	Time    float64          `json:"time"`
	Won     bool             `json:"won"`
	Ants    []AntView        `json:"ants"`
	Queen   *AntView         `json:"queen,omitempty"`
	Corpses []agents.Corpse  `json:"corpses"`
	Objects []objects.Object `json:"objects"`
	Stats   SimStats         `json:"stats"`
}

// Snapshot copies the current state for inspection.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tick:    s.LastTick,
		Time:    s.Time,
		Won:     s.won,
		Ants:    make([]AntView, 0, len(s.Ants)),
		Corpses: append([]agents.Corpse(nil), s.Corpses...),
		Stats:   s.stats,
	}
	for _, a := range s.Ants {
		snap.Ants = append(snap.Ants, s.view(a))
	}
	if s.Queen != nil && s.Queen.Alive {
		q := s.view(s.Queen)
		snap.Queen = &q
	}
	if s.Objects != nil {
		snap.Objects = s.Objects.All()
	}
	snap.Stats.ChannelTotals = make(map[string]float64, len(s.stats.ChannelTotals))
	for k, v := range s.stats.ChannelTotals {
		snap.Stats.ChannelTotals[k] = v
	}
	return snap
}

func (s *Simulation) view(a *agents.Ant) AntView {
	v := AntView{
		ID:        a.ID,
		Kind:      a.Kind.String(),
		Pos:       a.Pos,
		Direction: a.Direction,
		Speed:     a.Speed,
		Node:      -1,
		Job:       a.Goal.Job,
		Holds:     a.Goal.Holds,
		Hoard:     a.Hoard,
	}
	if a.Position != nil {
		v.Position = a.Position.String()
	}
	if i, err := s.Graph.Index(a.CurrentNode); err == nil {
		v.Node = i
	}
	return v
}

// NodeState copies the pheromone state of node index i between ticks.
func (s *Simulation) NodeState(i int) (pheromone.NodeState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= s.Field.Len() {
		return pheromone.NodeState{}, false
	}
	return s.Field.NodeState(i), true
}

// ChannelValues copies one channel's concentration at every node.
func (s *Simulation) ChannelValues(ch pheromone.Channel) []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float32, s.Field.Len())
	for i := range out {
		out[i] = s.Field.At(i, ch)
	}
	return out
}

// FieldValues copies every channel in one pass under the read lock.
func (s *Simulation) FieldValues() [pheromone.K][]float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out [pheromone.K][]float32
	n := s.Field.Len()
	for ch := range out {
		out[ch] = make([]float32, n)
		for i := range n {
			out[ch][i] = s.Field.At(i, pheromone.Channel(ch))
		}
	}
	return out
}
