// Simulation ties together all colony systems and runs them each tick.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/entropy"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/objects"
	"github.com/talgya/mini-colony/internal/pheromone"
)

// ErrNoQueen is returned when there is no living queen to slay.
var ErrNoQueen = errors.New("engine: no living queen")

// DefaultMaxEvents bounds the recent-event ring.
const DefaultMaxEvents = 1000

// ContactSource reports what each ant touches. It plays the part of the
// physics engine and is supplied from outside.
type ContactSource interface {
	// Detect returns the touched nodes of each ant, index-aligned.
	Detect(ants []*agents.Ant) [][]navmesh.NodeID
	InHazard(a *agents.Ant) bool
}

// Simulation holds the complete colony state and wires systems together.
// Step mutates it under a write lock; readers use Snapshot and the other
// accessors, which take the read lock.
type Simulation struct {
	mu sync.RWMutex

	Graph    *navmesh.Graph
	Field    *pheromone.Field
	Objects  *objects.Registry
	Contacts ContactSource // nil means no ant ever touches anything
	Move     agents.MoveParams
	Spawner  *agents.Spawner

	Ants    []*agents.Ant // Living workers and zombants
	Queen   *agents.Ant
	Corpses []agents.Corpse

	LastTick uint64  // Most recent tick processed
	Time     float64 // Simulated seconds

	// Hooks run with the simulation locked. They must not call back in.
	OnEvent func(Event)
	OnWin   func(tick uint64)

	stats     SimStats
	rng       *rand.Rand
	events    []Event
	maxEvents int
	hadQueen  bool
	won       bool
}

// Event is a notable occurrence in the colony.
type Event struct {
	Tick        uint64         `json:"tick"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "death", "removed", "offering", "exhausted", "win"
	Meta        map[string]any `json:"meta,omitempty"`
}

// SimStats tracks aggregate colony statistics. Counters accumulate over
// the run; the rest describe the latest tick.
type SimStats struct {
	Workers    int     `json:"workers"`
	Zombants   int     `json:"zombants"`
	QueenAlive bool    `json:"queen_alive"`
	Corpses    int     `json:"corpses"`
	Hoard      float32 `json:"hoard"`
	Stored     float32 `json:"stored"`
	Food       float32 `json:"food"`

	Deaths     int `json:"deaths"`
	Removed    int `json:"removed"`
	Harvests   int `json:"harvests"`
	Deliveries int `json:"deliveries"`
	Thefts     int `json:"thefts"`
	Offerings  int `json:"offerings"`

	ChannelTotals map[string]float64 `json:"channel_totals"`
}

// NewSimulation creates a Simulation over an already built graph, field
// and object registry. seed drives the ants' random turns.
func NewSimulation(g *navmesh.Graph, f *pheromone.Field, objs *objects.Registry, contacts ContactSource, move agents.MoveParams, seed int64) *Simulation {
	s := &Simulation{
		Graph:     g,
		Field:     f,
		Objects:   objs,
		Contacts:  contacts,
		Move:      move,
		rng:       entropy.NewRand(seed, entropy.StreamTurns),
		maxEvents: DefaultMaxEvents,
	}
	s.updateStats()
	return s
}

// SetMaxEvents changes the size of the recent-event ring.
func (s *Simulation) SetMaxEvents(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxEvents = max(n, 1)
}

// AddAnts puts spawned ants into the simulation. A queen replaces any
// previous one.
func (s *Simulation) AddAnts(ants ...*agents.Ant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range ants {
		if a.Kind == agents.KindQueen {
			s.Queen = a
			s.hadQueen = true
			continue
		}
		s.Ants = append(s.Ants, a)
	}
	s.updateStats()
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// Step advances the colony by dt simulated seconds: steering, movement,
// contacts and wall transitions, goals, pheromone deposits, then the
// pheromone field. The queen moves with the others. A failure with one ant
// removes that ant only.
func (s *Simulation) Step(tick uint64, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastTick = tick
	s.Time += dt

	movers := s.Ants
	if q := s.Queen; q != nil && q.Alive {
		movers = append(s.Ants[:len(s.Ants):len(s.Ants)], q)
	}

	lut := s.Graph.LUT()
	for _, a := range movers {
		grad := s.Field.Gradient(a.CurrentNode, a.Goal.Job.Follows())
		agents.UpdateDirection(a, grad, s.Time, s.rng, s.Move)
		agents.Integrate(a, dt, lut, s.Move)
	}

	var touched [][]navmesh.NodeID
	if s.Contacts != nil {
		touched = s.Contacts.Detect(movers)
	}
	for i, a := range movers {
		if s.Contacts != nil && s.Contacts.InHazard(a) {
			s.kill(a, "hazard")
			continue
		}
		var contacts []navmesh.NodeID
		if i < len(touched) {
			contacts = touched[i]
		}
		if err := agents.UpdatePositionKind(a, contacts, s.Graph, s.Move); err != nil {
			if a == s.Queen {
				s.resettle(a, err)
			} else {
				s.remove(a, err)
			}
			continue
		}
		if a != s.Queen {
			s.reachGoal(a)
		}
	}

	s.deposit()
	s.compact()
	s.Field.Step()

	if s.hadQueen && (s.Queen == nil || !s.Queen.Alive) {
		s.win()
	}
	s.updateStats()
}

// resettle puts the queen back on the node she was attached to after a
// missed collision. Removing her would end the level.
func (s *Simulation) resettle(q *agents.Ant, err error) {
	slog.Warn("queen resettled", "ant", q.ID, "node", q.CurrentNode, "position", q.Position, "error", err)
	if perr := agents.PlaceOnNode(q, s.Graph, q.CurrentNode, s.Move); perr != nil {
		s.remove(q, errors.Join(err, perr))
	}
}

func (s *Simulation) reachGoal(a *agents.Ant) {
	_, err := s.Objects.Reach(a.CurrentNode, func(o *objects.Object) {
		job := a.Goal.Job
		if !agents.ReachedObject(a, o) {
			return
		}
		switch job {
		case agents.JobFood:
			s.stats.Harvests++
			if o.Exhausted() {
				s.emit(Event{
					Tick:        s.LastTick,
					Description: fmt.Sprintf("food at node %d is exhausted", o.Index),
					Category:    "exhausted",
					Meta:        map[string]any{"node": o.Index},
				})
			}
		case agents.JobStorage:
			s.stats.Deliveries++
		case agents.JobThief:
			s.stats.Thefts++
		}
	})
	if err != nil {
		slog.Warn("object exchange failed", "ant", a.ID, "node", a.CurrentNode, "error", err)
	}

	q := s.Queen
	if q == nil || !q.Alive || a.Kind != agents.KindZombant || a.CurrentNode != q.CurrentNode {
		return
	}
	holds := a.Goal.Holds
	if agents.ReachedQueen(a, q) {
		s.stats.Offerings++
		s.emit(Event{
			Tick:        s.LastTick,
			Description: fmt.Sprintf("zombant %d offered %.0f to the queen", a.ID, holds),
			Category:    "offering",
			Meta:        map[string]any{"ant_id": a.ID, "amount": holds, "hoard": q.Hoard},
		})
	}
}

// deposit marks the field under every corpse, zombant and the queen.
func (s *Simulation) deposit() {
	p := s.Field.Params()
	lut := s.Graph.LUT()
	for _, c := range s.Corpses {
		node := c.Node
		if id, ok := lut.Lookup(c.Pos); ok {
			node = id
		}
		s.depositAt(node, pheromone.DeadAnt, p.DeadAntDeposit)
	}
	for _, a := range s.Ants {
		if a.Alive && a.Kind == agents.KindZombant {
			s.depositAt(a.CurrentNode, pheromone.Zombant, p.ZombantDeposit)
		}
	}
	if s.Queen != nil && s.Queen.Alive {
		s.depositAt(s.Queen.CurrentNode, pheromone.Zombqueen, p.ZombqueenSource)
	}
}

func (s *Simulation) depositAt(node navmesh.NodeID, ch pheromone.Channel, amount float32) {
	if err := s.Field.Deposit(node, ch, amount); err != nil {
		slog.Debug("deposit skipped", "channel", ch, "node", node, "error", err)
	}
}

func (s *Simulation) kill(a *agents.Ant, cause string) {
	s.Corpses = append(s.Corpses, a.Kill())
	s.stats.Deaths++
	s.emit(Event{
		Tick:        s.LastTick,
		Description: fmt.Sprintf("%s %d died (%s)", a.Kind, a.ID, cause),
		Category:    "death",
		Meta:        map[string]any{"ant_id": a.ID, "kind": a.Kind.String(), "cause": cause},
	})
}

func (s *Simulation) remove(a *agents.Ant, err error) {
	a.Alive = false
	s.stats.Removed++
	slog.Warn("ant removed", "ant", a.ID, "node", a.CurrentNode, "position", a.Position, "error", err)
	s.emit(Event{
		Tick:        s.LastTick,
		Description: fmt.Sprintf("%s %d removed: %v", a.Kind, a.ID, err),
		Category:    "removed",
		Meta:        map[string]any{"ant_id": a.ID, "missed_collision": errors.Is(err, agents.ErrMissedCollision)},
	})
}

func (s *Simulation) compact() {
	alive := s.Ants[:0]
	for _, a := range s.Ants {
		if a.Alive {
			alive = append(alive, a)
		}
	}
	clear(s.Ants[len(alive):])
	s.Ants = alive
}

// SlayQueen kills the queen, which wins the level.
func (s *Simulation) SlayQueen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Queen == nil || !s.Queen.Alive {
		return ErrNoQueen
	}
	s.kill(s.Queen, "slain")
	s.win()
	s.updateStats()
	return nil
}

// win raises the win signal once.
func (s *Simulation) win() {
	if s.won {
		return
	}
	s.won = true
	slog.Info("queen is dead, colony wins", "tick", s.LastTick)
	s.emit(Event{
		Tick:        s.LastTick,
		Description: "the zombant queen is dead",
		Category:    "win",
	})
	if s.OnWin != nil {
		s.OnWin(s.LastTick)
	}
}

// Won reports whether the queen has been slain.
func (s *Simulation) Won() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.won
}

func (s *Simulation) emit(ev Event) {
	s.events = append(s.events, ev)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}

// RecentEvents returns up to n of the latest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || n > len(s.events) {
		n = len(s.events)
	}
	return append([]Event(nil), s.events[len(s.events)-n:]...)
}

// Stats returns the latest statistics.
func (s *Simulation) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.ChannelTotals = make(map[string]float64, len(s.stats.ChannelTotals))
	for k, v := range s.stats.ChannelTotals {
		st.ChannelTotals[k] = v
	}
	return st
}

func (s *Simulation) updateStats() {
	st := &s.stats
	st.Workers, st.Zombants = 0, 0
	for _, a := range s.Ants {
		switch a.Kind {
		case agents.KindWorker:
			st.Workers++
		case agents.KindZombant:
			st.Zombants++
		}
	}
	st.QueenAlive = s.Queen != nil && s.Queen.Alive
	st.Hoard = 0
	if s.Queen != nil {
		st.Hoard = s.Queen.Hoard
	}
	st.Corpses = len(s.Corpses)

	if s.Objects != nil {
		totals := s.Objects.Totals()
		st.Stored = totals[pheromone.Storage]
		st.Food = totals[pheromone.Food]
	}
	if st.ChannelTotals == nil {
		st.ChannelTotals = make(map[string]float64, pheromone.K)
	}
	if s.Field != nil {
		for ch, v := range s.Field.Totals() {
			st.ChannelTotals[pheromone.Channel(ch).String()] = v
		}
	}
}
