// Ant spawning: places workers, zombants and the queen on navigation
// nodes with a little variety in speed and heading.
package agents

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/talgya/mini-colony/internal/entropy"
	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// SpawnConfig controls the speeds of new ants.
type SpawnConfig struct {
	WorkerSpeed  float32 `yaml:"worker_speed" toml:"worker_speed" json:"worker_speed"`
	ZombantSpeed float32 `yaml:"zombant_speed" toml:"zombant_speed" json:"zombant_speed"`
	QueenSpeed   float32 `yaml:"queen_speed" toml:"queen_speed" json:"queen_speed"`
	SpeedJitter  float32 `yaml:"speed_jitter" toml:"speed_jitter" json:"speed_jitter"` // Fraction either way
}

// DefaultSpawnConfig returns the speeds used by the shipped levels.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{WorkerSpeed: 24, ZombantSpeed: 18, QueenSpeed: 40, SpeedJitter: 0.1}
}

// Spawner creates ants for the simulation.
type Spawner struct {
	rng    *rand.Rand
	cfg    SpawnConfig
	move   MoveParams
	nextID AntID
}

// NewSpawner creates a spawner with the given seed.
func NewSpawner(seed int64, cfg SpawnConfig, move MoveParams) *Spawner {
	return &Spawner{
		rng:    entropy.NewRand(seed, entropy.StreamSpawn),
		cfg:    cfg,
		move:   move,
		nextID: 1,
	}
}

// SetNextID sets the next ant ID to be issued.
func (s *Spawner) SetNextID(id AntID) {
	s.nextID = id
}

// Spawn creates one ant of kind on node id.
func (s *Spawner) Spawn(kind Kind, g *navmesh.Graph, id navmesh.NodeID) (*Ant, error) {
	a := &Ant{
		Kind:      kind,
		Direction: s.heading(),
		Alive:     true,
	}
	switch kind {
	case KindWorker:
		a.Speed = s.jitter(s.cfg.WorkerSpeed)
		a.Goal.Job = JobFood
	case KindZombant:
		a.Speed = s.jitter(s.cfg.ZombantSpeed)
		a.Goal.Job = JobThief
	case KindQueen:
		// She keeps to her own scent, so she roams around her chamber.
		a.Speed = s.cfg.QueenSpeed
		a.Goal.Job = JobOffering
	default:
		return nil, fmt.Errorf("spawn: unknown ant kind %d", kind)
	}
	if err := PlaceOnNode(a, g, id, s.move); err != nil {
		return nil, fmt.Errorf("spawn %s on %s: %w", kind, id, err)
	}
	a.ID = s.nextID
	s.nextID++
	return a, nil
}

// SpawnRandom creates count ants of kind on random nodes inside the nest.
// Surface nodes on open ground are skipped.
func (s *Spawner) SpawnRandom(kind Kind, count int, g *navmesh.Graph) ([]*Ant, error) {
	var nodes []int
	g.Each(func(i int, n navmesh.Node) {
		if h, ok := n.(*navmesh.HorizontalEdge); ok && h.IsSurface() {
			return
		}
		nodes = append(nodes, i)
	})
	if len(nodes) == 0 && count > 0 {
		return nil, fmt.Errorf("spawn %s: no nodes", kind)
	}

	ants := make([]*Ant, 0, count)
	for range count {
		a, err := s.Spawn(kind, g, g.ID(nodes[s.rng.Intn(len(nodes))]))
		if err != nil {
			return ants, err
		}
		ants = append(ants, a)
	}
	return ants, nil
}

func (s *Spawner) heading() mathx.Vec3 {
	return mathx.V3(1, 0, 0).RotateZ(s.rng.Float64() * 2 * math.Pi)
}

func (s *Spawner) jitter(speed float32) float32 {
	return speed * (1 + (2*s.rng.Float32()-1)*s.cfg.SpeedJitter)
}
