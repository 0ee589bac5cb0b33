package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/contacts"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/objects"
	"github.com/talgya/mini-colony/internal/pheromone"
	"github.com/talgya/mini-colony/internal/world"
)

// Options controls how Setup builds a simulation from a level.
type Options struct {
	Pheromones      pheromone.Params
	Move            agents.MoveParams
	Spawn           agents.SpawnConfig
	Workers         int   // Worker ants spawned at start
	Zombants        int   // Zombants spawned at start
	Seed            int64 // Drives spawning and random turns
	ParallelWorkers int   // Goroutines for node passes, 0 = GOMAXPROCS
	MaxEvents       int
}

// DefaultOptions returns the stock setup.
func DefaultOptions() Options {
	return Options{
		Pheromones: pheromone.DefaultParams(),
		Move:       agents.DefaultMoveParams(),
		Spawn:      agents.DefaultSpawnConfig(),
		Workers:    40,
		Zombants:   8,
		MaxEvents:  DefaultMaxEvents,
	}
}

// Setup builds the navigation graph, pheromone field, objects and ants of
// level and returns a simulation ready to step.
func Setup(level *world.Level, opts Options) (*Simulation, error) {
	if level == nil || level.Grid == nil {
		return nil, fmt.Errorf("setup: no level")
	}
	if level.Grid.TileSize() != opts.Move.TileSize {
		return nil, fmt.Errorf("setup: level tile size %v does not match movement tile size %v",
			level.Grid.TileSize(), opts.Move.TileSize)
	}

	g, err := navmesh.Build(level.Grid)
	if err != nil {
		return nil, fmt.Errorf("build navmesh: %w", err)
	}

	field, err := pheromone.NewField(g, opts.Pheromones, pheromone.WithWorkers(opts.ParallelWorkers))
	if err != nil {
		return nil, fmt.Errorf("pheromone field: %w", err)
	}

	reg := objects.NewRegistry(field)
	for _, pl := range level.Objects {
		id, ok := g.LUT().Node(pl.Coord)
		if !ok {
			return nil, fmt.Errorf("%s at %v: tile is not open", pl.Kind, pl.Coord)
		}
		obj := objects.Object{
			Node:          id,
			Channel:       channelFor(pl.Kind),
			Concentration: pl.Concentration,
		}
		if !pl.Infinite {
			obj.Quantity = objects.Finite(pl.Quantity)
		}
		if err := reg.Add(obj); err != nil {
			return nil, fmt.Errorf("%s at %v: %w", pl.Kind, pl.Coord, err)
		}
	}

	det := contacts.NewDetector(g, opts.Move, level.Hazards, opts.ParallelWorkers)
	sim := NewSimulation(g, field, reg, det, opts.Move, opts.Seed)
	if opts.MaxEvents > 0 {
		sim.SetMaxEvents(opts.MaxEvents)
	}

	sp := agents.NewSpawner(opts.Seed, opts.Spawn, opts.Move)
	workers, err := sp.SpawnRandom(agents.KindWorker, opts.Workers, g)
	if err != nil {
		return nil, err
	}
	zombants, err := sp.SpawnRandom(agents.KindZombant, opts.Zombants, g)
	if err != nil {
		return nil, err
	}
	sim.AddAnts(workers...)
	sim.AddAnts(zombants...)

	if len(level.QueenSpawns) > 0 {
		c := level.QueenSpawns[0]
		id, ok := g.LUT().Node(c)
		if !ok {
			return nil, fmt.Errorf("queen at %v: tile is not open", c)
		}
		queen, err := sp.Spawn(agents.KindQueen, g, id)
		if err != nil {
			return nil, err
		}
		sim.AddAnts(queen)
	}
	sim.Spawner = sp

	field.ApplySources()
	field.ComputeGradients()

	st := g.Stats()
	slog.Info("colony ready",
		"nodes", st.Nodes(),
		"background", st.Background,
		"edges", st.Edges(),
		"objects", reg.Len(),
		"workers", len(workers),
		"zombants", len(zombants),
		"queen", len(level.QueenSpawns) > 0,
	)
	return sim, nil
}

func channelFor(k world.ObjectKind) pheromone.Channel {
	if k == world.ObjectStorage {
		return pheromone.Storage
	}
	return pheromone.Food
}
