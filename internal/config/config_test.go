package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/pheromone"
	"github.com/talgya/mini-colony/internal/world"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, pheromone.DefaultParams(), cfg.PheromoneParams())
	assert.Equal(t, engine.DefaultOptions().Move, cfg.Movement)
	assert.Equal(t, float32(40), cfg.Spawn.QueenSpeed)
}

func TestValidateQueenSpeed(t *testing.T) {
	cfg := Default()
	cfg.Spawn.QueenSpeed = 0
	assert.NoError(t, cfg.Validate())
	cfg.Spawn.QueenSpeed = -1
	assert.ErrorContains(t, cfg.Validate(), "queen speed")
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "colony.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 12, cfg.Colony.Workers)
	assert.Equal(t, 3, cfg.Colony.Zombants)
	assert.Equal(t, float32(0.75), cfg.Movement.WallClipping)
	assert.Equal(t, def.Movement.AntWidth, cfg.Movement.AntWidth)
	assert.Equal(t, 2.5, cfg.Engine.Speed)
	assert.Equal(t, def.Engine.TicksPerSecond, cfg.Engine.TicksPerSecond)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "secret", cfg.Server.AdminKey)
	assert.Equal(t, "colony.db", cfg.Database.Path)
	assert.True(t, cfg.Database.Fields)

	p := cfg.PheromoneParams()
	assert.Equal(t, float32(0.2), p.Channels[pheromone.Food].Diffusion)
	assert.Equal(t, def.Pheromones.Food.Evaporation, p.Channels[pheromone.Food].Evaporation)
	assert.Equal(t, def.Pheromones.Storage, p.Channels[pheromone.Storage])
	assert.Equal(t, float32(25), p.ZombqueenSource)
	assert.Equal(t, def.Pheromones.DeadAntDeposit, p.DeadAntDeposit)
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "colony.toml"))
	require.NoError(t, err)

	assert.Equal(t, "levels/cave.txt", cfg.Level)
	assert.Equal(t, 12, cfg.Colony.Workers)
	assert.Equal(t, 4, cfg.Engine.ParallelWorkers)
	assert.Equal(t, float32(0.2), cfg.Pheromones.Food.Diffusion)
	assert.Equal(t, Default().Pheromones.Food.Evaporation, cfg.Pheromones.Food.Evaporation)
	assert.Equal(t, float32(25), cfg.Pheromones.ZombqueenSource)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colony")
	assert.Contains(t, err.Error(), "ticks_per_second")
	assert.Contains(t, err.Error(), "storage")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "colony.ini")
	require.NoError(t, os.WriteFile(path, []byte("seed=1"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colony: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestConversions(t *testing.T) {
	cfg := Default()
	cfg.Seed = 99
	cfg.Colony.Workers = 5
	cfg.Engine.ParallelWorkers = 3

	gen := cfg.GenConfig()
	assert.Equal(t, int64(99), gen.Seed)
	assert.Equal(t, cfg.Movement.TileSize, gen.TileSize)
	assert.Equal(t, world.DefaultGenConfig().Width, gen.Width)

	opts := cfg.Options()
	assert.Equal(t, int64(99), opts.Seed)
	assert.Equal(t, 5, opts.Workers)
	assert.Equal(t, 3, opts.ParallelWorkers)
	assert.Equal(t, cfg.PheromoneParams(), opts.Pheromones)
}

func TestLevelSkipsGeneratorChecks(t *testing.T) {
	cfg := Default()
	cfg.Generate.Width = 0
	assert.Error(t, cfg.Validate())
	cfg.Level = "cave.txt"
	assert.NoError(t, cfg.Validate())
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.Server.AdminKey = "secret"
	r := cfg.Redacted()
	assert.Equal(t, "***", r.Server.AdminKey)
	assert.Empty(t, r.Entropy.RandomOrgKey)
	assert.Equal(t, "secret", cfg.Server.AdminKey)
}

func TestValidateNamesFileKeys(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	cfg.Engine.Speed = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port: must not exceed 65535")
	assert.Contains(t, err.Error(), "engine.speed: must be at least 0")
}
