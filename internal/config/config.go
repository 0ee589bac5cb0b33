// Package config loads the simulation settings from a YAML or TOML file.
// Every field has a default, so a file only needs the values it changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/pheromone"
	"github.com/talgya/mini-colony/internal/world"
)

// validate reads the validate struct tags and reports fields by their
// yaml key.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// ErrUnknownFormat is returned for config files that are neither YAML nor
// TOML.
var ErrUnknownFormat = errors.New("config: unknown file format")

type Config struct {
	Seed       int64              `yaml:"seed" toml:"seed"`             // 0 = derive a fresh seed
	Level      string             `yaml:"level" toml:"level"`           // Text level file, empty = generate
	Generate   Generate           `yaml:"generate" toml:"generate"`
	Colony     Colony             `yaml:"colony" toml:"colony"`
	Movement   agents.MoveParams  `yaml:"movement" toml:"movement"`
	Spawn      agents.SpawnConfig `yaml:"spawn" toml:"spawn"`
	Pheromones Pheromones         `yaml:"pheromones" toml:"pheromones"`
	Engine     Engine             `yaml:"engine" toml:"engine"`
	Server     Server             `yaml:"server" toml:"server"`
	Database   Database           `yaml:"database" toml:"database"`
	Entropy    Entropy            `yaml:"entropy" toml:"entropy"`

	Path string `yaml:"-" toml:"-"`
}

type Generate struct {
	Width           int     `yaml:"width" toml:"width"`
	Height          int     `yaml:"height" toml:"height"`
	SkyRows         int     `yaml:"sky_rows" toml:"sky_rows"`
	SurfaceJitter   int     `yaml:"surface_jitter" toml:"surface_jitter"`
	ShaftDepth      int     `yaml:"shaft_depth" toml:"shaft_depth"`
	TunnelThreshold float64 `yaml:"tunnel_threshold" toml:"tunnel_threshold"`
	MinCave         int     `yaml:"min_cave" toml:"min_cave"`
	FoodPiles       int     `yaml:"food_piles" toml:"food_piles"`
	StoragePiles    int     `yaml:"storage_piles" toml:"storage_piles"`
	Hazards         int     `yaml:"hazards" toml:"hazards"`
	FoodQuantity    float32 `yaml:"food_quantity" toml:"food_quantity"`
	Concentration   float32 `yaml:"concentration" toml:"concentration"`
}

type Colony struct {
	Workers  int `yaml:"workers" toml:"workers" validate:"min=0"`
	Zombants int `yaml:"zombants" toml:"zombants" validate:"min=0"`
}

// Pheromones mirrors pheromone.Params with one named table per channel.
type Pheromones struct {
	Default   pheromone.ChannelParams `yaml:"default" toml:"default"`
	Storage   pheromone.ChannelParams `yaml:"storage" toml:"storage"`
	Food      pheromone.ChannelParams `yaml:"food" toml:"food"`
	Zombqueen pheromone.ChannelParams `yaml:"zombqueen" toml:"zombqueen"`
	Zombant   pheromone.ChannelParams `yaml:"zombant" toml:"zombant"`
	DeadAnt   pheromone.ChannelParams `yaml:"dead_ant" toml:"dead_ant"`

	DeadAntDeposit  float32 `yaml:"dead_ant_deposit" toml:"dead_ant_deposit"`
	ZombantDeposit  float32 `yaml:"zombant_deposit" toml:"zombant_deposit"`
	ZombqueenSource float32 `yaml:"zombqueen_source" toml:"zombqueen_source"`
}

type Engine struct {
	TicksPerSecond  int     `yaml:"ticks_per_second" toml:"ticks_per_second" validate:"gt=0,lte=1000"`
	Speed           float64 `yaml:"speed" toml:"speed" validate:"gte=0,lte=1000"`
	ReportEvery     int     `yaml:"report_every" toml:"report_every" validate:"min=0"` // Ticks between reports
	ParallelWorkers int     `yaml:"parallel_workers" toml:"parallel_workers" validate:"min=0"`
	MaxEvents       int     `yaml:"max_events" toml:"max_events" validate:"min=0"`
}

type Server struct {
	Port           int    `yaml:"port" toml:"port" validate:"min=0,max=65535"` // 0 disables the API
	AdminKey       string `yaml:"admin_key" toml:"admin_key"`
	StreamInterval int    `yaml:"stream_interval_ms" toml:"stream_interval_ms" validate:"min=0"`
}

type Database struct {
	Path        string `yaml:"path" toml:"path"` // Empty disables recording
	RecordEvery int    `yaml:"record_every" toml:"record_every" validate:"min=0"`
	Fields      bool   `yaml:"fields" toml:"fields"` // Store a compressed field snapshot with each stats row
}

type Entropy struct {
	RandomOrgKey string `yaml:"random_org_key" toml:"random_org_key"` // Draw the seed from random.org when set
}

// Default returns the stock configuration.
func Default() Config {
	gen := world.DefaultGenConfig()
	opts := engine.DefaultOptions()
	return Config{
		Generate: Generate{
			Width:           gen.Width,
			Height:          gen.Height,
			SkyRows:         gen.SkyRows,
			SurfaceJitter:   gen.SurfaceJitter,
			ShaftDepth:      gen.ShaftDepth,
			TunnelThreshold: gen.TunnelThreshold,
			MinCave:         gen.MinCave,
			FoodPiles:       gen.FoodPiles,
			StoragePiles:    gen.StoragePiles,
			Hazards:         gen.Hazards,
			FoodQuantity:    gen.FoodQuantity,
			Concentration:   gen.Concentration,
		},
		Colony:     Colony{Workers: opts.Workers, Zombants: opts.Zombants},
		Movement:   opts.Move,
		Spawn:      opts.Spawn,
		Pheromones: FromParams(opts.Pheromones),
		Engine: Engine{
			TicksPerSecond: engine.TicksPerSecond,
			Speed:          1,
			ReportEvery:    engine.TicksPerReport,
			MaxEvents:      engine.DefaultMaxEvents,
		},
		Server:   Server{Port: 8080, StreamInterval: 500},
		Database: Database{RecordEvery: engine.TicksPerReport, Fields: true},
	}
}

// Load reads path over the defaults. The format follows the extension:
// .yaml or .yml for YAML, .toml for TOML.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config file %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return cfg, fmt.Errorf("decode config file %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, e := range verrs {
			errs = append(errs, fieldError(e))
		}
	}
	if err := c.Movement.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("movement: %w", err))
	}
	if err := c.PheromoneParams().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pheromones: %w", err))
	}
	if c.Level == "" {
		if err := c.GenConfig().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("generate: %w", err))
		}
	}
	if c.Spawn.WorkerSpeed <= 0 || c.Spawn.ZombantSpeed <= 0 || c.Spawn.SpeedJitter < 0 || c.Spawn.SpeedJitter >= 1 {
		errs = append(errs, errors.New("spawn: speeds must be positive and jitter in [0, 1)"))
	}
	if c.Spawn.QueenSpeed < 0 {
		errs = append(errs, errors.New("spawn: queen speed must not be negative"))
	}
	return errors.Join(errs...)
}

// fieldError names a failed field by its file key, e.g. engine.speed.
func fieldError(e validator.FieldError) error {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s, got %v", field, e.Param(), e.Value())
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s, got %v", field, e.Param(), e.Value())
	case "gt":
		return fmt.Errorf("%s: must be greater than %s, got %v", field, e.Param(), e.Value())
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}

// FromParams converts solver parameters into their config form.
func FromParams(p pheromone.Params) Pheromones {
	return Pheromones{
		Default:         p.Channels[pheromone.Default],
		Storage:         p.Channels[pheromone.Storage],
		Food:            p.Channels[pheromone.Food],
		Zombqueen:       p.Channels[pheromone.Zombqueen],
		Zombant:         p.Channels[pheromone.Zombant],
		DeadAnt:         p.Channels[pheromone.DeadAnt],
		DeadAntDeposit:  p.DeadAntDeposit,
		ZombantDeposit:  p.ZombantDeposit,
		ZombqueenSource: p.ZombqueenSource,
	}
}

// PheromoneParams returns the solver parameters.
func (c Config) PheromoneParams() pheromone.Params {
	ph := c.Pheromones
	var p pheromone.Params
	p.Channels[pheromone.Default] = ph.Default
	p.Channels[pheromone.Storage] = ph.Storage
	p.Channels[pheromone.Food] = ph.Food
	p.Channels[pheromone.Zombqueen] = ph.Zombqueen
	p.Channels[pheromone.Zombant] = ph.Zombant
	p.Channels[pheromone.DeadAnt] = ph.DeadAnt
	p.DeadAntDeposit = ph.DeadAntDeposit
	p.ZombantDeposit = ph.ZombantDeposit
	p.ZombqueenSource = ph.ZombqueenSource
	return p
}

// GenConfig returns the level generator settings for seed.
func (c Config) GenConfig() world.GenConfig {
	g := c.Generate
	return world.GenConfig{
		Width:           g.Width,
		Height:          g.Height,
		TileSize:        c.Movement.TileSize,
		Seed:            c.Seed,
		SkyRows:         g.SkyRows,
		SurfaceJitter:   g.SurfaceJitter,
		ShaftDepth:      g.ShaftDepth,
		TunnelThreshold: g.TunnelThreshold,
		MinCave:         g.MinCave,
		FoodPiles:       g.FoodPiles,
		StoragePiles:    g.StoragePiles,
		Hazards:         g.Hazards,
		FoodQuantity:    g.FoodQuantity,
		Concentration:   g.Concentration,
	}
}

// Options returns the simulation setup for seed.
func (c Config) Options() engine.Options {
	return engine.Options{
		Pheromones:      c.PheromoneParams(),
		Move:            c.Movement,
		Spawn:           c.Spawn,
		Workers:         c.Colony.Workers,
		Zombants:        c.Colony.Zombants,
		Seed:            c.Seed,
		ParallelWorkers: c.Engine.ParallelWorkers,
		MaxEvents:       c.Engine.MaxEvents,
	}
}

// Redacted returns a copy without credentials, safe to log or store.
func (c Config) Redacted() Config {
	if c.Server.AdminKey != "" {
		c.Server.AdminKey = "***"
	}
	if c.Entropy.RandomOrgKey != "" {
		c.Entropy.RandomOrgKey = "***"
	}
	return c
}
