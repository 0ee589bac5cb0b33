// Command antsim runs the ant colony simulation and serves it over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/mini-colony/internal/api"
	"github.com/talgya/mini-colony/internal/config"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/entropy"
	"github.com/talgya/mini-colony/internal/metrics"
	"github.com/talgya/mini-colony/internal/persistence"
	"github.com/talgya/mini-colony/internal/world"
)

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file")
	levelPath := flag.String("level", "", "text level file (generated when empty)")
	dbPath := flag.String("db", "", "SQLite file to record the run in")
	port := flag.Int("port", -1, "HTTP API port, 0 disables (overrides config)")
	ticks := flag.Uint64("ticks", 0, "stop after this many ticks, 0 = run until signal")
	seed := flag.Int64("seed", 0, "run seed (overrides config)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *levelPath, *dbPath, *port, *ticks, *seed); err != nil {
		slog.Error("antsim failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, levelPath, dbPath string, port int, ticks uint64, seed int64) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		slog.Info("config loaded", "path", configPath)
	}
	if levelPath != "" {
		cfg.Level = levelPath
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if port >= 0 {
		cfg.Server.Port = port
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if key := os.Getenv("RANDOM_ORG_API_KEY"); key != "" {
		cfg.Entropy.RandomOrgKey = key
	}
	if key := os.Getenv("ANTSIM_ADMIN_KEY"); key != "" {
		cfg.Server.AdminKey = key
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	cfg.Seed = entropy.Resolve(ctx, cfg.Seed, entropy.NewClient(cfg.Entropy.RandomOrgKey))
	cancel()

	// ── Level ─────────────────────────────────────────────────────────
	var lvl *world.Level
	var err error
	levelName := "generated"
	if cfg.Level != "" {
		lvl, err = world.LoadLevel(cfg.Level, cfg.Movement.TileSize)
		levelName = filepath.Base(cfg.Level)
	} else {
		lvl, err = world.Generate(cfg.GenConfig())
	}
	if err != nil {
		return err
	}
	slog.Info("level ready", "level", levelName, "width", lvl.Grid.Width(), "height", lvl.Grid.Height(),
		"objects", len(lvl.Objects), "hazards", len(lvl.Hazards))

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.Setup(lvl, cfg.Options())
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	reg.SetGraph(sim.Graph.Stats())

	eng := engine.NewEngine()
	eng.Interval = time.Second / time.Duration(cfg.Engine.TicksPerSecond)
	eng.ReportEvery = uint64(cfg.Engine.ReportEvery)
	eng.MaxTicks = ticks
	if err := eng.SetSpeed(cfg.Engine.Speed); err != nil {
		return err
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	var rec *persistence.Recorder
	if cfg.Database.Path != "" {
		if dir := filepath.Dir(cfg.Database.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = persistence.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err = persistence.NewRecorder(db, cfg.Seed, levelName, cfg.Redacted(), cfg.Database.RecordEvery)
		if err != nil {
			return err
		}
		if cfg.Database.Fields {
			rec.Field = func() persistence.FieldValues { return sim.FieldValues() }
		}
	}

	sim.OnEvent = func(ev engine.Event) {
		slog.Debug("event", "tick", ev.Tick, "category", ev.Category, "description", ev.Description)
		if rec != nil {
			rec.Queue(ev)
		}
	}
	sim.OnWin = func(tick uint64) {
		slog.Info("the queen is dead", "tick", tick, "sim_time", engine.SimTime(tick))
		eng.Stop()
	}

	eng.OnTick = func(tick uint64, dt float64) {
		start := time.Now()
		sim.Step(tick, dt)
		st := sim.Stats()
		reg.ObserveTick(time.Since(start), st)
		if rec != nil {
			if err := rec.Tick(tick, st); err != nil {
				slog.Error("record failed", "tick", tick, "error", err)
			}
		}
	}
	eng.OnReport = func(tick uint64) {
		st := sim.Stats()
		slog.Info("colony report",
			"tick", tick,
			"sim_time", engine.SimTime(tick),
			"workers", st.Workers,
			"zombants", st.Zombants,
			"queen_alive", st.QueenAlive,
			"hoard", st.Hoard,
			"deaths", st.Deaths,
			"removed", st.Removed,
		)
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var srv *api.Server
	if cfg.Server.Port > 0 {
		if cfg.Server.AdminKey == "" {
			slog.Warn("no admin key set, admin POST endpoints disabled")
		}
		srv = &api.Server{
			Sim:            sim,
			Eng:            eng,
			DB:             db,
			Metrics:        reg,
			Port:           cfg.Server.Port,
			AdminKey:       cfg.Server.AdminKey,
			StreamInterval: time.Duration(cfg.Server.StreamInterval) * time.Millisecond,
		}
		if rec != nil {
			srv.RunID = rec.RunID()
		}
		srv.Start()
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nColony is alive: %d ants on %d navigation nodes (seed %d).\n",
		len(sim.Ants), sim.Graph.Len(), cfg.Seed)
	if srv != nil {
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Server.Port)
	}
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	tick := sim.CurrentTick()
	st := sim.Stats()
	if rec != nil {
		if err := rec.Finish(tick, st, sim.Won()); err != nil {
			slog.Error("final record failed", "error", err)
		}
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
	}

	fmt.Printf("Simulation stopped at %s: %d workers, %d zombants, queen alive %v.\n",
		engine.SimTime(tick), st.Workers, st.Zombants, st.QueenAlive)
	return nil
}
