// Package persistence records colony runs to SQLite: one row per run,
// periodic tick statistics and the event log. It is telemetry only; a
// simulation cannot be restored from it.
package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-colony/internal/engine"
)

// ErrNoRun is returned when recording before StartRun.
var ErrNoRun = errors.New("persistence: no run started")

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
}

// Run is one recorded simulation run.
type Run struct {
	ID        string     `db:"id" json:"id"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	Seed      int64      `db:"seed" json:"seed"`
	Level     string     `db:"level" json:"level"`
	Config    string     `db:"config_json" json:"-"`
	FinalTick uint64     `db:"final_tick" json:"final_tick"`
	Won       bool       `db:"won" json:"won"`
}

// TickStats is one row of the statistics history.
type TickStats struct {
	Tick       uint64  `db:"tick" json:"tick"`
	Workers    int     `db:"workers" json:"workers"`
	Zombants   int     `db:"zombants" json:"zombants"`
	QueenAlive bool    `db:"queen_alive" json:"queen_alive"`
	Corpses    int     `db:"corpses" json:"corpses"`
	Hoard      float32 `db:"hoard" json:"hoard"`
	Stored     float32 `db:"stored" json:"stored"`
	Food       float32 `db:"food" json:"food"`
	Deaths     int     `db:"deaths" json:"deaths"`
	Removed    int     `db:"removed" json:"removed"`
	Channels   string  `db:"channels_json" json:"-"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP,
		seed INTEGER NOT NULL,
		level TEXT NOT NULL,
		config_json TEXT NOT NULL,
		final_tick INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		workers INTEGER NOT NULL,
		zombants INTEGER NOT NULL,
		queen_alive INTEGER NOT NULL,
		corpses INTEGER NOT NULL,
		hoard REAL NOT NULL,
		stored REAL NOT NULL,
		food REAL NOT NULL,
		deaths INTEGER NOT NULL,
		removed INTEGER NOT NULL,
		channels_json TEXT NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS field_snapshots (
		run_id TEXT NOT NULL REFERENCES runs(id),
		tick INTEGER NOT NULL,
		nodes INTEGER NOT NULL,
		data BLOB NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun inserts a run row and returns its id. cfg is stored as JSON.
func (db *DB) StartRun(seed int64, level string, cfg any) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, started_at, seed, level, config_json) VALUES (?, ?, ?, ?, ?)",
		id, time.Now().UTC(), seed, level, string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the end of a run.
func (db *DB) FinishRun(runID string, tick uint64, won bool) error {
	res, err := db.conn.Exec(
		"UPDATE runs SET ended_at = ?, final_tick = ?, won = ? WHERE id = ?",
		time.Now().UTC(), tick, won, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrNoRun)
	}
	return nil
}

// SaveStats writes one statistics row.
func (db *DB) SaveStats(runID string, tick uint64, st engine.SimStats) error {
	channels, err := json.Marshal(st.ChannelTotals)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`INSERT OR REPLACE INTO tick_stats
		(run_id, tick, workers, zombants, queen_alive, corpses, hoard, stored, food,
		 deaths, removed, channels_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, tick, st.Workers, st.Zombants, st.QueenAlive, st.Corpses,
		st.Hoard, st.Stored, st.Food, st.Deaths, st.Removed, string(channels),
	)
	if err != nil {
		return fmt.Errorf("insert stats tick %d: %w", tick, err)
	}
	return nil
}

// SaveEvents appends events to the run's log.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events (run_id, tick, description, category, meta_json)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		var meta *string
		if len(e.Meta) > 0 {
			raw, err := json.Marshal(e.Meta)
			if err != nil {
				return fmt.Errorf("marshal event meta: %w", err)
			}
			m := string(raw)
			meta = &m
		}
		if _, err := stmt.Exec(runID, e.Tick, e.Description, e.Category, meta); err != nil {
			return fmt.Errorf("insert event tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// Runs lists recorded runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		"SELECT id, started_at, ended_at, seed, level, config_json, final_tick, won FROM runs ORDER BY started_at DESC")
	return runs, err
}

// StatsHistory returns the statistics rows of a run in tick order.
func (db *DB) StatsHistory(runID string) ([]TickStats, error) {
	var rows []TickStats
	err := db.conn.Select(&rows, `SELECT tick, workers, zombants, queen_alive, corpses, hoard,
		stored, food, deaths, removed, channels_json
		FROM tick_stats WHERE run_id = ? ORDER BY tick`, runID)
	return rows, err
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var rows []struct {
		Tick        uint64  `db:"tick"`
		Description string  `db:"description"`
		Category    string  `db:"category"`
		Meta        *string `db:"meta_json"`
	}
	err := db.conn.Select(&rows,
		"SELECT tick, description, category, meta_json FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		ev := engine.Event{Tick: r.Tick, Description: r.Description, Category: r.Category}
		if r.Meta != nil {
			if err := json.Unmarshal([]byte(*r.Meta), &ev.Meta); err != nil {
				slog.Warn("bad event meta", "run", runID, "tick", r.Tick, "error", err)
			}
		}
		events = append(events, ev)
	}
	return events, nil
}

// Recorder buffers a running simulation's events and writes them, with a
// statistics row, every few ticks.
type Recorder struct {
	db    *DB
	runID string
	every uint64

	// Field, when set, is sampled on every flush and stored compressed.
	Field func() FieldValues

	mu      sync.Mutex
	pending []engine.Event
}

// NewRecorder starts a run in db. every is the number of ticks between
// writes; 0 writes only on Flush.
func NewRecorder(db *DB, seed int64, level string, cfg any, every int) (*Recorder, error) {
	id, err := db.StartRun(seed, level, cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("recording run", "run", id, "seed", seed, "level", level)
	return &Recorder{db: db, runID: id, every: uint64(max(every, 0))}, nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Queue buffers an event. It is safe to call from the simulation's event
// hook.
func (r *Recorder) Queue(ev engine.Event) {
	r.mu.Lock()
	r.pending = append(r.pending, ev)
	r.mu.Unlock()
}

// Tick writes stats and buffered events when tick falls on the interval.
func (r *Recorder) Tick(tick uint64, st engine.SimStats) error {
	if r.every == 0 || tick%r.every != 0 {
		return nil
	}
	return r.Flush(tick, st)
}

// Flush writes the buffered events and one statistics row.
func (r *Recorder) Flush(tick uint64, st engine.SimStats) error {
	r.mu.Lock()
	events := r.pending
	r.pending = nil
	r.mu.Unlock()

	if err := r.db.SaveEvents(r.runID, events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := r.db.SaveStats(r.runID, tick, st); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if r.Field != nil {
		if err := r.db.SaveField(r.runID, tick, r.Field()); err != nil {
			return fmt.Errorf("save field: %w", err)
		}
	}
	return nil
}

// Finish flushes and stamps the run as ended.
func (r *Recorder) Finish(tick uint64, st engine.SimStats, won bool) error {
	if err := r.Flush(tick, st); err != nil {
		return err
	}
	if err := r.db.FinishRun(r.runID, tick, won); err != nil {
		return err
	}
	slog.Info("run recorded", "run", r.runID, "tick", tick, "won", won)
	return nil
}
