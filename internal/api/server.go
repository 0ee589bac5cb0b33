// Package api provides the HTTP API for inspecting a running colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/metrics"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/persistence"
	"github.com/talgya/mini-colony/internal/pheromone"
)

const maxStreams = 8

// Server serves the colony state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB   // Optional, enables run history
	Metrics  *metrics.Registry // Optional, enables /metrics
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	StreamInterval time.Duration // Between status pushes on /api/v1/stream

	streams  atomic.Int32
	upgrader websocket.Upgrader
	srv      *http.Server
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	fieldLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/nodes", s.handleNodes)
	mux.HandleFunc("/api/v1/node/", s.handleNodeDetail)
	mux.HandleFunc("/api/v1/field", RateLimitMiddleware(fieldLimiter, s.handleField))
	mux.HandleFunc("/api/v1/ants", s.handleAnts)
	mux.HandleFunc("/api/v1/objects", s.handleObjects)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("/api/v1/field/history", RateLimitMiddleware(fieldLimiter, s.handleFieldHistory))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/slay", s.adminOnly(s.handleSlay))

	if s.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Prometheus(), promhttp.HandlerOpts{}))
	}

	return corsMiddleware(s.instrument(mux))
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "metrics", s.Metrics != nil)

	s.srv = &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS to a comma-separated list of extra origins.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency.
func (s *Server) instrument(next http.Handler) http.Handler {
	if s.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/stream" { // Needs the raw writer to hijack
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.Metrics.RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), strconv.Itoa(rec.status), time.Since(start))
	})
}

// routeLabel folds detail paths so ids do not become label values.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/api/v1/node/") {
		return "/api/v1/node/"
	}
	return path
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) status() map[string]any {
	tick := s.Sim.CurrentTick()
	st := map[string]any{
		"name":     "mini-colony",
		"tick":     tick,
		"sim_time": engine.SimTime(tick),
		"won":      s.Sim.Won(),
		"nodes":    s.Sim.Graph.Len(),
		"stats":    s.Sim.Stats(),
	}
	if s.Eng != nil {
		st["speed"] = s.Eng.Speed()
		st["running"] = s.Eng.Running()
	}
	if s.RunID != "" {
		st["run_id"] = s.RunID
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Stats())
}

type nodeLink struct {
	To  int    `json:"to"`
	Dir string `json:"dir"`
}

type nodeSummary struct {
	Index int        `json:"index"`
	ID    string     `json:"id"`
	Kind  string     `json:"kind"`
	Side  string     `json:"side,omitempty"`
	Cell  [2]int     `json:"cell"`
	Pos   [3]float32 `json:"pos"`
	Links []nodeLink `json:"links"`
}

func (s *Server) nodeSummary(i int) nodeSummary {
	g := s.Sim.Graph
	n := g.At(i)
	c := g.CellAt(i)
	p := g.PosAt(i)
	sum := nodeSummary{
		Index: i,
		ID:    g.ID(i).String(),
		Kind:  n.Kind().String(),
		Cell:  [2]int{c.X, c.Y},
		Pos:   [3]float32{p.X, p.Y, p.Z},
	}
	switch e := n.(type) {
	case *navmesh.VerticalEdge:
		sum.Side = "right"
		if e.IsLeftSide {
			sum.Side = "left"
		}
	case *navmesh.HorizontalEdge:
		sum.Side = "floor"
		if e.IsUpSide {
			sum.Side = "ceiling"
		}
		if e.IsSurface() {
			sum.Side += "_surface"
		}
	}
	for _, l := range g.Links(i) {
		sum.Links = append(sum.Links, nodeLink{To: l.To, Dir: l.Dir.String()})
	}
	return sum
}

// handleNodes pages through the navigation graph.
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	g := s.Sim.Graph
	offset := queryInt(r, "offset", 0, 0, g.Len())
	limit := queryInt(r, "limit", 200, 1, 5000)
	kind := r.URL.Query().Get("kind")

	nodes := make([]nodeSummary, 0, min(limit, g.Len()))
	for i := offset; i < g.Len() && len(nodes) < limit; i++ {
		if kind != "" && g.At(i).Kind().String() != kind {
			continue
		}
		nodes = append(nodes, s.nodeSummary(i))
	}
	writeJSON(w, map[string]any{
		"total": g.Len(),
		"stats": g.Stats(),
		"nodes": nodes,
	})
}

// handleNodeDetail returns one node with its pheromone state.
func (s *Server) handleNodeDetail(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/v1/node/"))
	if err != nil {
		http.Error(w, "invalid node index", http.StatusBadRequest)
		return
	}
	state, ok := s.Sim.NodeState(i)
	if !ok {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"node":      s.nodeSummary(i),
		"pheromone": state,
	})
}

// handleField returns one channel's concentration at every node.
func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("channel")
	if name == "" {
		name = pheromone.Default.String()
	}
	ch, err := pheromone.ParseChannel(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"channel": ch.String(),
		"values":  s.Sim.ChannelValues(ch),
	})
}

func (s *Server) handleAnts(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	snap := s.Sim.Snapshot()

	ants := make([]engine.AntView, 0, len(snap.Ants)+1)
	if snap.Queen != nil && (kind == "" || kind == snap.Queen.Kind) {
		ants = append(ants, *snap.Queen)
	}
	for _, a := range snap.Ants {
		if kind != "" && a.Kind != kind {
			continue
		}
		ants = append(ants, a)
	}
	writeJSON(w, map[string]any{
		"tick":    snap.Tick,
		"ants":    ants,
		"corpses": snap.Corpses,
	})
}

func (s *Server) handleObjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Snapshot().Objects)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 1, 500)
	category := r.URL.Query().Get("category")

	events := s.Sim.RecentEvents(0)
	if category != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.DB.Runs()
	if err != nil {
		slog.Error("runs query failed", "error", err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []persistence.Run{}
	}
	writeJSON(w, runs)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	run := r.URL.Query().Get("run")
	if run == "" {
		run = s.RunID
	}
	rows, err := s.DB.StatsHistory(run)
	if err != nil {
		slog.Error("stats history query failed", "run", run, "error", err)
		writeJSON(w, []persistence.TickStats{})
		return
	}
	if rows == nil {
		rows = []persistence.TickStats{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleFieldHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	run := q.Get("run")
	if run == "" {
		run = s.RunID
	}
	name := q.Get("channel")
	if name == "" {
		name = pheromone.Default.String()
	}
	ch, err := pheromone.ParseChannel(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	tick, err := strconv.ParseUint(q.Get("tick"), 10, 64)
	if err != nil {
		http.Error(w, "tick must be a non-negative integer", http.StatusBadRequest)
		return
	}
	at, values, err := s.DB.LoadField(run, tick)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "no field snapshot at or before tick", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("field history query failed", "run", run, "tick", tick, "error", err)
		http.Error(w, "field history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"run":     run,
		"tick":    at,
		"channel": ch.String(),
		"values":  values[ch],
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		if err := s.Eng.SetSpeed(req.Speed); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleSlay kills the queen, ending the run with a win.
func (s *Server) handleSlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.Sim.SlayQueen(); err != nil {
		if errors.Is(err, engine.ErrNoQueen) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("queen slain by admin", "tick", s.Sim.CurrentTick())
	writeJSON(w, map[string]any{"slain": true, "tick": s.Sim.CurrentTick()})
}

// queryInt reads an integer query parameter, falling back to def when it
// is missing or outside [lo, hi].
func queryInt(r *http.Request, key string, def, lo, hi int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}
