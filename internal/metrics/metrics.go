// Package metrics exposes colony statistics to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// Registry holds all metrics for the simulation.
type Registry struct {
	// Colony
	Ants         *prometheus.GaugeVec
	QueenAlive   prometheus.Gauge
	QueenHoard   prometheus.Gauge
	Corpses      prometheus.Gauge
	ObjectAmount *prometheus.GaugeVec
	Removals     *prometheus.CounterVec
	GoalEvents   *prometheus.CounterVec

	// Solver
	TickDuration  prometheus.Histogram
	Ticks         prometheus.Counter
	ChannelTotals *prometheus.GaugeVec
	NavNodes      *prometheus.GaugeVec

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry

	mu   sync.Mutex
	last engine.SimStats // Counters already exported
}

// NewRegistry creates a registry with every metric initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.Ants = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "colony_ants",
		Help: "Living ants by kind",
	}, []string{"kind"})
	r.QueenAlive = f.NewGauge(prometheus.GaugeOpts{
		Name: "colony_queen_alive",
		Help: "1 while the queen lives",
	})
	r.QueenHoard = f.NewGauge(prometheus.GaugeOpts{
		Name: "colony_queen_hoard",
		Help: "Offerings held by the queen",
	})
	r.Corpses = f.NewGauge(prometheus.GaugeOpts{
		Name: "colony_corpses",
		Help: "Dead ants still scenting the field",
	})
	r.ObjectAmount = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "colony_object_quantity",
		Help: "Quantity left in finite objects by channel",
	}, []string{"channel"})
	r.Removals = f.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_removals_total",
		Help: "Ants taken out of the simulation by reason",
	}, []string{"reason"})
	r.GoalEvents = f.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_goal_events_total",
		Help: "Goals reached by kind",
	}, []string{"kind"})

	r.TickDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "colony_tick_duration_seconds",
		Help:    "Wall time spent in one simulation step",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.033, 0.1},
	})
	r.Ticks = f.NewCounter(prometheus.CounterOpts{
		Name: "colony_ticks_total",
		Help: "Simulation steps taken",
	})
	r.ChannelTotals = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "colony_pheromone_total",
		Help: "Summed concentration over all nodes by channel",
	}, []string{"channel"})
	r.NavNodes = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "colony_nav_nodes",
		Help: "Navigation nodes by kind",
	}, []string{"kind"})

	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "colony_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "colony_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	return r
}

// Prometheus returns the underlying Prometheus registry.
func (r *Registry) Prometheus() *prometheus.Registry {
	return r.registry
}

// SetGraph publishes the node counts of a navigation graph.
func (r *Registry) SetGraph(s navmesh.Stats) {
	r.NavNodes.WithLabelValues("background").Set(float64(s.Background))
	r.NavNodes.WithLabelValues("wall_edge").Set(float64(s.WallEdges))
	r.NavNodes.WithLabelValues("boundary_edge").Set(float64(s.BoundaryEdges))
	r.NavNodes.WithLabelValues("surface_edge").Set(float64(s.SurfaceEdges))
}

// ObserveTick records one step's duration and the statistics after it.
// Counters advance by the change since the previous call.
func (r *Registry) ObserveTick(d time.Duration, st engine.SimStats) {
	r.TickDuration.Observe(d.Seconds())
	r.Ticks.Inc()

	r.Ants.WithLabelValues("worker").Set(float64(st.Workers))
	r.Ants.WithLabelValues("zombant").Set(float64(st.Zombants))
	if st.QueenAlive {
		r.QueenAlive.Set(1)
	} else {
		r.QueenAlive.Set(0)
	}
	r.QueenHoard.Set(float64(st.Hoard))
	r.Corpses.Set(float64(st.Corpses))
	r.ObjectAmount.WithLabelValues("food").Set(float64(st.Food))
	r.ObjectAmount.WithLabelValues("storage").Set(float64(st.Stored))
	for ch, v := range st.ChannelTotals {
		r.ChannelTotals.WithLabelValues(ch).Set(v)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	addDelta(r.Removals.WithLabelValues("death"), st.Deaths, r.last.Deaths)
	addDelta(r.Removals.WithLabelValues("missed_collision"), st.Removed, r.last.Removed)
	addDelta(r.GoalEvents.WithLabelValues("harvest"), st.Harvests, r.last.Harvests)
	addDelta(r.GoalEvents.WithLabelValues("delivery"), st.Deliveries, r.last.Deliveries)
	addDelta(r.GoalEvents.WithLabelValues("theft"), st.Thefts, r.last.Thefts)
	addDelta(r.GoalEvents.WithLabelValues("offering"), st.Offerings, r.last.Offerings)
	r.last = st
}

func addDelta(c prometheus.Counter, now, before int) {
	if now > before {
		c.Add(float64(now - before))
	}
}

// RecordHTTPRequest records an HTTP request with its duration.
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
