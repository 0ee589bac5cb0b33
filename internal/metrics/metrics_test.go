package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/navmesh"
)

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	var m dto.Metric
	require.NoError(t, (<-ch).Write(&m))
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	}
	t.Fatalf("unexpected metric %v", m.String())
	return 0
}

func TestObserveTick(t *testing.T) {
	r := NewRegistry()
	st := engine.SimStats{
		Workers: 10, Zombants: 3, QueenAlive: true, Hoard: 2,
		Deaths: 2, Removed: 1, Harvests: 4,
		ChannelTotals: map[string]float64{"food": 12.5},
	}
	r.ObserveTick(2*time.Millisecond, st)

	assert.Equal(t, 10.0, value(t, r.Ants.WithLabelValues("worker")))
	assert.Equal(t, 3.0, value(t, r.Ants.WithLabelValues("zombant")))
	assert.Equal(t, 1.0, value(t, r.QueenAlive))
	assert.Equal(t, 2.0, value(t, r.QueenHoard))
	assert.Equal(t, 12.5, value(t, r.ChannelTotals.WithLabelValues("food")))
	assert.Equal(t, 2.0, value(t, r.Removals.WithLabelValues("death")))
	assert.Equal(t, 1.0, value(t, r.Removals.WithLabelValues("missed_collision")))
	assert.Equal(t, 1.0, value(t, r.Ticks))

	// Counters only advance by the difference.
	st.Deaths = 5
	st.QueenAlive = false
	r.ObserveTick(time.Millisecond, st)
	assert.Equal(t, 5.0, value(t, r.Removals.WithLabelValues("death")))
	assert.Equal(t, 4.0, value(t, r.GoalEvents.WithLabelValues("harvest")))
	assert.Equal(t, 0.0, value(t, r.QueenAlive))
	assert.Equal(t, 2.0, value(t, r.Ticks))
}

func TestSetGraph(t *testing.T) {
	r := NewRegistry()
	r.SetGraph(navmesh.Stats{Background: 40, WallEdges: 12, BoundaryEdges: 6, SurfaceEdges: 3})
	assert.Equal(t, 40.0, value(t, r.NavNodes.WithLabelValues("background")))
	assert.Equal(t, 3.0, value(t, r.NavNodes.WithLabelValues("surface_edge")))
}

func TestGather(t *testing.T) {
	r := NewRegistry()
	r.RecordHTTPRequest("GET", "/api/v1/status", "200", 10*time.Millisecond)
	r.ObserveTick(time.Millisecond, engine.SimStats{})

	families, err := r.Prometheus().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["colony_http_requests_total"])
	assert.True(t, names["colony_tick_duration_seconds"])
	assert.True(t, names["colony_ants"])
}
