// Package contacts reports which navigation edges each ant touches. It
// stands in for a physics engine: an ant is an axis-aligned box and each
// edge is the collider polyline of the navigation graph.
package contacts

import (
	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/parallel"
	"github.com/talgya/mini-colony/internal/world"
)

// Detector is read-only after construction and safe for concurrent use.
type Detector struct {
	graph     *navmesh.Graph
	halfW     float32
	halfH     float32
	colliders [][]mathx.Vec3
	hazard    []bool
	workers   int
}

// NewDetector precomputes the colliders of g. hazards lists tiles that
// kill any ant whose center enters them.
func NewDetector(g *navmesh.Graph, move agents.MoveParams, hazards []world.Coord, workers int) *Detector {
	d := &Detector{
		graph:     g,
		halfW:     move.AntWidth / 2,
		halfH:     move.AntHeight / 2,
		colliders: make([][]mathx.Vec3, g.Len()),
		hazard:    make([]bool, g.Grid().Len()),
		workers:   parallel.Workers(workers),
	}
	for i := range d.colliders {
		d.colliders[i] = g.ColliderAt(i)
	}
	for _, c := range hazards {
		if t := g.Grid().Index(c); t >= 0 {
			d.hazard[t] = true
		}
	}
	return d
}

// Contacts returns the edge nodes whose colliders overlap the ant.
func (d *Detector) Contacts(a *agents.Ant) []navmesh.NodeID {
	c, ok := d.cellOf(a.Pos)
	if !ok {
		return nil
	}
	grid := d.graph.Grid()
	lo := mathx.V3(a.Pos.X-d.halfW, a.Pos.Y-d.halfH, 0)
	hi := mathx.V3(a.Pos.X+d.halfW, a.Pos.Y+d.halfH, 0)

	var out []navmesh.NodeID
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nc := world.Coord{X: c.X + dx, Y: c.Y + dy}
			if !grid.InBounds(nc) {
				continue
			}
			for _, i := range d.graph.NodesIn(nc) {
				if polylineHitsBox(d.colliders[i], lo, hi) {
					out = append(out, d.graph.ID(int(i)))
				}
			}
		}
	}
	return out
}

// InHazard reports whether the ant's center lies in a hazard tile.
func (d *Detector) InHazard(a *agents.Ant) bool {
	c, ok := d.cellOf(a.Pos)
	return ok && d.hazard[d.graph.Grid().Index(c)]
}

// cellOf is the tile containing p, with points on the far border in the
// last row or column.
func (d *Detector) cellOf(p mathx.Vec3) (world.Coord, bool) {
	grid := d.graph.Grid()
	w, h := grid.Bounds()
	if !(p.X >= 0 && p.Y >= 0 && p.X <= w && p.Y <= h) {
		return world.Coord{}, false
	}
	ts := grid.TileSize()
	return world.Coord{
		X: mathx.Clamp(int(p.X/ts), 0, grid.Width()-1),
		Y: mathx.Clamp(int(p.Y/ts), 0, grid.Height()-1),
	}, true
}

// Detect computes the contacts of every ant, spreading the work over the
// detector's workers.
func (d *Detector) Detect(ants []*agents.Ant) [][]navmesh.NodeID {
	out := make([][]navmesh.NodeID, len(ants))
	parallel.For(len(ants), d.workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			out[i] = d.Contacts(ants[i])
		}
	})
	return out
}

func polylineHitsBox(pts []mathx.Vec3, lo, hi mathx.Vec3) bool {
	for i := 1; i < len(pts); i++ {
		if segmentHitsBox(pts[i-1], pts[i], lo, hi) {
			return true
		}
	}
	return false
}

// segmentHitsBox clips the segment a-b against the box in the XY plane.
func segmentHitsBox(a, b, lo, hi mathx.Vec3) bool {
	t0, t1 := float32(0), float32(1)
	clip := func(p, q float32) bool {
		if p == 0 {
			return q >= 0
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = min(t1, r)
		}
		return true
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	return clip(-dx, a.X-lo.X) && clip(dx, hi.X-a.X) &&
		clip(-dy, a.Y-lo.Y) && clip(dy, hi.Y-a.Y)
}
