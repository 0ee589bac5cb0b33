package navmesh

import (
	"github.com/talgya/mini-colony/internal/mathx"
)

// Collider returns the polyline that approximates the surface of edge id
// in world space: one end, the edge midpoint, the other end. Corner
// neighbors bend the ends toward the shared corner. Background nodes have
// no collider.
func (g *Graph) Collider(id NodeID) ([]mathx.Vec3, error) {
	i, err := g.Index(id)
	if err != nil {
		return nil, err
	}
	return g.ColliderAt(i), nil
}

// ColliderAt is Collider by dense index.
func (g *Graph) ColliderAt(i int) []mathx.Vec3 {
	q := g.grid.TileSize() / 4
	mid := g.pos[i]
	switch n := g.nodes[i].(type) {
	case *VerticalEdge:
		up := verticalEnd(n.UpKind, q)
		down := verticalEnd(n.DownKind, q)
		down.Y = -down.Y
		if !n.IsLeftSide {
			up.X, down.X = -up.X, -down.X
		}
		return []mathx.Vec3{mid.Add(up), mid, mid.Add(down)}
	case *HorizontalEdge:
		right := horizontalEnd(n.RightKind, q)
		left := horizontalEnd(n.LeftKind, q)
		left.X = -left.X
		if !n.IsUpSide {
			left.Y, right.Y = -left.Y, -right.Y
		}
		return []mathx.Vec3{mid.Add(left), mid, mid.Add(right)}
	default:
		return nil
	}
}

// verticalEnd is the upper end of a left wall for the given corner.
func verticalEnd(k NeighborKind, q float32) mathx.Vec3 {
	switch k {
	case Inward:
		return mathx.V3(q, q, 0)
	case Outward:
		return mathx.V3(-q, q, 0)
	default:
		return mathx.V3(0, 2*q, 0)
	}
}

// horizontalEnd is the right end of a ceiling for the given corner.
func horizontalEnd(k NeighborKind, q float32) mathx.Vec3 {
	switch k {
	case Inward:
		return mathx.V3(q, -q, 0)
	case Outward:
		return mathx.V3(q, q, 0)
	default:
		return mathx.V3(2*q, 0, 0)
	}
}
