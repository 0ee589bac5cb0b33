package agents

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// ErrMissedCollision reports that an ant's wall state disagrees with the
// navigation graph, usually because a contact was missed. The ant cannot be
// placed consistently and should be removed.
var ErrMissedCollision = errors.New("agents: missed collision")

// Position is the movement state of an ant.
type Position interface {
	isPosition()
	String() string
}

// Background is free movement in the open space of the nest.
type Background struct{}

// VerticalWall is climbing the left or right wall of a tile.
type VerticalWall struct{ IsLeftSide bool }

// HorizontalWall is walking on a ceiling (IsUpSide) or floor.
type HorizontalWall struct{ IsUpSide bool }

func (Background) isPosition()     {}
func (VerticalWall) isPosition()   {}
func (HorizontalWall) isPosition() {}

func (Background) String() string { return "background" }

func (p VerticalWall) String() string {
	if p.IsLeftSide {
		return "left_wall"
	}
	return "right_wall"
}

func (p HorizontalWall) String() string {
	if p.IsUpSide {
		return "ceiling"
	}
	return "floor"
}

// OnWall reports whether p is one of the wall states.
func OnWall(p Position) bool {
	_, bg := p.(Background)
	return p != nil && !bg
}

func side(positive bool) float32 {
	if positive {
		return 1
	}
	return -1
}

// PlaceOnNode attaches a to node id, choosing the movement state from the
// node type. Ants on walls start at full depth.
func PlaceOnNode(a *Ant, g *navmesh.Graph, id navmesh.NodeID, p MoveParams) error {
	n, err := g.Node(id)
	if err != nil {
		return err
	}
	pos, _ := g.Pos(id)
	a.Pos = pos
	switch n := n.(type) {
	case *navmesh.Background:
		a.Pos.Z = 0
		a.Position = Background{}
	case *navmesh.VerticalEdge:
		a.Pos.Z = p.WallDepth()
		placeOnVertical(a, n.IsLeftSide, pos, p)
	case *navmesh.HorizontalEdge:
		a.Pos.Z = p.WallDepth()
		placeOnHorizontal(a, n.IsUpSide, pos, p)
	}
	a.CurrentNode, a.CurrentNodePos = id, pos
	return nil
}

func placeOnVertical(a *Ant, isLeftSide bool, wall mathx.Vec3, p MoveParams) {
	a.Pos.X = wall.X + (p.AntWidth/2-p.WallClipping)*side(isLeftSide)
	a.Pos.Z = max(a.Pos.Z, p.WallClipping)
	a.Position = VerticalWall{IsLeftSide: isLeftSide}
}

func placeOnHorizontal(a *Ant, isUpSide bool, wall mathx.Vec3, p MoveParams) {
	a.Pos.Y = wall.Y - (p.AntHeight/2-p.WallClipping)*side(isUpSide)
	a.Pos.Z = max(a.Pos.Z, p.WallClipping)
	a.Position = HorizontalWall{IsUpSide: isUpSide}
}

// closestWall returns the contacted edge node nearest to pos that keep
// accepts. Background nodes and ids from another graph are ignored.
func closestWall(g *navmesh.Graph, pos mathx.Vec3, contacts []navmesh.NodeID, keep func(navmesh.Node) bool) (navmesh.NodeID, navmesh.Node, mathx.Vec3, bool) {
	var (
		best     navmesh.NodeID
		bestNode navmesh.Node
		bestPos  mathx.Vec3
		bestDist = float32(math.Inf(1))
	)
	for _, id := range contacts {
		n, err := g.Node(id)
		if err != nil || n.Kind() == navmesh.KindBackground || !keep(n) {
			continue
		}
		wp, _ := g.Pos(id)
		if d := mathx.Hypot(wp.X-pos.X, wp.Y-pos.Y); d < bestDist {
			best, bestNode, bestPos, bestDist = id, n, wp, d
		}
	}
	return best, bestNode, bestPos, bestNode != nil
}

func anyWall(navmesh.Node) bool { return true }

// reaches reports whether an ant on p can step onto n: any horizontal
// edge, or a vertical one facing the same way.
func (p VerticalWall) reaches(n navmesh.Node) bool {
	v, ok := n.(*navmesh.VerticalEdge)
	return !ok || v.IsLeftSide == p.IsLeftSide
}

func (p HorizontalWall) reaches(n navmesh.Node) bool {
	h, ok := n.(*navmesh.HorizontalEdge)
	return !ok || h.IsUpSide == p.IsUpSide
}

// along returns the coordinate of v that runs along a wall.
func along(v *mathx.Vec3, vertical bool) *float32 {
	if vertical {
		return &v.Y
	}
	return &v.X
}

// wallEnds returns the two ends of the collider of wall id.
func wallEnds(g *navmesh.Graph, id navmesh.NodeID) (mathx.Vec3, mathx.Vec3, bool) {
	pts, err := g.Collider(id)
	if err != nil || len(pts) < 2 {
		return mathx.Vec3{}, mathx.Vec3{}, false
	}
	return pts[0], pts[len(pts)-1], true
}

// clampToWall keeps the ant at least margin inside both ends of the
// collider of wall id, where its box still overlaps the wall.
func clampToWall(a *Ant, g *navmesh.Graph, id navmesh.NodeID, vertical bool, margin float32) {
	e0, e1, ok := wallEnds(g, id)
	if !ok {
		return
	}
	lo, hi := *along(&e0, vertical), *along(&e1, vertical)
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi-lo < 2*margin {
		return
	}
	c := along(&a.Pos, vertical)
	*c = mathx.Clamp(*c, lo+margin, hi-margin)
}

// enterAtCorner moves the ant onto wall id just inside the end nearest
// from, the node of the wall it is turning off. The inset is the ant's
// half length along the wall less the clipping, capped at the midpoint.
func enterAtCorner(a *Ant, g *navmesh.Graph, id navmesh.NodeID, vertical bool, from mathx.Vec3, p MoveParams) {
	e0, e1, ok := wallEnds(g, id)
	if !ok {
		return
	}
	end := e0
	if e1.DistXY(from) < e0.DistXY(from) {
		end = e1
	}
	mid, _ := g.Pos(id)
	e, m := *along(&end, vertical), *along(&mid, vertical)

	inset := p.AntWidth/2 - p.WallClipping
	if vertical {
		inset = p.AntHeight/2 - p.WallClipping
	}
	inset = min(inset, float32(math.Abs(float64(m-e))))

	c := along(&a.Pos, vertical)
	if m >= e {
		*c = max(*c, e+inset)
	} else {
		*c = min(*c, e-inset)
	}
	clampToWall(a, g, id, vertical, p.WallClipping)
}

// cornerKind is how the wall at from links to the perpendicular wall to.
// Walls touched without a link meet like an inner corner.
func cornerKind(g *navmesh.Graph, from, to navmesh.NodeID) navmesh.NeighborKind {
	i, err := g.Index(from)
	if err != nil {
		return navmesh.Inward
	}
	if k, ok := g.KindOf(i, to); ok {
		return k
	}
	return navmesh.Inward
}

// UpdatePositionKind advances the movement state machine of a from the set
// of graph nodes it touches this tick. It returns ErrMissedCollision when
// the ant's wall state cannot be reconciled with the graph; a is left
// unchanged apart from fields already updated and should be removed.
func UpdatePositionKind(a *Ant, contacts []navmesh.NodeID, g *navmesh.Graph, p MoveParams) error {
	switch pos := a.Position.(type) {
	case Background:
		if id, n, wp, ok := closestWall(g, a.Pos, contacts, anyWall); ok {
			switch n := n.(type) {
			case *navmesh.VerticalEdge:
				placeOnVertical(a, n.IsLeftSide, wp, p)
				clampToWall(a, g, id, true, p.WallClipping)
			case *navmesh.HorizontalEdge:
				placeOnHorizontal(a, n.IsUpSide, wp, p)
				clampToWall(a, g, id, false, p.WallClipping)
			}
			a.Direction.Z = 1
			a.CurrentNode, a.CurrentNodePos = id, wp
		}
	case VerticalWall:
		if err := leaveVertical(a, pos, contacts, g, p); err != nil {
			return err
		}
	case HorizontalWall:
		if err := leaveHorizontal(a, pos, contacts, g, p); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: ant %d has no position", ErrMissedCollision, a.ID)
	}

	if _, ok := a.Position.(Background); ok {
		if id, ok := g.LUT().Lookup(a.Pos); ok {
			a.CurrentNode = id
			a.CurrentNodePos, _ = g.Pos(id)
		}
	}
	return nil
}

func leaveVertical(a *Ant, pos VerticalWall, contacts []navmesh.NodeID, g *navmesh.Graph, p MoveParams) error {
	if a.Pos.Z <= p.WallClipping {
		// Vertical edges always have open space behind them.
		a.Pos.X += 2 * p.WallClipping * side(pos.IsLeftSide)
		a.Direction.X = side(pos.IsLeftSide)
		a.Position = Background{}
		return nil
	}

	if id, n, wp, ok := closestWall(g, a.Pos, contacts, pos.reaches); ok {
		if h, ok := n.(*navmesh.HorizontalEdge); ok {
			outer := cornerKind(g, a.CurrentNode, id) == navmesh.Outward
			placeOnHorizontal(a, h.IsUpSide, wp, p)
			enterAtCorner(a, g, id, false, a.CurrentNodePos, p)
			// Away from the wall just left, or back around its tip.
			a.Direction.X = side(pos.IsLeftSide)
			if outer {
				a.Direction.X = -a.Direction.X
			}
		}
		a.CurrentNode, a.CurrentNodePos = id, wp
		return nil
	}

	// Walked past the end of the wall: turn the outer corner.
	cur, err := g.Node(a.CurrentNode)
	if err != nil {
		return fmt.Errorf("%w: ant %d: %v", ErrMissedCollision, a.ID, err)
	}
	v, ok := cur.(*navmesh.VerticalEdge)
	if !ok {
		return fmt.Errorf("%w: ant %d on %s but attached to %s node", ErrMissedCollision, a.ID, pos, cur.Kind())
	}
	isUp := a.Direction.Y >= 0
	next := v.Down
	if isUp {
		next = v.Up
	}
	nn, err := g.Node(next)
	if err != nil {
		return fmt.Errorf("%w: ant %d: no wall beyond %s", ErrMissedCollision, a.ID, a.CurrentNode)
	}
	h, ok := nn.(*navmesh.HorizontalEdge)
	if !ok || h.IsUpSide != !isUp {
		return fmt.Errorf("%w: ant %d: expected %s beyond %s, found %s", ErrMissedCollision, a.ID,
			HorizontalWall{IsUpSide: !isUp}, a.CurrentNode, nn.Kind())
	}
	np, _ := g.Pos(next)
	placeOnHorizontal(a, h.IsUpSide, np, p)
	enterAtCorner(a, g, next, false, a.CurrentNodePos, p)
	a.Direction.X = -side(pos.IsLeftSide)
	a.CurrentNode, a.CurrentNodePos = next, np
	return nil
}

func leaveHorizontal(a *Ant, pos HorizontalWall, contacts []navmesh.NodeID, g *navmesh.Graph, p MoveParams) error {
	if a.Pos.Z <= p.WallClipping {
		cur, err := g.Node(a.CurrentNode)
		if err != nil {
			return fmt.Errorf("%w: ant %d: %v", ErrMissedCollision, a.ID, err)
		}
		h, ok := cur.(*navmesh.HorizontalEdge)
		if !ok {
			return fmt.Errorf("%w: ant %d on %s but attached to %s node", ErrMissedCollision, a.ID, pos, cur.Kind())
		}
		if h.IsSurface() {
			// Nothing below open ground: stay on it.
			a.Pos.Z = 2 * p.WallClipping
			a.Direction.Z = float32(math.Abs(float64(a.Direction.Z)))
			return nil
		}
		a.Pos.Y -= 2 * p.WallClipping * side(pos.IsUpSide)
		a.Direction.Y = -side(pos.IsUpSide)
		a.Position = Background{}
		return nil
	}

	if id, n, wp, ok := closestWall(g, a.Pos, contacts, pos.reaches); ok {
		if v, ok := n.(*navmesh.VerticalEdge); ok {
			outer := cornerKind(g, a.CurrentNode, id) == navmesh.Outward
			placeOnVertical(a, v.IsLeftSide, wp, p)
			enterAtCorner(a, g, id, true, a.CurrentNodePos, p)
			a.Direction.Y = -side(pos.IsUpSide)
			if outer {
				a.Direction.Y = -a.Direction.Y
			}
		}
		a.CurrentNode, a.CurrentNodePos = id, wp
		return nil
	}

	cur, err := g.Node(a.CurrentNode)
	if err != nil {
		return fmt.Errorf("%w: ant %d: %v", ErrMissedCollision, a.ID, err)
	}
	h, ok := cur.(*navmesh.HorizontalEdge)
	if !ok {
		return fmt.Errorf("%w: ant %d on %s but attached to %s node", ErrMissedCollision, a.ID, pos, cur.Kind())
	}
	right := a.Direction.X >= 0
	next := h.Left
	if right {
		next = h.Right
	}
	if !next.Valid() && h.IsSurface() {
		// End of the open ground at a cliff or the map border.
		a.Direction.X = -side(right)
		clampToWall(a, g, a.CurrentNode, false, p.WallClipping)
		return nil
	}
	nn, err := g.Node(next)
	if err != nil {
		return fmt.Errorf("%w: ant %d: no wall beyond %s", ErrMissedCollision, a.ID, a.CurrentNode)
	}
	v, ok := nn.(*navmesh.VerticalEdge)
	if !ok || v.IsLeftSide != right {
		return fmt.Errorf("%w: ant %d: expected %s beyond %s, found %s", ErrMissedCollision, a.ID,
			VerticalWall{IsLeftSide: right}, a.CurrentNode, nn.Kind())
	}
	np, _ := g.Pos(next)
	placeOnVertical(a, v.IsLeftSide, np, p)
	enterAtCorner(a, g, next, true, a.CurrentNodePos, p)
	a.Direction.Y = side(pos.IsUpSide)
	a.CurrentNode, a.CurrentNodePos = next, np
	return nil
}
