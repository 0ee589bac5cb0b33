package navmesh

import (
	"fmt"
	"log/slog"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/world"
)

// builder holds the scratch tables used while a graph is assembled.
type builder struct {
	grid    *world.Grid
	gen     uint32
	bg      []int32    // background node per tile, -1 when not open
	edges   [][4]int32 // edge node per tile and direction, -1 when absent
	surface []int32    // surface edge per sky tile, -1 when absent
	g       *Graph
}

// Build converts a classified grid into a navigation graph and its lookup
// table. Open tiles get a background node; every side of an open tile that
// faces a non-open tile or the map border gets an edge node. Sky tiles
// resting on ground get a surface edge with no back.
func Build(grid *world.Grid) (*Graph, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInconsistentGrid)
	}
	n := grid.Len()
	b := &builder{
		grid:    grid,
		gen:     generation.Add(1),
		bg:      make([]int32, n),
		edges:   make([][4]int32, n),
		surface: make([]int32, n),
	}
	b.g = &Graph{
		gen:   b.gen,
		grid:  grid,
		owned: make([][]int32, n),
	}
	for i := range b.bg {
		b.bg[i] = -1
		b.surface[i] = -1
		b.edges[i] = [4]int32{-1, -1, -1, -1}
	}

	b.allocate()
	if b.g.stats.Background == 0 {
		return nil, fmt.Errorf("%w: no open tiles", ErrInconsistentGrid)
	}
	if err := b.linkTiles(); err != nil {
		return nil, err
	}
	if err := b.linkSurface(); err != nil {
		return nil, err
	}
	b.resolveLinks()
	b.g.lut = newLUT(grid, b.bg, b.edges, b.gen)

	slog.Debug("navmesh built",
		"generation", b.gen,
		"background", b.g.stats.Background,
		"wall_edges", b.g.stats.WallEdges,
		"boundary_edges", b.g.stats.BoundaryEdges,
		"surface_edges", b.g.stats.SurfaceEdges,
	)
	return publish(b.g)
}

// publish hands out g only if it passes Validate.
func publish(g *Graph) (*Graph, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (b *builder) id(i int32) NodeID {
	if i < 0 {
		return NodeID{}
	}
	return NodeID{index: uint32(i), gen: b.gen}
}

// alloc reserves a node slot owned by tile c at world position p.
func (b *builder) alloc(c world.Coord, p mathx.Vec3) int32 {
	i := int32(len(b.g.nodes))
	b.g.nodes = append(b.g.nodes, nil)
	b.g.pos = append(b.g.pos, p)
	b.g.cell = append(b.g.cell, c)
	t := b.grid.Index(c)
	b.g.owned[t] = append(b.g.owned[t], i)
	return i
}

// edgePos is the midpoint of the side of tile c facing d.
func (b *builder) edgePos(c world.Coord, d world.Dir) mathx.Vec3 {
	half := b.grid.TileSize() / 2
	o := d.Offset()
	return b.grid.Center(c).Add(mathx.V3(float32(o.X)*half, float32(o.Y)*half, 0))
}

// allocate spawns ids for every background, edge and surface node.
func (b *builder) allocate() {
	grid := b.grid
	for t := 0; t < grid.Len(); t++ {
		c := grid.CoordOf(t)
		if grid.IsOpen(c) {
			b.bg[t] = b.alloc(c, grid.Center(c))
			b.g.stats.Background++
		}
	}
	for t := 0; t < grid.Len(); t++ {
		c := grid.CoordOf(t)
		if !grid.IsOpen(c) {
			continue
		}
		for _, d := range world.Dirs {
			nc, ok := grid.Neighbor(c, d)
			if ok && grid.IsOpen(nc) {
				continue
			}
			b.edges[t][d] = b.alloc(c, b.edgePos(c, d))
			if ok {
				b.g.stats.WallEdges++
			} else {
				b.g.stats.BoundaryEdges++
			}
			if d.Vertical() {
				b.g.stats.Horizontal++
			} else {
				b.g.stats.Vertical++
			}
		}
	}
	for t := 0; t < grid.Len(); t++ {
		c := grid.CoordOf(t)
		if grid.Is(c, world.CellOverground) && grid.Is(c.Step(world.DirDown), world.CellGround) {
			b.surface[t] = b.alloc(c, b.edgePos(c, world.DirDown))
			b.g.stats.SurfaceEdges++
			b.g.stats.Horizontal++
		}
	}
}

func (b *builder) edge(c world.Coord, d world.Dir) int32 {
	t := b.grid.Index(c)
	if t < 0 {
		return -1
	}
	return b.edges[t][d]
}

// lateral classifies the link of the edge on side face of tile c toward
// side. A wall of the same tile there makes an inward corner; an open
// diagonal tile makes an outward corner around the wall's tip; otherwise
// the wall runs straight on along the neighbor tile.
func (b *builder) lateral(c world.Coord, face, side world.Dir) (int32, NeighborKind, error) {
	if e := b.edge(c, side); e >= 0 {
		return e, Inward, nil
	}
	n, ok := b.grid.Neighbor(c, side)
	if !ok || !b.grid.IsOpen(n) {
		return -1, Straight, fmt.Errorf("%w: tile %v has no %s edge but no open neighbor", ErrInconsistentGrid, c, side)
	}
	if diag := n.Step(face); b.grid.IsOpen(diag) {
		e := b.edge(diag, side.Opposite())
		if e < 0 {
			return -1, Straight, fmt.Errorf("%w: diagonal tile %v has no %s edge", ErrInconsistentGrid, diag, side.Opposite())
		}
		return e, Outward, nil
	}
	e := b.edge(n, face)
	if e < 0 {
		return -1, Straight, fmt.Errorf("%w: tile %v has no %s edge to continue", ErrInconsistentGrid, n, face)
	}
	return e, Straight, nil
}

// linkTiles fills in background and wall edge nodes.
func (b *builder) linkTiles() error {
	grid := b.grid
	for t := 0; t < grid.Len(); t++ {
		if b.bg[t] < 0 {
			continue
		}
		c := grid.CoordOf(t)
		var around [4]NodeID
		for _, d := range world.Dirs {
			if e := b.edges[t][d]; e >= 0 {
				around[d] = b.id(e)
				continue
			}
			nc, _ := grid.Neighbor(c, d)
			around[d] = b.id(b.bg[grid.Index(nc)])
		}
		b.g.nodes[b.bg[t]] = &Background{
			Up:    around[world.DirUp],
			Left:  around[world.DirLeft],
			Down:  around[world.DirDown],
			Right: around[world.DirRight],
		}

		for _, face := range world.Dirs {
			e := b.edges[t][face]
			if e < 0 {
				continue
			}
			var node Node
			if face.Vertical() {
				left, lk, err := b.lateral(c, face, world.DirLeft)
				if err != nil {
					return err
				}
				right, rk, err := b.lateral(c, face, world.DirRight)
				if err != nil {
					return err
				}
				node = &HorizontalEdge{
					Left:      b.id(left),
					LeftKind:  lk,
					Right:     b.id(right),
					RightKind: rk,
					Back:      b.id(b.bg[t]),
					IsUpSide:  face == world.DirUp,
				}
			} else {
				up, uk, err := b.lateral(c, face, world.DirUp)
				if err != nil {
					return err
				}
				down, dk, err := b.lateral(c, face, world.DirDown)
				if err != nil {
					return err
				}
				node = &VerticalEdge{
					Up:         b.id(up),
					UpKind:     uk,
					Down:       b.id(down),
					DownKind:   dk,
					Back:       b.id(b.bg[t]),
					IsLeftSide: face == world.DirLeft,
				}
			}
			b.g.nodes[e] = node
		}
	}
	return nil
}

// linkSurface joins neighboring surface edges. Where a surface runs into
// a nest entrance, the surface edge is routed onto the entrance's near
// wall as an outward corner, and the entrance ceiling loses its link on
// that side so both ends of every link still agree.
func (b *builder) linkSurface() error {
	grid := b.grid
	for t := 0; t < grid.Len(); t++ {
		s := b.surface[t]
		if s < 0 {
			continue
		}
		c := grid.CoordOf(t)
		edge := &HorizontalEdge{}
		b.g.nodes[s] = edge

		for _, side := range [2]world.Dir{world.DirLeft, world.DirRight} {
			id, kind, err := b.surfaceLateral(s, c, side)
			if err != nil {
				return err
			}
			if side == world.DirLeft {
				edge.Left, edge.LeftKind = id, kind
			} else {
				edge.Right, edge.RightKind = id, kind
			}
		}
	}
	return nil
}

func (b *builder) surfaceLateral(s int32, c world.Coord, side world.Dir) (NodeID, NeighborKind, error) {
	grid := b.grid
	n := c.Step(side)
	if !grid.Is(n, world.CellOverground) {
		return NodeID{}, Straight, nil
	}
	below := n.Step(world.DirDown)
	if grid.Is(below, world.CellGround) {
		return b.id(b.surface[grid.Index(n)]), Straight, nil
	}
	if !grid.IsOpen(below) {
		// A drop to lower sky; the surface just ends.
		return NodeID{}, Straight, nil
	}

	// below is an entrance tile whose wall faces back toward c.
	wall := b.edge(below, side.Opposite())
	ceiling := b.edge(below, world.DirUp)
	if wall < 0 || ceiling < 0 {
		return NodeID{}, Straight, fmt.Errorf("%w: entrance %v lacks its %s wall or ceiling", ErrInconsistentGrid, below, side.Opposite())
	}
	v, ok := b.g.nodes[wall].(*VerticalEdge)
	if !ok {
		return NodeID{}, Straight, fmt.Errorf("%w: entrance wall at %v is not vertical", ErrInconsistentGrid, below)
	}
	v.Up, v.UpKind = b.id(s), Outward

	h, ok := b.g.nodes[ceiling].(*HorizontalEdge)
	if !ok {
		return NodeID{}, Straight, fmt.Errorf("%w: entrance ceiling at %v is not horizontal", ErrInconsistentGrid, below)
	}
	if side.Opposite() == world.DirLeft {
		h.Left, h.LeftKind = NodeID{}, Straight
	} else {
		h.Right, h.RightKind = NodeID{}, Straight
	}
	return b.id(wall), Outward, nil
}

// resolveLinks precomputes the present links of every node with the local
// direction each one leaves in.
func (b *builder) resolveLinks() {
	g := b.g
	g.links = make([][]Link, len(g.nodes))
	link := func(i int, to NodeID, dir LinkDir) {
		if to.Valid() {
			g.links[i] = append(g.links[i], Link{To: int(to.index), Dir: dir})
		}
	}
	for i, n := range g.nodes {
		switch n := n.(type) {
		case *Background:
			for _, l := range [4]struct {
				to  NodeID
				dir LinkDir
			}{{n.Up, LinkUp}, {n.Left, LinkLeft}, {n.Down, LinkDown}, {n.Right, LinkRight}} {
				dir := l.dir
				if g.nodes[l.to.index].Kind() != KindBackground {
					dir = LinkForeground
				}
				link(i, l.to, dir)
			}
		case *VerticalEdge:
			link(i, n.Up, LinkUp)
			link(i, n.Down, LinkDown)
			link(i, n.Back, LinkBackground)
		case *HorizontalEdge:
			link(i, n.Left, LinkLeft)
			link(i, n.Right, LinkRight)
			link(i, n.Back, LinkBackground)
		}
	}
}
