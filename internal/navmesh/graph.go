package navmesh

import (
	"fmt"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/world"
)

// Graph is the navigation graph of one level. It is immutable once Build
// returns; per-node payloads live in dense arrays owned by other packages
// and indexed by the same node index.
type Graph struct {
	gen   uint32
	grid  *world.Grid
	nodes []Node
	pos   []mathx.Vec3
	cell  []world.Coord
	links [][]Link
	owned [][]int32 // node indices owned by each grid tile
	lut   *LUT
	stats Stats
}

// Stats summarizes what Build produced.
type Stats struct {
	Background    int `json:"background"`
	WallEdges     int `json:"wall_edges"`     // Facing a ground or sky tile
	BoundaryEdges int `json:"boundary_edges"` // Facing the map border
	SurfaceEdges  int `json:"surface_edges"`  // Open ground outside the nest
	Vertical      int `json:"vertical"`
	Horizontal    int `json:"horizontal"`
}

// Edges returns the number of edge nodes of every kind.
func (s Stats) Edges() int {
	return s.WallEdges + s.BoundaryEdges + s.SurfaceEdges
}

// Nodes returns the total node count.
func (s Stats) Nodes() int {
	return s.Background + s.Edges()
}

func (g *Graph) Len() int { return len(g.nodes) }
func (g *Graph) Grid() *world.Grid { return g.grid }
func (g *Graph) LUT() *LUT { return g.lut }
func (g *Graph) Stats() Stats { return g.stats }
func (g *Graph) At(i int) Node { return g.nodes[i] }
func (g *Graph) PosAt(i int) mathx.Vec3 { return g.pos[i] }
func (g *Graph) CellAt(i int) world.Coord { return g.cell[i] }

// Links returns the present links of node i with their local direction.
// The slice is shared and must not be modified.
func (g *Graph) Links(i int) []Link { return g.links[i] }

// ID returns the handle of node index i.
func (g *Graph) ID(i int) NodeID {
	return NodeID{index: uint32(i), gen: g.gen}
}

// Index resolves id to a dense index.
func (g *Graph) Index(id NodeID) (int, error) {
	if !id.Valid() || int(id.index) >= len(g.nodes) {
		return -1, fmt.Errorf("%w: %v", ErrNoNode, id)
	}
	if id.gen != g.gen {
		return -1, fmt.Errorf("%w: %v (graph %d)", ErrStaleNode, id, g.gen)
	}
	return int(id.index), nil
}

// Owns reports whether id was minted by this graph.
func (g *Graph) Owns(id NodeID) bool {
	_, err := g.Index(id)
	return err == nil
}

// Node returns the node behind id.
func (g *Graph) Node(id NodeID) (Node, error) {
	i, err := g.Index(id)
	if err != nil {
		return nil, err
	}
	return g.nodes[i], nil
}

// Pos returns the world position of id.
func (g *Graph) Pos(id NodeID) (mathx.Vec3, error) {
	i, err := g.Index(id)
	if err != nil {
		return mathx.Zero, err
	}
	return g.pos[i], nil
}

// NodesIn returns the indices of every node owned by tile c: its
// background node followed by its edges.
func (g *Graph) NodesIn(c world.Coord) []int32 {
	i := g.grid.Index(c)
	if i < 0 {
		return nil
	}
	return g.owned[i]
}

// Each calls fn for every node in index order.
func (g *Graph) Each(fn func(i int, n Node)) {
	for i, n := range g.nodes {
		fn(i, n)
	}
}

// Generation returns the generation stamped on this graph's ids.
func (g *Graph) Generation() uint32 { return g.gen }
