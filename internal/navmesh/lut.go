package navmesh

import (
	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/world"
)

// LUT resolves world positions to background nodes in constant time.
// It is rebuilt together with its graph.
type LUT struct {
	gridNode    []NodeID // background node per tile, bottom row first
	gridEdges   [][4]NodeID
	gridIsEmpty []bool
	width       int
	height      int
	tileSize    float32
}

func newLUT(grid *world.Grid, bg []int32, edges [][4]int32, gen uint32) *LUT {
	l := &LUT{
		gridNode:    make([]NodeID, len(bg)),
		gridEdges:   make([][4]NodeID, len(bg)),
		gridIsEmpty: make([]bool, len(bg)),
		width:       grid.Width(),
		height:      grid.Height(),
		tileSize:    grid.TileSize(),
	}
	mk := func(i int32) NodeID {
		if i < 0 {
			return NodeID{}
		}
		return NodeID{index: uint32(i), gen: gen}
	}
	for t, i := range bg {
		l.gridNode[t] = mk(i)
		l.gridIsEmpty[t] = i >= 0
		for d := range edges[t] {
			l.gridEdges[t][d] = mk(edges[t][d])
		}
	}
	return l
}

// tile returns the tile index containing p. Points on the far map border
// belong to the last row or column.
func (l *LUT) tile(p mathx.Vec3) (int, bool) {
	w, h := l.Bounds()
	if !(p.X >= 0 && p.Y >= 0 && p.X <= w && p.Y <= h) {
		return -1, false
	}
	x := mathx.Clamp(int(p.X/l.tileSize), 0, l.width-1)
	y := mathx.Clamp(int(p.Y/l.tileSize), 0, l.height-1)
	return y*l.width + x, true
}

// Lookup returns the background node of the open tile containing p.
func (l *LUT) Lookup(p mathx.Vec3) (NodeID, bool) {
	t, ok := l.tile(p)
	if !ok || !l.gridIsEmpty[t] {
		return NodeID{}, false
	}
	return l.gridNode[t], true
}

// IsOpen reports whether p lies inside an open tile.
func (l *LUT) IsOpen(p mathx.Vec3) bool {
	_, ok := l.Lookup(p)
	return ok
}

// GridNode resolves a level-editor coordinate, with rows counted from the
// top, to the background node there.
func (l *LUT) GridNode(x, yTop int) (NodeID, bool) {
	return l.Node(world.Coord{X: x, Y: l.height - 1 - yTop})
}

// Node returns the background node of tile c.
func (l *LUT) Node(c world.Coord) (NodeID, bool) {
	if c.X < 0 || c.Y < 0 || c.X >= l.width || c.Y >= l.height {
		return NodeID{}, false
	}
	t := c.Y*l.width + c.X
	return l.gridNode[t], l.gridIsEmpty[t]
}

// Edges returns the edge nodes of tile c indexed by world.Dir. Missing
// edges are zero ids.
func (l *LUT) Edges(c world.Coord) [4]NodeID {
	if c.X < 0 || c.Y < 0 || c.X >= l.width || c.Y >= l.height {
		return [4]NodeID{}
	}
	return l.gridEdges[c.Y*l.width+c.X]
}

// Bounds returns the world-space extent of the map.
func (l *LUT) Bounds() (w, h float32) {
	return float32(l.width) * l.tileSize, float32(l.height) * l.tileSize
}

// TileSize returns the world size of one tile.
func (l *LUT) TileSize() float32 { return l.tileSize }
