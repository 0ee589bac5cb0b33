// Package navmesh builds the navigation graph ants walk on: one background
// node per open tile plus an oriented edge node for every wall surface
// bounding open space. Links are typed ids into the graph's node table.
package navmesh

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrInconsistentGrid is returned by Build when the grid breaks a
	// graph invariant. No partial graph is returned alongside it.
	ErrInconsistentGrid = errors.New("navmesh: inconsistent grid")
	// ErrStaleNode is returned for an id minted by a different graph.
	ErrStaleNode = errors.New("navmesh: stale node id")
	// ErrNoNode is returned for the zero id or an out-of-range index.
	ErrNoNode = errors.New("navmesh: no such node")
)

// generation is bumped for every graph built in this process.
var generation atomic.Uint32

// NodeID is a generation-checked handle into a Graph's node table.
// The zero value refers to no node.
type NodeID struct {
	index uint32
	gen   uint32
}

// Valid reports whether id refers to a node at all.
func (id NodeID) Valid() bool { return id.gen != 0 }

// Index returns the dense node index, or -1 for the zero id.
func (id NodeID) Index() int {
	if !id.Valid() {
		return -1
	}
	return int(id.index)
}

func (id NodeID) String() string {
	if !id.Valid() {
		return "none"
	}
	return fmt.Sprintf("%d@%d", id.index, id.gen)
}

// Kind identifies a node variant.
type Kind uint8

const (
	KindBackground Kind = iota // Open space inside a tile
	KindVertical               // Left or right facing wall
	KindHorizontal             // Ceiling or floor
)

func (k Kind) String() string {
	switch k {
	case KindBackground:
		return "background"
	case KindVertical:
		return "vertical"
	case KindHorizontal:
		return "horizontal"
	default:
		return "unknown"
	}
}

// NeighborKind describes how two linked wall edges meet.
type NeighborKind uint8

const (
	Straight NeighborKind = iota // The wall continues flat
	Inward                       // Concave corner inside the same tile
	Outward                      // Convex corner around the wall's tip
)

func (k NeighborKind) String() string {
	switch k {
	case Straight:
		return "straight"
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	default:
		return "unknown"
	}
}

// Node is one of *Background, *VerticalEdge or *HorizontalEdge.
type Node interface {
	Kind() Kind
	// Neighbors lists the links that are present.
	Neighbors() []NodeID
}

// Background is the open space of a tile.
type Background struct {
	Up, Left, Down, Right NodeID
}

// VerticalEdge is a wall on the left or right side of an open tile.
type VerticalEdge struct {
	Up         NodeID
	UpKind     NeighborKind
	Down       NodeID
	DownKind   NeighborKind
	Back       NodeID
	IsLeftSide bool
}

// HorizontalEdge is a ceiling (IsUpSide) or floor of a tile. Surface
// edges lying on open ground have no Back and may lack lateral links.
type HorizontalEdge struct {
	Left      NodeID
	LeftKind  NeighborKind
	Right     NodeID
	RightKind NeighborKind
	Back      NodeID
	IsUpSide  bool
}

func (*Background) Kind() Kind { return KindBackground }
func (*VerticalEdge) Kind() Kind { return KindVertical }
func (*HorizontalEdge) Kind() Kind { return KindHorizontal }

func (n *Background) Neighbors() []NodeID {
	return []NodeID{n.Up, n.Left, n.Down, n.Right}
}

func (n *VerticalEdge) Neighbors() []NodeID {
	return present(n.Up, n.Down, n.Back)
}

func (n *HorizontalEdge) Neighbors() []NodeID {
	return present(n.Left, n.Right, n.Back)
}

// IsSurface reports whether the edge lies on the open ground outside the nest.
func (n *HorizontalEdge) IsSurface() bool { return !n.Back.Valid() }

func present(ids ...NodeID) []NodeID {
	out := ids[:0]
	for _, id := range ids {
		if id.Valid() {
			out = append(out, id)
		}
	}
	return out
}

// LinkDir is the local direction a link leaves a node in. It decides
// which gradient component a neighbor contributes to.
type LinkDir uint8

const (
	LinkUp LinkDir = iota
	LinkLeft
	LinkDown
	LinkRight
	LinkBackground // From a wall to the open space behind it
	LinkForeground // From open space to a wall in front of it
)

func (d LinkDir) String() string {
	return [...]string{"up", "left", "down", "right", "background", "foreground"}[d]
}

// Link is a resolved, present neighbor.
type Link struct {
	To  int
	Dir LinkDir
}
