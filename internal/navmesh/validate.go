package navmesh

import (
	"errors"
	"fmt"
)

// Validate checks neighbor closure and corner symmetry: every background
// link resolves, every back link reaches a background node, and two
// linked wall edges classify each other the same way.
func (g *Graph) Validate() error {
	var errs []error
	resolve := func(i int, what string, id NodeID) (Node, bool) {
		j, err := g.Index(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("node %d %s: %w", i, what, err))
			return nil, false
		}
		return g.nodes[j], true
	}

	for i, n := range g.nodes {
		switch n := n.(type) {
		case *Background:
			resolve(i, "up", n.Up)
			resolve(i, "left", n.Left)
			resolve(i, "down", n.Down)
			resolve(i, "right", n.Right)
		case *VerticalEdge:
			if !n.Back.Valid() {
				errs = append(errs, fmt.Errorf("node %d: vertical edge without back", i))
			} else if b, ok := resolve(i, "back", n.Back); ok && b.Kind() != KindBackground {
				errs = append(errs, fmt.Errorf("node %d: back is %s", i, b.Kind()))
			}
			g.checkPair(i, n.Up, n.UpKind, &errs)
			g.checkPair(i, n.Down, n.DownKind, &errs)
		case *HorizontalEdge:
			if n.Back.Valid() {
				if b, ok := resolve(i, "back", n.Back); ok && b.Kind() != KindBackground {
					errs = append(errs, fmt.Errorf("node %d: back is %s", i, b.Kind()))
				}
			}
			g.checkPair(i, n.Left, n.LeftKind, &errs)
			g.checkPair(i, n.Right, n.RightKind, &errs)
		case nil:
			errs = append(errs, fmt.Errorf("node %d: never assigned", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistentGrid, errors.Join(errs...))
	}
	return nil
}

// checkPair verifies that the edge at to links back to from with kind.
func (g *Graph) checkPair(from int, to NodeID, kind NeighborKind, errs *[]error) {
	if !to.Valid() {
		return
	}
	j, err := g.Index(to)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("node %d: %w", from, err))
		return
	}
	back, ok := g.KindOf(j, g.ID(from))
	if !ok {
		*errs = append(*errs, fmt.Errorf("node %d links %d (%s) but not the other way", from, j, kind))
		return
	}
	if back != kind {
		*errs = append(*errs, fmt.Errorf("node %d calls %d %s but %d says %s", from, j, kind, j, back))
	}
}

// KindOf returns how edge i classifies its link to other, if it has one.
func (g *Graph) KindOf(i int, other NodeID) (NeighborKind, bool) {
	switch n := g.nodes[i].(type) {
	case *VerticalEdge:
		if n.Up == other {
			return n.UpKind, true
		}
		if n.Down == other {
			return n.DownKind, true
		}
	case *HorizontalEdge:
		if n.Left == other {
			return n.LeftKind, true
		}
		if n.Right == other {
			return n.RightKind, true
		}
	}
	return Straight, false
}
