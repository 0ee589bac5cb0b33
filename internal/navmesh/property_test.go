package navmesh

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/talgya/mini-colony/internal/world"
)

// randomGrid turns generated codes into a w x h grid, padding with sky
// when a shrunk slice is too short.
func randomGrid(w, h int, codes []int) (*world.Grid, error) {
	w, h = max(w, 1), max(h, 1)
	cells := make([]int, w*h)
	copy(cells, codes)
	return world.NewGrid(w, h, cells, 16)
}

// TestGraphInvariants checks closure and symmetry over arbitrary grids.
func TestGraphInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("built graphs validate", prop.ForAll(
		func(w, h int, codes []int) bool {
			grid, err := randomGrid(w, h, codes)
			if err != nil {
				return false
			}
			g, err := Build(grid)
			if grid.Count(world.CellUnderground) == 0 {
				return errors.Is(err, ErrInconsistentGrid)
			}
			if err != nil {
				return false
			}
			return g.Validate() == nil
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 8),
		gen.SliceOfN(64, gen.IntRange(0, 2)),
	))

	properties.Property("every open tile has one background node", prop.ForAll(
		func(w, h int, codes []int) bool {
			grid, err := randomGrid(w, h, codes)
			if err != nil {
				return false
			}
			g, err := Build(grid)
			if err != nil {
				return true
			}
			if g.Stats().Background != grid.Count(world.CellUnderground) || g.Stats().Nodes() != g.Len() {
				return false
			}
			for i := 0; i < grid.Len(); i++ {
				c := grid.CoordOf(i)
				id, ok := g.LUT().Node(c)
				if ok != grid.IsOpen(c) {
					return false
				}
				if ok && (g.CellAt(id.Index()) != c || g.At(id.Index()).Kind() != KindBackground) {
					return false
				}
				if ok {
					if got, found := g.LUT().Lookup(grid.Center(c)); !found || got != id {
						return false
					}
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 8),
		gen.SliceOfN(64, gen.IntRange(0, 2)),
	))

	properties.Property("links stay inside the graph", prop.ForAll(
		func(w, h int, codes []int) bool {
			grid, err := randomGrid(w, h, codes)
			if err != nil {
				return false
			}
			g, err := Build(grid)
			if err != nil {
				return true
			}
			for i := 0; i < g.Len(); i++ {
				for _, l := range g.Links(i) {
					if l.To < 0 || l.To >= g.Len() || l.To == i {
						return false
					}
				}
				if g.At(i).Kind() == KindBackground && len(g.Links(i)) != 4 {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
		gen.IntRange(1, 8),
		gen.SliceOfN(64, gen.IntRange(0, 2)),
	))

	properties.TestingRun(t)
}
