package world

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridFlipsRows(t *testing.T) {
	// Top row is sky, bottom row is ground.
	codes := []int{
		0, 0, 0,
		2, 2, 1,
		1, 1, 1,
	}
	g, err := NewGrid(3, 3, codes, 16)
	require.NoError(t, err)

	assert.True(t, g.Is(Coord{0, 2}, CellOverground))
	assert.True(t, g.Is(Coord{0, 1}, CellUnderground))
	assert.True(t, g.Is(Coord{2, 1}, CellGround))
	assert.True(t, g.Is(Coord{1, 0}, CellGround))
	assert.Equal(t, Coord{0, 2}, g.FromTop(0, 0))
	assert.Equal(t, codes, g.Codes())
}

func TestNewGridErrors(t *testing.T) {
	_, err := NewGrid(2, 2, []int{0, 1, 2}, 16)
	assert.ErrorIs(t, err, ErrBadGrid)

	_, err = NewGrid(2, 1, []int{0, 7}, 16)
	assert.ErrorIs(t, err, ErrBadGrid)

	_, err = NewGrid(1, 1, []int{2}, 0)
	assert.ErrorIs(t, err, ErrBadGrid)
}

func TestParseRows(t *testing.T) {
	g, err := ParseRows([]string{
		"~~~~",
		"#..#",
		"####",
	}, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, g.Width())
	assert.Equal(t, 3, g.Height())
	assert.True(t, g.IsOpen(Coord{1, 1}))
	assert.False(t, g.IsOpen(Coord{0, 1}))
	assert.False(t, g.IsOpen(Coord{0, 2}))
	assert.Equal(t, "    \n#..#\n####\n", g.String())

	_, err = ParseRows([]string{"#?#"}, 8)
	assert.ErrorIs(t, err, ErrBadGrid)
}

func TestNeighborAndCellAt(t *testing.T) {
	g, err := ParseRows([]string{"...", "..."}, 10)
	require.NoError(t, err)

	_, ok := g.Neighbor(Coord{0, 0}, DirLeft)
	assert.False(t, ok)
	n, ok := g.Neighbor(Coord{0, 0}, DirUp)
	assert.True(t, ok)
	assert.Equal(t, Coord{0, 1}, n)

	c, ok := g.CellAt(g.Center(Coord{2, 1}))
	assert.True(t, ok)
	assert.Equal(t, Coord{2, 1}, c)

	_, ok = g.CellAt(g.Center(Coord{2, 1}).Scale(2))
	assert.False(t, ok)

	assert.Equal(t, DirDown, DirUp.Opposite())
	assert.Equal(t, DirRight, DirLeft.Opposite())
}

func TestParseLevelMarkers(t *testing.T) {
	src := `; tiny nest
~~~~~
##.##
#F.S#
#.Q.#
#####
`
	lvl, err := ParseLevel(strings.NewReader(src), 16)
	require.NoError(t, err)
	require.Len(t, lvl.Objects, 2)
	require.Len(t, lvl.QueenSpawns, 1)

	g := lvl.Grid
	assert.Equal(t, 5, g.Height())
	assert.Equal(t, g.FromTop(1, 2), lvl.Objects[0].Coord)
	assert.Equal(t, ObjectFood, lvl.Objects[0].Kind)
	assert.Equal(t, ObjectStorage, lvl.Objects[1].Kind)
	assert.True(t, g.IsOpen(lvl.Objects[0].Coord))
	assert.Equal(t, g.FromTop(2, 3), lvl.QueenSpawns[0])
	assert.Contains(t, lvl.String(), "#F.S#")
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := SmallTestConfig()
	a, err := Generate(cfg)
	require.NoError(t, err)
	b, err := Generate(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Grid.String(), b.Grid.String())
	assert.Equal(t, a.Objects, b.Objects)
	assert.Positive(t, a.Grid.Count(CellUnderground))
	assert.Positive(t, a.Grid.Count(CellOverground))

	for _, o := range a.Objects {
		assert.True(t, a.Grid.IsOpen(o.Coord), "object at %v", o.Coord)
	}
	for _, q := range a.QueenSpawns {
		assert.True(t, a.Grid.IsOpen(q))
	}
}

func TestGenerateSingleNest(t *testing.T) {
	lvl, err := Generate(SmallTestConfig())
	require.NoError(t, err)
	g := lvl.Grid

	// Every open tile is reachable from every other open tile.
	var start Coord
	open := 0
	for i := 0; i < g.Len(); i++ {
		if c := g.CoordOf(i); g.IsOpen(c) {
			start = c
			open++
		}
	}
	seen := map[Coord]bool{start: true}
	queue := []Coord{start}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, d := range Dirs {
			n := c.Step(d)
			if g.IsOpen(n) && !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	assert.Equal(t, open, len(seen))
}

func TestGenConfigValidate(t *testing.T) {
	cfg := SmallTestConfig()
	cfg.Height = 6
	assert.ErrorIs(t, cfg.Validate(), ErrBadGrid)
	_, err := Generate(cfg)
	assert.Error(t, err)
}

func TestLoadLevel(t *testing.T) {
	lvl, err := LoadLevel("testdata/nest.txt", 16)
	require.NoError(t, err)
	assert.Equal(t, 12, lvl.Grid.Width())
	assert.Len(t, lvl.Objects, 3)
	assert.Len(t, lvl.QueenSpawns, 1)

	_, err = LoadLevel("testdata/missing.txt", 16)
	assert.Error(t, err)
}
