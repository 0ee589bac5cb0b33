package agents

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/world"
)

func buildGraph(t *testing.T, rows ...string) *navmesh.Graph {
	t.Helper()
	grid, err := world.ParseRows(rows, 16)
	require.NoError(t, err)
	g, err := navmesh.Build(grid)
	require.NoError(t, err)
	return g
}

// room has open tiles x=1..3, y=1..2 with walls all around.
func room(t *testing.T) *navmesh.Graph {
	return buildGraph(t,
		"#####",
		"#...#",
		"#...#",
		"#####",
	)
}

// pillar has a single ground tile at (2,2) in the middle of a 3x3 room.
func pillar(t *testing.T) *navmesh.Graph {
	return buildGraph(t,
		"#####",
		"#...#",
		"#.#.#",
		"#...#",
		"#####",
	)
}

func edge(t *testing.T, g *navmesh.Graph, x, y int, d world.Dir) navmesh.NodeID {
	t.Helper()
	id := g.LUT().Edges(world.Coord{X: x, Y: y})[d]
	require.True(t, id.Valid(), "no %s edge at (%d,%d)", d, x, y)
	return id
}

func placed(t *testing.T, g *navmesh.Graph, id navmesh.NodeID) *Ant {
	t.Helper()
	a := &Ant{ID: 1, Speed: 10, Alive: true}
	require.NoError(t, PlaceOnNode(a, g, id, DefaultMoveParams()))
	return a
}

func TestEffectiveDt(t *testing.T) {
	assert.InDelta(t, 16.0/4/24, EffectiveDt(1, 24, 16), 1e-6)
	assert.Equal(t, 0.01, EffectiveDt(0.01, 24, 16))
	assert.Equal(t, 0.5, EffectiveDt(0.5, 0, 16))
	assert.Equal(t, 0.0, EffectiveDt(-1, 24, 16))
	assert.Equal(t, 0.0, EffectiveDt(math.NaN(), 24, 16))
}

func TestPlaceOnNode(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()

	bg, ok := g.LUT().Node(world.Coord{X: 2, Y: 1})
	require.True(t, ok)
	a := placed(t, g, bg)
	assert.Equal(t, Background{}, a.Position)
	assert.Equal(t, mathx.V3(40, 24, 0), a.Pos)

	floor := edge(t, g, 2, 1, world.DirDown)
	a = placed(t, g, floor)
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
	assert.Equal(t, float32(16+3.5), a.Pos.Y)
	assert.Equal(t, p.WallDepth(), a.Pos.Z)
	assert.Equal(t, floor, a.CurrentNode)

	right := edge(t, g, 3, 2, world.DirRight)
	a = placed(t, g, right)
	assert.Equal(t, VerticalWall{IsLeftSide: false}, a.Position)
	assert.Equal(t, float32(64-3.5), a.Pos.X)
}

func TestCeilingToBackground(t *testing.T) {
	g := room(t)
	ceiling := edge(t, g, 2, 2, world.DirUp)
	a := placed(t, g, ceiling)
	a.Pos.Z = 0

	require.NoError(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()))
	assert.Equal(t, Background{}, a.Position)
	assert.Equal(t, float32(-1), a.Direction.Y)
	assert.Equal(t, float32(48-3.5-1), a.Pos.Y)

	bg, _ := g.LUT().Node(world.Coord{X: 2, Y: 2})
	assert.Equal(t, bg, a.CurrentNode)
}

func TestWallToBackground(t *testing.T) {
	g := room(t)
	left := edge(t, g, 1, 1, world.DirLeft)
	a := placed(t, g, left)
	a.Pos.Z = 0.5

	require.NoError(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()))
	assert.Equal(t, Background{}, a.Position)
	assert.Equal(t, float32(1), a.Direction.X)
	assert.Equal(t, float32(16+3.5+1), a.Pos.X)
}

func TestBackgroundToClosestWall(t *testing.T) {
	g := room(t)
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})
	a := placed(t, g, bg)
	a.Pos = mathx.V3(22, 18, 0)

	floor := edge(t, g, 1, 1, world.DirDown)
	left := edge(t, g, 1, 1, world.DirLeft)
	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{left, floor, bg}, g, DefaultMoveParams()))

	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
	assert.Equal(t, floor, a.CurrentNode)
	assert.Equal(t, float32(19.5), a.Pos.Y)
	assert.Equal(t, float32(0.5), a.Pos.Z)
	assert.Equal(t, float32(1), a.Direction.Z)
}

func TestBackgroundFollowsLookup(t *testing.T) {
	g := room(t)
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})
	a := placed(t, g, bg)
	a.Pos = mathx.V3(56, 40, 0)

	require.NoError(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()))
	want, _ := g.LUT().Node(world.Coord{X: 3, Y: 2})
	assert.Equal(t, want, a.CurrentNode)
}

func TestFloorToPerpendicularWall(t *testing.T) {
	g := room(t)
	floor := edge(t, g, 3, 1, world.DirDown)
	right := edge(t, g, 3, 1, world.DirRight)
	a := placed(t, g, floor)

	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{floor, right}, g, DefaultMoveParams()))
	// The floor midpoint is closer, so the ant stays on it.
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)

	a.Pos.X = 62
	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{floor, right}, g, DefaultMoveParams()))
	assert.Equal(t, VerticalWall{IsLeftSide: false}, a.Position)
	assert.Equal(t, right, a.CurrentNode)
	assert.Equal(t, float32(1), a.Direction.Y)
}

func TestOuterCornerTurn(t *testing.T) {
	g := pillar(t)
	ceiling := edge(t, g, 2, 1, world.DirUp)
	a := placed(t, g, ceiling)
	a.Direction = mathx.V3(1, 0, 0)

	require.NoError(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()))
	wall := edge(t, g, 3, 2, world.DirLeft)
	assert.Equal(t, VerticalWall{IsLeftSide: true}, a.Position)
	assert.Equal(t, wall, a.CurrentNode)
	assert.Equal(t, float32(48+3.5), a.Pos.X)
	// Just inside the wall's lower end, where it bends round the pillar.
	assert.Equal(t, float32(36+3.5), a.Pos.Y)
	assert.Equal(t, float32(1), a.Direction.Y)

	// Past the top of the wall the ant turns onto the pillar's top.
	a.Pos.Y = 45
	require.NoError(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()))
	top := edge(t, g, 2, 3, world.DirDown)
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
	assert.Equal(t, top, a.CurrentNode)
	assert.Equal(t, mathx.V3(44-3.5, 48+3.5, a.Pos.Z), a.Pos)
	assert.Equal(t, float32(-1), a.Direction.X)
}

func TestContactOntoOutwardNeighbor(t *testing.T) {
	g := pillar(t)
	ceiling := edge(t, g, 2, 1, world.DirUp)
	wall := edge(t, g, 3, 2, world.DirLeft)

	a := placed(t, g, ceiling)
	a.Direction = mathx.V3(1, 0, 0)
	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{wall}, g, DefaultMoveParams()))
	assert.Equal(t, VerticalWall{IsLeftSide: true}, a.Position)
	assert.Equal(t, wall, a.CurrentNode)
	assert.Equal(t, float32(39.5), a.Pos.Y)
	// Up around the pillar, not down off it.
	assert.Equal(t, float32(1), a.Direction.Y)

	top := edge(t, g, 2, 3, world.DirDown)
	a = placed(t, g, wall)
	a.Direction = mathx.V3(0, 1, 0)
	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{top}, g, DefaultMoveParams()))
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
	assert.Equal(t, float32(40.5), a.Pos.X)
	assert.Equal(t, float32(-1), a.Direction.X)
}

func TestIgnoresWallFacingAway(t *testing.T) {
	g := pillar(t)
	floor := edge(t, g, 2, 1, world.DirDown)
	ceiling := edge(t, g, 2, 1, world.DirUp)

	// A ceiling touched from a floor is not a corner; with the floor lost
	// the run is checked as usual.
	a := placed(t, g, floor)
	a.Direction = mathx.V3(1, 0, 0)
	assert.ErrorIs(t, UpdatePositionKind(a, []navmesh.NodeID{ceiling}, g, DefaultMoveParams()), ErrMissedCollision)

	a = placed(t, g, floor)
	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{ceiling, floor}, g, DefaultMoveParams()))
	assert.Equal(t, floor, a.CurrentNode)
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
}

func TestBackgroundAttachStaysOnCollider(t *testing.T) {
	g := pillar(t)
	ceiling := edge(t, g, 2, 1, world.DirUp)
	bg, _ := g.LUT().Node(world.Coord{X: 2, Y: 1})
	a := placed(t, g, bg)
	a.Pos = mathx.V3(46, 30, 0)

	require.NoError(t, UpdatePositionKind(a, []navmesh.NodeID{ceiling}, g, DefaultMoveParams()))
	assert.Equal(t, HorizontalWall{IsUpSide: true}, a.Position)
	// The ceiling under the pillar bends up at x=44.
	assert.Equal(t, mathx.V3(43.5, 28.5, 0.5), a.Pos)
}

func TestMissedCollision(t *testing.T) {
	g := pillar(t)

	// The floor continues straight, so losing every contact is a miss.
	floor := edge(t, g, 2, 1, world.DirDown)
	a := placed(t, g, floor)
	a.Direction = mathx.V3(1, 0, 0)
	assert.ErrorIs(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()), ErrMissedCollision)

	// Wall state attached to a background node.
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})
	a = placed(t, g, bg)
	a.Position = HorizontalWall{}
	a.Pos.Z = 5
	assert.ErrorIs(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()), ErrMissedCollision)

	a.Position = nil
	assert.ErrorIs(t, UpdatePositionKind(a, nil, g, DefaultMoveParams()), ErrMissedCollision)
}

func TestSurfaceBlocksLeavingWall(t *testing.T) {
	g := buildGraph(t,
		"~~~~~",
		"##.##",
		"#...#",
		"#####",
	)
	owned := g.NodesIn(world.Coord{X: 0, Y: 3})
	require.Len(t, owned, 1)
	surface := g.ID(int(owned[0]))
	p := DefaultMoveParams()

	a := placed(t, g, surface)
	a.Pos.Z = 0
	a.Direction = mathx.V3(-1, 0, -1)
	require.NoError(t, UpdatePositionKind(a, nil, g, p))
	assert.Equal(t, HorizontalWall{IsUpSide: false}, a.Position)
	assert.Equal(t, 2*p.WallClipping, a.Pos.Z)
	assert.Equal(t, float32(1), a.Direction.Z)

	// Walking off the map edge turns the ant around.
	a.Pos.Z = p.WallDepth()
	require.NoError(t, UpdatePositionKind(a, nil, g, p))
	assert.Equal(t, float32(1), a.Direction.X)
	assert.Equal(t, surface, a.CurrentNode)
}

func TestIntegrateBackground(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})

	a := placed(t, g, bg)
	a.Direction = mathx.V3(2, 0, 0)
	Integrate(a, 0.1, g.LUT(), p)
	assert.InDelta(t, 25, a.Pos.X, 1e-5)
	assert.InDelta(t, 24, a.Pos.Y, 1e-5)

	// A fast ant covers at most a quarter tile.
	a.Speed = 100
	Integrate(a, 1, g.LUT(), p)
	assert.InDelta(t, 29, a.Pos.X, 1e-4)

	// Stepping into the wall tile pushes the ant back and turns it.
	a.Pos = mathx.V3(62, 24, 0)
	a.Speed = 40
	Integrate(a, 0.1, g.LUT(), p)
	assert.Equal(t, float32(62), a.Pos.X)
	assert.Equal(t, float32(-2), a.Direction.X)
}

func TestIntegrateWalls(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()

	a := placed(t, g, edge(t, g, 1, 1, world.DirLeft))
	a.Direction = mathx.V3(0, 1, 1)
	a.Pos.Z = 7.9
	y := a.Pos.Y
	Integrate(a, 0.1, g.LUT(), p)
	assert.InDelta(t, y+1, a.Pos.Y, 1e-5)
	assert.Equal(t, p.WallDepth(), a.Pos.Z)

	// Zero direction still walks forward.
	a = placed(t, g, edge(t, g, 2, 1, world.DirDown))
	a.Direction = mathx.V3(0, 0, -1)
	x := a.Pos.X
	Integrate(a, 0.1, g.LUT(), p)
	assert.InDelta(t, x+1, a.Pos.X, 1e-5)
	assert.InDelta(t, p.WallDepth()-1, a.Pos.Z, 1e-5)
}

func TestIntegrateClampsToMap(t *testing.T) {
	g := buildGraph(t, "...")
	p := DefaultMoveParams()
	a := placed(t, g, edge(t, g, 2, 0, world.DirDown))
	a.Pos.X = 47.5
	a.Direction = mathx.V3(1, 0, 0)
	Integrate(a, 0.1, g.LUT(), p)
	assert.Equal(t, float32(48), a.Pos.X)
}

func TestUpdateDirectionSteers(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})
	rng := rand.New(rand.NewSource(1))

	a := placed(t, g, bg)
	a.Direction = mathx.V3(1, 0, 0)
	grad := mathx.V3(0, 3, 0)
	UpdateDirection(a, grad, 10, rng, p)
	assert.Equal(t, grad, a.Direction)
	assert.Equal(t, 10.0, a.LastDirectionUpdate)

	// Inside the debounce the gradient is ignored.
	a.Direction = mathx.V3(1, 0, 0)
	for i := range 50 {
		UpdateDirection(a, grad, 10+float64(i)*0.004, rng, p)
		assert.Equal(t, 10.0, a.LastDirectionUpdate)
		assert.InDelta(t, 1, a.Direction.Len(), 1e-4)
	}
}

func TestUpdateDirectionWallDebounce(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()
	rng := rand.New(rand.NewSource(2))

	a := placed(t, g, edge(t, g, 1, 1, world.DirDown))
	a.Direction = mathx.V3(1, 0, 1)
	for range 100 {
		UpdateDirection(a, mathx.V3(0, 0, -1), 0.9, rng, p)
		assert.Equal(t, 0.0, a.LastDirectionUpdate)
		assert.Equal(t, mathx.V3(1, 0, 1), a.Direction)
	}
}

func TestUpdateDirectionWanders(t *testing.T) {
	g := room(t)
	p := DefaultMoveParams()
	rng := rand.New(rand.NewSource(3))
	bg, _ := g.LUT().Node(world.Coord{X: 1, Y: 1})

	a := placed(t, g, bg)
	start := mathx.V3(1, 0, 0)
	a.Direction = start
	for i := range 500 {
		UpdateDirection(a, mathx.Zero, float64(i)*0.02, rng, p)
	}
	assert.NotEqual(t, start, a.Direction)
	assert.InDelta(t, 1, a.Direction.Len(), 1e-3)
	assert.Equal(t, float32(0), a.Direction.Z)
	assert.Equal(t, 0.0, a.LastDirectionUpdate)
}

func TestMoveParamsValidate(t *testing.T) {
	require.NoError(t, DefaultMoveParams().Validate())

	p := DefaultMoveParams()
	p.TileSize = 0
	assert.Error(t, p.Validate())

	p = DefaultMoveParams()
	p.WallClipping = 3
	assert.Error(t, p.Validate())

	p = DefaultMoveParams()
	p.WideTurnChance = 0.5
	assert.Error(t, p.Validate())
}

func TestPositionStrings(t *testing.T) {
	assert.Equal(t, "background", Background{}.String())
	assert.Equal(t, "left_wall", VerticalWall{IsLeftSide: true}.String())
	assert.Equal(t, "floor", HorizontalWall{}.String())
	assert.True(t, OnWall(HorizontalWall{}))
	assert.False(t, OnWall(Background{}))
	assert.False(t, OnWall(nil))
}
