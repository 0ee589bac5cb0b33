// Package world provides the tile grid the colony lives in, its cell
// classification, and the procedural level generator.
// Level rows are authored top-to-bottom; the grid stores them bottom-to-top
// so that y grows upward like world coordinates.
package world

import (
	"errors"
	"fmt"
	"strings"

	"github.com/talgya/mini-colony/internal/mathx"
)

// ErrBadGrid is returned when raw level data cannot be turned into a grid.
var ErrBadGrid = errors.New("world: malformed grid")

// Cell classifies a single tile.
type Cell uint8

const (
	CellGround      Cell = iota // Solid ground, never walkable
	CellUnderground             // Open tunnel space inside the nest
	CellOverground              // Open sky above the surface
)

// Integer codes used by level files (IntGrid layer values).
const (
	CodeOverground  = 0
	CodeGround      = 1
	CodeUnderground = 2
)

// CellFromCode maps a level code to a Cell.
func CellFromCode(code int) (Cell, error) {
	switch code {
	case CodeOverground:
		return CellOverground, nil
	case CodeGround:
		return CellGround, nil
	case CodeUnderground:
		return CellUnderground, nil
	default:
		return CellGround, fmt.Errorf("%w: unknown cell code %d", ErrBadGrid, code)
	}
}

// Code returns the level code of c.
func (c Cell) Code() int {
	switch c {
	case CellOverground:
		return CodeOverground
	case CellUnderground:
		return CodeUnderground
	default:
		return CodeGround
	}
}

// Rune returns the character used for c in text levels.
func (c Cell) Rune() rune {
	switch c {
	case CellOverground:
		return ' '
	case CellUnderground:
		return '.'
	default:
		return '#'
	}
}

// String returns a human-readable name for a cell type.
func (c Cell) String() string {
	switch c {
	case CellGround:
		return "Ground"
	case CellUnderground:
		return "EmptyUnderground"
	case CellOverground:
		return "EmptyOverground"
	default:
		return "Unknown"
	}
}

// Coord addresses a tile with the origin at the bottom-left corner.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Dir is one of the four grid directions.
type Dir uint8

const (
	DirUp Dir = iota
	DirLeft
	DirDown
	DirRight
)

// Dirs lists the four directions in link order.
var Dirs = [4]Dir{DirUp, DirLeft, DirDown, DirRight}

// Offset returns the unit step for d.
func (d Dir) Offset() Coord {
	switch d {
	case DirUp:
		return Coord{0, 1}
	case DirLeft:
		return Coord{-1, 0}
	case DirDown:
		return Coord{0, -1}
	default:
		return Coord{1, 0}
	}
}

// Opposite returns the reverse direction.
func (d Dir) Opposite() Dir {
	return (d + 2) % 4
}

// Vertical reports whether d is up or down.
func (d Dir) Vertical() bool {
	return d == DirUp || d == DirDown
}

func (d Dir) String() string {
	return [4]string{"up", "left", "down", "right"}[d%4]
}

// Step returns c moved one tile in direction d.
func (c Coord) Step(d Dir) Coord {
	o := d.Offset()
	return Coord{c.X + o.X, c.Y + o.Y}
}

// Grid is an immutable classified tile grid.
type Grid struct {
	width    int
	height   int
	tileSize float32
	cells    []Cell // bottom row first
}

// NewGrid builds a grid from row-major level codes listed top row first.
func NewGrid(width, height int, codes []int, tileSize float32) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadGrid, width, height)
	}
	if len(codes) != width*height {
		return nil, fmt.Errorf("%w: %d codes for %dx%d grid", ErrBadGrid, len(codes), width, height)
	}
	if !(tileSize > 0) {
		return nil, fmt.Errorf("%w: tile size %v", ErrBadGrid, tileSize)
	}

	g := &Grid{
		width:    width,
		height:   height,
		tileSize: tileSize,
		cells:    make([]Cell, len(codes)),
	}
	for i, code := range codes {
		cell, err := CellFromCode(code)
		if err != nil {
			return nil, fmt.Errorf("code %d at row %d col %d: %w", code, i/width, i%width, err)
		}
		// Row i/width counted from the top lands at y = height-1-row.
		c := g.FromTop(i%width, i/width)
		g.cells[g.index(c)] = cell
	}
	return g, nil
}

// ParseRows builds a grid from text rows, top row first. '#' is ground,
// '.' is underground space, ' ' and '~' are sky. Short rows are padded
// with sky. Object markers understood by ParseLevel are rejected here.
func ParseRows(rows []string, tileSize float32) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadGrid)
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	codes := make([]int, 0, width*len(rows))
	for y, r := range rows {
		for x := 0; x < width; x++ {
			ch := byte(' ')
			if x < len(r) {
				ch = r[x]
			}
			code, ok := codeForRune(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unexpected %q at row %d col %d", ErrBadGrid, ch, y, x)
			}
			codes = append(codes, code)
		}
	}
	return NewGrid(width, len(rows), codes, tileSize)
}

func codeForRune(ch byte) (int, bool) {
	switch ch {
	case '#':
		return CodeGround, true
	case '.':
		return CodeUnderground, true
	case ' ', '~':
		return CodeOverground, true
	}
	return 0, false
}

func (g *Grid) Width() int { return g.width }
func (g *Grid) Height() int { return g.height }
func (g *Grid) TileSize() float32 { return g.tileSize }
func (g *Grid) Len() int { return len(g.cells) }
func (g *Grid) index(c Coord) int { return c.Y*g.width + c.X }
func (g *Grid) CoordOf(i int) Coord { return Coord{i % g.width, i / g.width} }

// Index returns the dense index of c, or -1 when c is outside the grid.
func (g *Grid) Index(c Coord) int {
	if !g.InBounds(c) {
		return -1
	}
	return g.index(c)
}

// InBounds reports whether c lies inside the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.width && c.Y < g.height
}

// At returns the cell at c. The second result is false outside the grid.
func (g *Grid) At(c Coord) (Cell, bool) {
	if !g.InBounds(c) {
		return CellGround, false
	}
	return g.cells[g.index(c)], true
}

// IsOpen reports whether c is walkable nest space.
func (g *Grid) IsOpen(c Coord) bool {
	cell, ok := g.At(c)
	return ok && cell == CellUnderground
}

// Is reports whether c exists and holds the given cell type.
func (g *Grid) Is(c Coord, want Cell) bool {
	cell, ok := g.At(c)
	return ok && cell == want
}

// Neighbor returns the coordinate next to c in direction d, if it exists.
func (g *Grid) Neighbor(c Coord, d Dir) (Coord, bool) {
	n := c.Step(d)
	return n, g.InBounds(n)
}

// FromTop converts a level-editor coordinate (row counted from the top)
// into a grid coordinate.
func (g *Grid) FromTop(x, yTop int) Coord {
	return Coord{X: x, Y: g.height - 1 - yTop}
}

// Center returns the world position of the center of tile c.
func (g *Grid) Center(c Coord) mathx.Vec3 {
	return mathx.V3((float32(c.X)+0.5)*g.tileSize, (float32(c.Y)+0.5)*g.tileSize, 0)
}

// Bounds returns the world-space extent of the grid.
func (g *Grid) Bounds() (w, h float32) {
	return float32(g.width) * g.tileSize, float32(g.height) * g.tileSize
}

// CellAt returns the tile containing world position p.
func (g *Grid) CellAt(p mathx.Vec3) (Coord, bool) {
	if !(p.X >= 0 && p.Y >= 0) {
		return Coord{}, false
	}
	c := Coord{X: int(p.X / g.tileSize), Y: int(p.Y / g.tileSize)}
	return c, g.InBounds(c)
}

// Count returns how many tiles hold the given cell type.
func (g *Grid) Count(want Cell) int {
	n := 0
	for _, c := range g.cells {
		if c == want {
			n++
		}
	}
	return n
}

// Codes returns the level codes, top row first.
func (g *Grid) Codes() []int {
	out := make([]int, 0, len(g.cells))
	for yTop := 0; yTop < g.height; yTop++ {
		for x := 0; x < g.width; x++ {
			out = append(out, g.cells[g.index(g.FromTop(x, yTop))].Code())
		}
	}
	return out
}

// String renders the grid as text rows, top row first.
func (g *Grid) String() string {
	var b strings.Builder
	for yTop := 0; yTop < g.height; yTop++ {
		for x := 0; x < g.width; x++ {
			b.WriteRune(g.cells[g.index(g.FromTop(x, yTop))].Rune())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
