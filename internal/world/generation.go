// Level generation using layered simplex noise.
// Builds a sky band over an uneven surface, carves noise tunnels below it,
// digs an entrance shaft, and joins every cave to the entrance chamber.
package world

import (
	"fmt"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/mini-colony/internal/entropy"
)

// GenConfig holds level generation parameters.
type GenConfig struct {
	Width           int     // Tiles across
	Height          int     // Tiles down
	TileSize        float32 // World units per tile
	Seed            int64   // Random seed (0 = random)
	SkyRows         int     // Rows of sky above the highest surface point
	SurfaceJitter   int     // Surface height variation in tiles
	ShaftDepth      int     // Depth of the entrance chamber below the lowest surface point
	TunnelThreshold float64 // Noise level above which ground is carved (0.0–1.0)
	MinCave         int     // Caves smaller than this are filled back in
	FoodPiles       int
	StoragePiles    int
	Hazards         int
	FoodQuantity    float32
	Concentration   float32
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:           48,
		Height:          32,
		TileSize:        16,
		Seed:            0,
		SkyRows:         4,
		SurfaceJitter:   3,
		ShaftDepth:      3,
		TunnelThreshold: 0.58,
		MinCave:         4,
		FoodPiles:       3,
		StoragePiles:    1,
		FoodQuantity:    DefaultFoodQuantity,
		Concentration:   DefaultConcentration,
	}
}

// SmallTestConfig returns a tiny level for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:           20,
		Height:          16,
		TileSize:        16,
		Seed:            42,
		SkyRows:         3,
		SurfaceJitter:   2,
		ShaftDepth:      2,
		TunnelThreshold: 0.55,
		MinCave:         3,
		FoodPiles:       2,
		StoragePiles:    1,
		FoodQuantity:    20,
		Concentration:   DefaultConcentration,
	}
}

// Validate checks that the configuration can produce a level.
func (cfg GenConfig) Validate() error {
	if cfg.Width < 5 || cfg.Height < 5 {
		return fmt.Errorf("%w: level %dx%d too small", ErrBadGrid, cfg.Width, cfg.Height)
	}
	if cfg.SkyRows < 1 || cfg.SurfaceJitter < 0 || cfg.ShaftDepth < 2 {
		return fmt.Errorf("%w: sky %d jitter %d shaft %d", ErrBadGrid, cfg.SkyRows, cfg.SurfaceJitter, cfg.ShaftDepth)
	}
	if chamberRow(cfg)+2 >= cfg.Height {
		return fmt.Errorf("%w: height %d leaves no room below the surface", ErrBadGrid, cfg.Height)
	}
	if !(cfg.TileSize > 0) {
		return fmt.Errorf("%w: tile size %v", ErrBadGrid, cfg.TileSize)
	}
	return nil
}

// chamberRow is the top-origin row of the entrance chamber floor.
func chamberRow(cfg GenConfig) int {
	return cfg.SkyRows + cfg.SurfaceJitter + cfg.ShaftDepth
}

// Generate creates a complete level with its objects placed.
func Generate(cfg GenConfig) (*Level, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = entropy.CryptoSeed()
	}

	surfNoise := opensimplex.NewNormalized(seed)
	caveNoise := opensimplex.NewNormalized(seed + 1)

	w, h := cfg.Width, cfg.Height
	// codes are indexed top row first, like level files.
	codes := make([]int, w*h)
	at := func(x, yTop int) *int { return &codes[yTop*w+x] }

	surface := make([]int, w)
	for x := 0; x < w; x++ {
		n := octaveNoise(surfNoise, float64(x), 0, 3, 0.09, 0.5)
		surface[x] = cfg.SkyRows + int(n*float64(cfg.SurfaceJitter+1))
		if surface[x] > cfg.SkyRows+cfg.SurfaceJitter {
			surface[x] = cfg.SkyRows + cfg.SurfaceJitter
		}
		for yTop := 0; yTop < h; yTop++ {
			if yTop < surface[x] {
				*at(x, yTop) = CodeOverground
			} else {
				*at(x, yTop) = CodeGround
			}
		}
	}

	// Tunnels stay at least two rows under the surface and off the border.
	for yTop := 1; yTop < h-1; yTop++ {
		for x := 1; x < w-1; x++ {
			if yTop < surface[x]+2 {
				continue
			}
			n := octaveNoise(caveNoise, float64(x), float64(yTop)*1.6, 3, 0.11, 0.5)
			if n > cfg.TunnelThreshold {
				*at(x, yTop) = CodeUnderground
			}
		}
	}

	// Entrance shaft from the surface down to a small chamber.
	rng := entropy.NewRand(seed, entropy.StreamLevel)
	ex := w/4 + rng.Intn(w/2)
	if ex < 2 {
		ex = 2
	}
	if ex > w-3 {
		ex = w - 3
	}
	floor := chamberRow(cfg)
	for yTop := surface[ex]; yTop <= floor; yTop++ {
		*at(ex, yTop) = CodeUnderground
	}
	for dx := -1; dx <= 1; dx++ {
		*at(ex+dx, floor) = CodeUnderground
		*at(ex+dx, floor-1) = CodeUnderground
	}

	joinCaves(codes, w, h, ex, floor, cfg.MinCave)

	g, err := NewGrid(w, h, codes, cfg.TileSize)
	if err != nil {
		return nil, fmt.Errorf("generate level: %w", err)
	}

	lvl := &Level{Grid: g, Seed: seed}
	placeObjects(lvl, cfg, g.FromTop(ex, floor), rng)
	return lvl, nil
}

// joinCaves fills caves smaller than minCave and digs an L-shaped tunnel
// from every other cave to the entrance chamber at (ex, floor).
func joinCaves(codes []int, w, h, ex, floor, minCave int) {
	label := make([]int, len(codes))
	for i := range label {
		label[i] = -1
	}

	var caves [][]int
	for start := range codes {
		if codes[start] != CodeUnderground || label[start] >= 0 {
			continue
		}
		id := len(caves)
		cells := []int{start}
		label[start] = id
		for k := 0; k < len(cells); k++ {
			i := cells[k]
			x, yTop := i%w, i/w
			for _, n := range [4][2]int{{x, yTop - 1}, {x - 1, yTop}, {x, yTop + 1}, {x + 1, yTop}} {
				if n[0] < 0 || n[1] < 0 || n[0] >= w || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if codes[j] == CodeUnderground && label[j] < 0 {
					label[j] = id
					cells = append(cells, j)
				}
			}
		}
		caves = append(caves, cells)
	}

	root := label[floor*w+ex]
	for id, cells := range caves {
		if id == root {
			continue
		}
		if len(cells) < minCave {
			for _, i := range cells {
				codes[i] = CodeGround
			}
			continue
		}
		// Horizontal run along the chamber floor, then vertical to the cave.
		tx, ty := cells[0]%w, cells[0]/w
		step := 1
		if tx < ex {
			step = -1
		}
		for x := ex; x != tx+step; x += step {
			codes[floor*w+x] = CodeUnderground
		}
		ystep := 1
		if ty < floor {
			ystep = -1
		}
		for yTop := floor; yTop != ty+ystep; yTop += ystep {
			codes[yTop*w+tx] = CodeUnderground
		}
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// CellCounts returns a summary of cell type distribution.
func CellCounts(g *Grid) map[Cell]int {
	return map[Cell]int{
		CellGround:      g.Count(CellGround),
		CellUnderground: g.Count(CellUnderground),
		CellOverground:  g.Count(CellOverground),
	}
}
