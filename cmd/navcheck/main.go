// Command navcheck builds the navigation graph of a level, validates it
// and prints its statistics.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/world"
)

// Report is the summary navcheck prints.
type Report struct {
	Width     int                     `json:"width"`
	Height    int                     `json:"height"`
	Nodes     int                     `json:"nodes"`
	Stats     navmesh.Stats           `json:"stats"`
	Corners   map[string]int          `json:"corners"`
	Links     map[string]int          `json:"links"`
	LookupBad []world.Coord           `json:"lookup_mismatches,omitempty"`
	Valid     bool                    `json:"valid"`
	Errors    []string                `json:"errors,omitempty"`
	Objects   []world.ObjectPlacement `json:"objects"`
}

func main() {
	levelPath := flag.String("level", "", "text level file (generated when empty)")
	seed := flag.Int64("seed", 1, "generator seed")
	width := flag.Int("width", 0, "generated level width in tiles")
	height := flag.Int("height", 0, "generated level height in tiles")
	tile := flag.Float64("tile", 16, "tile size in world units")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	showMap := flag.Bool("map", false, "print the level grid")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	lvl, err := loadLevel(*levelPath, *seed, *width, *height, float32(*tile))
	if err != nil {
		slog.Error("level failed", "error", err)
		os.Exit(1)
	}
	g, err := navmesh.Build(lvl.Grid)
	if err != nil {
		slog.Error("build failed", "error", err)
		os.Exit(1)
	}

	rep := check(lvl, g)
	if *showMap {
		fmt.Println(lvl.String())
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			slog.Error("encode failed", "error", err)
			os.Exit(1)
		}
	} else {
		printReport(rep)
	}
	if !rep.Valid {
		os.Exit(2)
	}
}

func loadLevel(path string, seed int64, width, height int, tile float32) (*world.Level, error) {
	if path != "" {
		return world.LoadLevel(path, tile)
	}
	cfg := world.DefaultGenConfig()
	cfg.Seed = seed
	cfg.TileSize = tile
	if width > 0 {
		cfg.Width = width
	}
	if height > 0 {
		cfg.Height = height
	}
	return world.Generate(cfg)
}

// check validates g and tallies its corners and links. Every open tile's
// center must look up to a background node of that same tile.
func check(lvl *world.Level, g *navmesh.Graph) Report {
	rep := Report{
		Width:   lvl.Grid.Width(),
		Height:  lvl.Grid.Height(),
		Nodes:   g.Len(),
		Stats:   g.Stats(),
		Corners: make(map[string]int),
		Links:   make(map[string]int),
		Objects: lvl.Objects,
		Valid:   true,
	}

	if err := g.Validate(); err != nil {
		rep.Valid = false
		rep.Errors = append(rep.Errors, err.Error())
	}

	g.Each(func(i int, n navmesh.Node) {
		switch e := n.(type) {
		case *navmesh.VerticalEdge:
			rep.Corners[e.UpKind.String()]++
			rep.Corners[e.DownKind.String()]++
		case *navmesh.HorizontalEdge:
			if e.Left.Valid() {
				rep.Corners[e.LeftKind.String()]++
			}
			if e.Right.Valid() {
				rep.Corners[e.RightKind.String()]++
			}
		}
		for _, l := range g.Links(i) {
			rep.Links[l.Dir.String()]++
		}
	})

	lut := g.LUT()
	for i := range lvl.Grid.Len() {
		c := lvl.Grid.CoordOf(i)
		if !lvl.Grid.IsOpen(c) {
			continue
		}
		id, ok := lut.Lookup(lvl.Grid.Center(c))
		if !ok {
			rep.LookupBad = append(rep.LookupBad, c)
			continue
		}
		j, err := g.Index(id)
		if err != nil || g.CellAt(j) != c || g.At(j).Kind() != navmesh.KindBackground {
			rep.LookupBad = append(rep.LookupBad, c)
		}
	}
	if len(rep.LookupBad) > 0 {
		rep.Valid = false
		rep.Errors = append(rep.Errors, fmt.Sprintf("%d open tiles look up to the wrong node", len(rep.LookupBad)))
	}
	return rep
}

func printReport(rep Report) {
	fmt.Printf("level      %dx%d tiles, %d objects\n", rep.Width, rep.Height, len(rep.Objects))
	fmt.Printf("nodes      %d (background %d, vertical %d, horizontal %d)\n",
		rep.Nodes, rep.Stats.Background, rep.Stats.Vertical, rep.Stats.Horizontal)
	fmt.Printf("edges      wall %d, boundary %d, surface %d\n",
		rep.Stats.WallEdges, rep.Stats.BoundaryEdges, rep.Stats.SurfaceEdges)
	fmt.Printf("corners    straight %d, inward %d, outward %d\n",
		rep.Corners["straight"], rep.Corners["inward"], rep.Corners["outward"])
	if rep.Valid {
		fmt.Println("valid      yes")
		return
	}
	fmt.Println("valid      no")
	for _, e := range rep.Errors {
		fmt.Println("  ", e)
	}
}
