// Object placement: finds suitable open tiles and seeds food, storage,
// hazards and the queen's chamber.
package world

import (
	"math/rand"
	"sort"
)

// placeObjects scores every open tile and fills lvl with resource objects,
// a queen spawn and any hazards. entrance is the chamber tile under the shaft.
func placeObjects(lvl *Level, cfg GenConfig, entrance Coord, rng *rand.Rand) {
	g := lvl.Grid

	type scored struct {
		coord Coord
		score float64
	}
	var floors []scored
	for i := 0; i < g.Len(); i++ {
		c := g.CoordOf(i)
		if !g.IsOpen(c) {
			continue
		}
		// Objects sit on floors so ants walking the ground find them.
		if below, ok := g.At(c.Step(DirDown)); ok && below != CellGround {
			continue
		}
		floors = append(floors, scored{c, float64(manhattan(c, entrance)) + rng.Float64()})
	}
	if len(floors) == 0 {
		return
	}

	// Farthest first.
	sort.Slice(floors, func(i, j int) bool {
		return floors[i].score > floors[j].score
	})

	var taken []Coord
	free := func(c Coord, minDist int) bool {
		for _, t := range taken {
			if manhattan(c, t) < minDist {
				return false
			}
		}
		return true
	}

	// Food piles are far from the entrance.
	for _, f := range floors {
		if countKind(lvl.Objects, ObjectFood) >= cfg.FoodPiles {
			break
		}
		if !free(f.coord, 4) {
			continue
		}
		taken = append(taken, f.coord)
		lvl.Objects = append(lvl.Objects, ObjectPlacement{
			Coord:         f.coord,
			Kind:          ObjectFood,
			Quantity:      cfg.FoodQuantity,
			Concentration: cfg.Concentration,
		})
	}

	// Storage sits near the entrance, so walk the list backwards.
	for i := len(floors) - 1; i >= 0; i-- {
		if countKind(lvl.Objects, ObjectStorage) >= cfg.StoragePiles {
			break
		}
		c := floors[i].coord
		if !free(c, 3) {
			continue
		}
		taken = append(taken, c)
		lvl.Objects = append(lvl.Objects, ObjectPlacement{
			Coord:         c,
			Kind:          ObjectStorage,
			Concentration: cfg.Concentration,
		})
	}

	// The queen hides in the deepest free floor tile.
	deepest := -1
	for i, f := range floors {
		if !free(f.coord, 2) {
			continue
		}
		if deepest < 0 || f.coord.Y < floors[deepest].coord.Y {
			deepest = i
		}
	}
	if deepest >= 0 {
		lvl.QueenSpawns = append(lvl.QueenSpawns, floors[deepest].coord)
		taken = append(taken, floors[deepest].coord)
	}

	// Hazards are scattered over the remaining floors.
	rng.Shuffle(len(floors), func(i, j int) {
		floors[i], floors[j] = floors[j], floors[i]
	})
	for _, f := range floors {
		if len(lvl.Hazards) >= cfg.Hazards {
			break
		}
		if !free(f.coord, 3) || manhattan(f.coord, entrance) < 4 {
			continue
		}
		taken = append(taken, f.coord)
		lvl.Hazards = append(lvl.Hazards, f.coord)
	}
}

func countKind(objs []ObjectPlacement, kind ObjectKind) int {
	n := 0
	for _, o := range objs {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

func manhattan(a, b Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
