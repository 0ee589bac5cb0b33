package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ObjectKind enumerates resource objects placed in a level.
type ObjectKind uint8

const (
	ObjectFood    ObjectKind = iota // Food pile ants harvest from
	ObjectStorage                   // Colony storage ants fill and thieves raid
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectFood:
		return "food"
	case ObjectStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// ObjectPlacement positions a resource object on an open tile.
type ObjectPlacement struct {
	Coord         Coord      `json:"coord"`
	Kind          ObjectKind `json:"kind"`
	Quantity      float32    `json:"quantity"`
	Infinite      bool       `json:"infinite"` // Quantity is ignored when set
	Concentration float32    `json:"concentration"`
}

// Level is a grid plus everything placed on it.
type Level struct {
	Grid        *Grid             `json:"-"`
	Seed        int64             `json:"seed"`
	Objects     []ObjectPlacement `json:"objects"`
	QueenSpawns []Coord           `json:"queen_spawns"`
	Hazards     []Coord           `json:"hazards"`
}

// Default amounts for objects read from text levels.
const (
	DefaultFoodQuantity  = 100
	DefaultConcentration = 20
)

// LoadLevel reads a text level from a file.
func LoadLevel(path string, tileSize float32) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open level: %w", err)
	}
	defer f.Close()
	lvl, err := ParseLevel(f, tileSize)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// ParseLevel reads a text level: grid rows top row first, using the
// characters understood by ParseRows plus object markers on open tiles:
// 'F' food, 'I' inexhaustible food, 'S' storage, 'Q' queen, 'X' hazard.
// Lines starting with ';' are comments.
func ParseLevel(r io.Reader, tileSize float32) (*Level, error) {
	var rows []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.HasPrefix(line, ";") {
			continue
		}
		rows = append(rows, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	// Trailing blank lines are not sky.
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}

	type marker struct {
		x, yTop int
		ch      byte
	}
	var markers []marker
	clean := make([]string, len(rows))
	for yTop, row := range rows {
		b := []byte(row)
		for x, ch := range b {
			switch ch {
			case 'F', 'I', 'S', 'Q', 'X':
				markers = append(markers, marker{x, yTop, ch})
				b[x] = '.'
			}
		}
		clean[yTop] = string(b)
	}

	g, err := ParseRows(clean, tileSize)
	if err != nil {
		return nil, err
	}

	lvl := &Level{Grid: g}
	for _, m := range markers {
		c := g.FromTop(m.x, m.yTop)
		switch m.ch {
		case 'F':
			lvl.Objects = append(lvl.Objects, ObjectPlacement{Coord: c, Kind: ObjectFood, Quantity: DefaultFoodQuantity, Concentration: DefaultConcentration})
		case 'I':
			lvl.Objects = append(lvl.Objects, ObjectPlacement{Coord: c, Kind: ObjectFood, Infinite: true, Concentration: DefaultConcentration})
		case 'S':
			lvl.Objects = append(lvl.Objects, ObjectPlacement{Coord: c, Kind: ObjectStorage, Concentration: DefaultConcentration})
		case 'Q':
			lvl.QueenSpawns = append(lvl.QueenSpawns, c)
		case 'X':
			lvl.Hazards = append(lvl.Hazards, c)
		}
	}
	return lvl, nil
}

// String renders the level with its markers.
func (l *Level) String() string {
	rows := strings.Split(strings.TrimSuffix(l.Grid.String(), "\n"), "\n")
	put := func(c Coord, ch byte) {
		yTop := l.Grid.Height() - 1 - c.Y
		if yTop < 0 || yTop >= len(rows) || c.X < 0 || c.X >= len(rows[yTop]) {
			return
		}
		b := []byte(rows[yTop])
		b[c.X] = ch
		rows[yTop] = string(b)
	}
	for _, o := range l.Objects {
		switch {
		case o.Kind == ObjectStorage:
			put(o.Coord, 'S')
		case o.Infinite:
			put(o.Coord, 'I')
		default:
			put(o.Coord, 'F')
		}
	}
	for _, c := range l.QueenSpawns {
		put(c, 'Q')
	}
	for _, c := range l.Hazards {
		put(c, 'X')
	}
	return strings.Join(rows, "\n") + "\n"
}
