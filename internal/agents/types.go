// Package agents provides the ant data model and the two per-ant state
// machines: movement across the navigation graph and the job cycle.
package agents

import (
	"fmt"
	"math"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// AntID is a unique identifier for an ant.
type AntID uint64

// Kind separates colony workers from the zombants and their queen.
type Kind uint8

const (
	KindWorker  Kind = iota // Forager cycling between food and storage
	KindZombant             // Thief raiding storage for the queen
	KindQueen               // Hoarder roaming her chamber, slaying her wins the level
)

var kindNames = [...]string{"worker", "zombant", "queen"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Ant is one agent of the simulation. Pos is in world space: x right, y up,
// z the depth into the wall the ant is climbing (0 in open space).
type Ant struct {
	ID       AntID    `json:"id"`
	Kind     Kind     `json:"kind"`
	Position Position `json:"-"`

	Pos       mathx.Vec3 `json:"pos"`
	Direction mathx.Vec3 `json:"direction"`
	Speed     float32    `json:"speed"`

	// Node the ant is attached to and its world position.
	CurrentNode    navmesh.NodeID `json:"-"`
	CurrentNodePos mathx.Vec3     `json:"node_pos"`

	Goal                Goal    `json:"goal"`
	LastDirectionUpdate float64 `json:"last_direction_update"` // Seconds of simulated time
	Hoard               float32 `json:"hoard,omitempty"`       // Queen only
	Alive               bool    `json:"alive"`
}

// Goal is the ant's current job and what it carries.
type Goal struct {
	Job   Job     `json:"job"`
	Holds float32 `json:"holds"`
}

// Corpse is a dead ant. It stays where it fell and keeps marking the spot.
type Corpse struct {
	ID   AntID          `json:"id"`
	Pos  mathx.Vec3     `json:"pos"`
	Node navmesh.NodeID `json:"-"`
}

// Kill turns a into a corpse.
func (a *Ant) Kill() Corpse {
	a.Alive = false
	return Corpse{ID: a.ID, Pos: a.Pos, Node: a.CurrentNode}
}

// MoveParams holds the geometry and steering constants of ant movement.
type MoveParams struct {
	TileSize     float32 `yaml:"tile_size" toml:"tile_size" json:"tile_size"`
	AntWidth     float32 `yaml:"ant_width" toml:"ant_width" json:"ant_width"`
	AntHeight    float32 `yaml:"ant_height" toml:"ant_height" json:"ant_height"`
	WallClipping float32 `yaml:"wall_clipping" toml:"wall_clipping" json:"wall_clipping"`
	WallZFactor  float32 `yaml:"wall_z_factor" toml:"wall_z_factor" json:"wall_z_factor"`

	// Steering toward the gradient waits SteerDebounce plus U[0,1) seconds,
	// and WallSteerDebounce more while on a wall.
	SteerDebounce     float64 `yaml:"steer_debounce" toml:"steer_debounce" json:"steer_debounce"`
	WallSteerDebounce float64 `yaml:"wall_steer_debounce" toml:"wall_steer_debounce" json:"wall_steer_debounce"`
	WallTurnDelay     float64 `yaml:"wall_turn_delay" toml:"wall_turn_delay" json:"wall_turn_delay"`

	WideTurnChance   float64 `yaml:"wide_turn_chance" toml:"wide_turn_chance" json:"wide_turn_chance"`
	NarrowTurnChance float64 `yaml:"narrow_turn_chance" toml:"narrow_turn_chance" json:"narrow_turn_chance"`
	WideTurn         float64 `yaml:"wide_turn" toml:"wide_turn" json:"wide_turn"`       // Radians, either way
	NarrowTurn       float64 `yaml:"narrow_turn" toml:"narrow_turn" json:"narrow_turn"` // Radians, either way
}

// DefaultMoveParams returns the tuning used by the shipped levels.
func DefaultMoveParams() MoveParams {
	return MoveParams{
		TileSize:          16,
		AntWidth:          8,
		AntHeight:         8,
		WallClipping:      0.5,
		WallZFactor:       0.5,
		SteerDebounce:     0.5,
		WallSteerDebounce: 0.5,
		WallTurnDelay:     2,
		WideTurnChance:    0.01,
		NarrowTurnChance:  0.1,
		WideTurn:          math.Pi / 2,
		NarrowTurn:        math.Pi / 6,
	}
}

// WallDepth is the largest z an ant reaches while climbing.
func (p MoveParams) WallDepth() float32 { return p.TileSize * p.WallZFactor }

// Validate checks the parameters for values movement cannot work with.
func (p MoveParams) Validate() error {
	switch {
	case p.TileSize <= 0:
		return fmt.Errorf("tile_size must be positive, got %v", p.TileSize)
	case p.AntWidth <= 0 || p.AntHeight <= 0:
		return fmt.Errorf("ant size must be positive, got %vx%v", p.AntWidth, p.AntHeight)
	case p.AntWidth > p.TileSize || p.AntHeight > p.TileSize:
		return fmt.Errorf("ant %vx%v does not fit a %v tile", p.AntWidth, p.AntHeight, p.TileSize)
	case p.WallClipping < 0 || 2*p.WallClipping >= p.AntWidth/2 || 2*p.WallClipping >= p.AntHeight/2:
		return fmt.Errorf("wall_clipping %v out of range", p.WallClipping)
	case p.WallZFactor <= 0:
		return fmt.Errorf("wall_z_factor must be positive, got %v", p.WallZFactor)
	case p.SteerDebounce < 0 || p.WallSteerDebounce < 0 || p.WallTurnDelay < 0:
		return fmt.Errorf("debounce intervals must not be negative")
	case p.WideTurnChance < 0 || p.NarrowTurnChance < p.WideTurnChance || p.NarrowTurnChance > 1:
		return fmt.Errorf("turn chances must satisfy 0 <= wide <= narrow <= 1")
	}
	return nil
}
