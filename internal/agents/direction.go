package agents

import (
	"math/rand"

	"github.com/talgya/mini-colony/internal/mathx"
)

// UpdateDirection steers a toward gradient, the pheromone gradient of its
// goal channel at its current node, once the steering debounce has run
// out. Otherwise the ant wanders: rare wide and more frequent narrow turns
// around Z in open space, and occasional turns around the wall's tangent
// axis while climbing. now is the simulated time in seconds.
func UpdateDirection(a *Ant, gradient mathx.Vec3, now float64, rng *rand.Rand, p MoveParams) {
	r := rng.Float64()
	elapsed := now - a.LastDirectionUpdate

	debounce := p.SteerDebounce
	if OnWall(a.Position) {
		debounce += p.WallSteerDebounce
	}
	if !gradient.IsZero() && gradient.Finite() && elapsed > r+debounce {
		a.Direction = gradient
		a.LastDirectionUpdate = now
		return
	}

	switch pos := a.Position.(type) {
	case Background:
		switch {
		case r < p.WideTurnChance:
			a.Direction = a.Direction.RotateZ(uniform(rng, p.WideTurn))
		case r < p.NarrowTurnChance:
			a.Direction = a.Direction.RotateZ(uniform(rng, p.NarrowTurn))
		}
	case VerticalWall, HorizontalWall:
		if elapsed <= r+p.WallTurnDelay {
			return
		}
		angle := uniform(rng, p.NarrowTurn)
		if r < p.WideTurnChance {
			angle = uniform(rng, p.WideTurn)
		}
		if _, ok := pos.(VerticalWall); ok {
			a.Direction = a.Direction.RotateX(angle)
		} else {
			a.Direction = a.Direction.RotateY(angle)
		}
	}
}

// uniform draws from U(-limit, limit).
func uniform(rng *rand.Rand, limit float64) float64 {
	return (2*rng.Float64() - 1) * limit
}
