package agents

import (
	"math"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
)

// EffectiveDt bounds one integration step so an ant never travels more
// than a quarter tile, which keeps it from skipping over thin walls.
func EffectiveDt(dt float64, speed, tileSize float32) float64 {
	if math.IsNaN(dt) || dt <= 0 {
		return 0
	}
	if speed <= 0 {
		return dt
	}
	return min(dt, float64(tileSize/4/speed))
}

// Integrate moves a along its direction for dt seconds according to its
// movement state. A background ant that would step out of open space is
// pushed back and turned around. The result is clamped to the map.
func Integrate(a *Ant, dt float64, lut *navmesh.LUT, p MoveParams) {
	step := a.Speed * float32(EffectiveDt(dt, a.Speed, p.TileSize))
	if step == 0 {
		return
	}
	prev := a.Pos

	switch a.Position.(type) {
	case Background:
		dx, dy := mathx.Normalize2(a.Direction.X, a.Direction.Y)
		a.Pos.X += dx * step
		a.Pos.Y += dy * step
		if lut.IsOpen(prev) && !lut.IsOpen(a.Pos) {
			a.Pos = prev
			a.Direction.X, a.Direction.Y = -a.Direction.X, -a.Direction.Y
		}
	case VerticalWall:
		a.Pos.Y += mathx.Sign(a.Direction.Y) * step
		_, dz := mathx.Normalize2(a.Direction.Y, a.Direction.Z)
		a.Pos.Z = min(a.Pos.Z+dz*step, p.WallDepth())
	case HorizontalWall:
		a.Pos.X += mathx.Sign(a.Direction.X) * step
		_, dz := mathx.Normalize2(a.Direction.X, a.Direction.Z)
		a.Pos.Z = min(a.Pos.Z+dz*step, p.WallDepth())
	}

	w, h := lut.Bounds()
	a.Pos.X = mathx.Clamp(a.Pos.X, 0, w)
	a.Pos.Y = mathx.Clamp(a.Pos.Y, 0, h)
}
