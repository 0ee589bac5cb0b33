// Package mathx provides the small vector and scalar helpers used by the
// simulation. Positions use x right, y up and z as the wall depth axis.
package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Vec3 is a 3-component float32 vector.
type Vec3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Zero is the zero vector.
var Zero = Vec3{}

// V3 is shorthand for a Vec3 literal.
func V3(x, y, z float32) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }
func (v Vec3) Len() float32 { return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z))) }
func (v Vec3) DistXY(o Vec3) float32 { return Hypot(v.X-o.X, v.Y-o.Y) }
func (v Vec3) WithZ(z float32) Vec3 { return Vec3{v.X, v.Y, z} }
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Finite() bool { return finite(v.X) && finite(v.Y) && finite(v.Z) }
func finite(f float32) bool { return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0) }
func Hypot(x, y float32) float32 { return float32(math.Hypot(float64(x), float64(y))) }

// Normalize returns v scaled to unit length, or the zero vector when v has
// no length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 || !finite(l) {
		return Zero
	}
	return v.Scale(1 / l)
}

// Normalize2 normalizes the planar vector (a, b), returning (0, 0) when it
// has no length.
func Normalize2(a, b float32) (float32, float32) {
	l := Hypot(a, b)
	if l == 0 || !finite(l) {
		return 0, 0
	}
	return a / l, b / l
}

// RotateX rotates v around the X axis by angle radians.
func (v Vec3) RotateX(angle float64) Vec3 {
	s, c := sincos(angle)
	return Vec3{v.X, v.Y*c - v.Z*s, v.Y*s + v.Z*c}
}

// RotateY rotates v around the Y axis by angle radians.
func (v Vec3) RotateY(angle float64) Vec3 {
	s, c := sincos(angle)
	return Vec3{v.X*c + v.Z*s, v.Y, -v.X*s + v.Z*c}
}

// RotateZ rotates v around the Z axis by angle radians.
func (v Vec3) RotateZ(angle float64) Vec3 {
	s, c := sincos(angle)
	return Vec3{v.X*c - v.Y*s, v.X*s + v.Y*c, v.Z}
}

func sincos(angle float64) (float32, float32) {
	s, c := math.Sincos(angle)
	return float32(s), float32(c)
}

// Clamp limits x to [lo, hi].
func Clamp[T constraints.Integer | constraints.Float](x, lo, hi T) T {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sign returns -1 or 1. Zero maps to 1 so a stationary direction still
// walks forward along a wall.
func Sign(f float32) float32 {
	if f < 0 {
		return -1
	}
	return 1
}

// Sanitize maps NaN, infinities and negative values to zero.
func Sanitize(f float32) float32 {
	if !finite(f) || f < 0 {
		return 0
	}
	return f
}
