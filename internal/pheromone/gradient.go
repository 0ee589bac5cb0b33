package pheromone

import (
	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/parallel"
)

// components accumulates neighbor concentrations by local direction.
type components struct {
	up, down, left, right, background, foreground float32
}

func (c *components) add(dir navmesh.LinkDir, v float32) {
	switch dir {
	case navmesh.LinkUp:
		c.up += v
	case navmesh.LinkDown:
		c.down += v
	case navmesh.LinkLeft:
		c.left += v
	case navmesh.LinkRight:
		c.right += v
	case navmesh.LinkBackground:
		c.background += v
	case navmesh.LinkForeground:
		c.foreground += v
	}
}

func (c *components) max() float32 {
	return max(c.up, c.down, c.left, c.right, c.background, c.foreground)
}

func (c *components) vec() mathx.Vec3 {
	return mathx.V3(c.right-c.left, c.up-c.down, c.foreground-c.background)
}

// ComputeGradients recomputes the ascent vector of every node and channel.
//
// The vector sums every neighbor's concentration along its direction
// rather than pointing at the strongest neighbor only: (right-left,
// up-down, foreground-background). A node holding at least as much as
// its largest neighbor component is a local peak and gets the zero
// vector. Ant behavior is tuned against this shape.
func (f *Field) ComputeGradients() {
	for _, ch := range Channels {
		conc, grad := f.conc[ch], f.grad[ch]
		parallel.For(f.n, f.workers, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				var c components
				for _, l := range f.graph.Links(i) {
					c.add(l.Dir, conc[l.To])
				}
				if conc[i] >= c.max() {
					grad[i] = mathx.Zero
				} else {
					grad[i] = c.vec()
				}
			}
		})
	}
}

// GradientAt returns the ascent vector of ch at node index i.
func (f *Field) GradientAt(i int, ch Channel) mathx.Vec3 {
	if !f.ok(i, ch) {
		return mathx.Zero
	}
	return f.grad[ch][i]
}

// Gradient returns the ascent vector of ch at node id. Unknown or stale
// ids read as zero.
func (f *Field) Gradient(id navmesh.NodeID, ch Channel) mathx.Vec3 {
	if f == nil {
		return mathx.Zero
	}
	i, err := f.graph.Index(id)
	if err != nil {
		return mathx.Zero
	}
	return f.GradientAt(i, ch)
}

// Step runs one full field update: diffusion and evaporation, then source
// overrides, then gradients.
func (f *Field) Step() {
	f.DiffuseAndEvaporate()
	f.ApplySources()
	f.ComputeGradients()
}
