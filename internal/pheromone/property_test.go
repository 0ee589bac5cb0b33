package pheromone

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/talgya/mini-colony/internal/mathx"
	"github.com/talgya/mini-colony/internal/navmesh"
	"github.com/talgya/mini-colony/internal/world"
)

func TestFieldProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	grid, err := world.ParseRows([]string{
		"....",
		".#..",
		"....",
	}, 16)
	if err != nil {
		t.Fatal(err)
	}
	g, err := navmesh.Build(grid)
	if err != nil {
		t.Fatal(err)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("an isolated node never gains mass", prop.ForAll(
		func(c, rate, evaporation float32) bool {
			f, err := NewField(g, flatParams(rate, evaporation))
			if err != nil {
				return false
			}
			isolate(f, 0)
			f.Set(0, Food, c)
			f.DiffuseAndEvaporate()
			got := f.At(0, Food)
			return got >= 0 && got <= c
		},
		gen.Float32Range(0, 1000),
		gen.Float32Range(0, 1),
		gen.Float32Range(0, 1),
	))

	properties.Property("concentrations stay finite and non-negative", prop.ForAll(
		func(values []float32, rate, evaporation float32) bool {
			f, err := NewField(g, flatParams(rate, evaporation))
			if err != nil {
				return false
			}
			for i, v := range values {
				f.Set(i%f.Len(), Channel(i%K), v)
			}
			for step := 0; step < 10; step++ {
				f.Step()
			}
			for _, ch := range Channels {
				for i := 0; i < f.Len(); i++ {
					v := f.At(i, ch)
					if !(v >= 0) || !mathx.V3(v, 0, 0).Finite() {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(gen.Float32Range(-100, 1000)),
		gen.Float32Range(0, 1),
		gen.Float32Range(0, 1),
	))

	properties.Property("a node at least as strong as every direction is a peak", prop.ForAll(
		func(values []float32) bool {
			f, err := NewField(g, DefaultParams())
			if err != nil {
				return false
			}
			for i, v := range values {
				f.Set(i%f.Len(), Storage, v)
			}
			f.ComputeGradients()
			for i := 0; i < f.Len(); i++ {
				var c components
				for _, l := range g.Links(i) {
					c.add(l.Dir, f.At(l.To, Storage))
				}
				if f.At(i, Storage) >= c.max() && !f.GradientAt(i, Storage).IsZero() {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.Float32Range(0, 50)),
	))

	properties.TestingRun(t)
}
