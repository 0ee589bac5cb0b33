package pheromone

import (
	"github.com/talgya/mini-colony/internal/parallel"
)

// DiffuseAndEvaporate advances every channel by one step.
//
// Each node whose outflow c*rate exceeds the channel's diffusion floor
// splits it evenly across its links. Every node then keeps
// (c*(1-rate) + inflow) * (1-evaporation), snapped to zero at or below the
// concentration floor. Outflows are computed from the concentrations as
// they stood before the step, so node order does not matter.
func (f *Field) DiffuseAndEvaporate() {
	for _, ch := range Channels {
		f.diffuseChannel(ch)
	}
}

func (f *Field) diffuseChannel(ch Channel) {
	cp := f.params.Channels[ch]
	conc, buf := f.conc[ch], f.buf[ch]

	// Outflow per link. A node without links keeps nothing of its outflow.
	parallel.For(f.n, f.workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			d := conc[i] * cp.Diffusion
			if d > cp.DiffusionFloor && f.outN[i] > 0 {
				f.share[i] = d / f.outN[i]
			} else {
				f.share[i] = 0
			}
		}
	})

	// Gather inflow and combine. Node i only writes its own slots.
	keep := 1 - cp.Diffusion
	evap := 1 - cp.Evaporation
	parallel.For(f.n, f.workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for _, j := range f.in[i] {
				buf[i] += f.share[j]
			}
			v := (conc[i]*keep + buf[i]) * evap
			if v > cp.ConcentrationFloor {
				conc[i] = v
			} else {
				conc[i] = 0
			}
			buf[i] = 0
		}
	})
}
