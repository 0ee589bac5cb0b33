package pheromone

import (
	"errors"
	"fmt"
)

// ChannelParams tunes one channel's solver.
type ChannelParams struct {
	Evaporation        float32 `yaml:"evaporation" toml:"evaporation" json:"evaporation"`
	Diffusion          float32 `yaml:"diffusion" toml:"diffusion" json:"diffusion"`
	DiffusionFloor     float32 `yaml:"diffusion_floor" toml:"diffusion_floor" json:"diffusion_floor"`
	ConcentrationFloor float32 `yaml:"concentration_floor" toml:"concentration_floor" json:"concentration_floor"`
}

// Params is the process-wide pheromone configuration. It is loaded once
// and handed to the field by value.
type Params struct {
	Channels [K]ChannelParams

	DeadAntDeposit  float32 // Added each tick under every dead ant
	ZombantDeposit  float32 // Added each tick under every zombant
	ZombqueenSource float32 // Added each tick under the queen
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	p := Params{
		DeadAntDeposit:  1,
		ZombantDeposit:  1,
		ZombqueenSource: 40,
	}
	for i := range p.Channels {
		p.Channels[i] = ChannelParams{
			Evaporation:        0.001,
			Diffusion:          0,
			DiffusionFloor:     0.001,
			ConcentrationFloor: 0.001,
		}
	}

	p.Channels[Default].Diffusion = 0.01
	p.Channels[Storage].Diffusion = 0.06
	p.Channels[Food].Diffusion = 0.06

	p.Channels[DeadAnt].Evaporation = 0.05
	p.Channels[DeadAnt].Diffusion = 0.01

	p.Channels[Zombant].Evaporation = 0.1
	p.Channels[Zombant].Diffusion = 0.01

	p.Channels[Zombqueen].Evaporation = 0.01
	p.Channels[Zombqueen].Diffusion = 0.9
	p.Channels[Zombqueen].DiffusionFloor = 0.0001
	p.Channels[Zombqueen].ConcentrationFloor = 0.0001

	return p
}

// Validate checks that rates are fractions and floors are non-negative.
func (p Params) Validate() error {
	var errs []error
	for i, c := range p.Channels {
		ch := Channel(i)
		if !(c.Evaporation >= 0 && c.Evaporation <= 1) {
			errs = append(errs, fmt.Errorf("%s: evaporation %v outside [0, 1]", ch, c.Evaporation))
		}
		if !(c.Diffusion >= 0 && c.Diffusion <= 1) {
			errs = append(errs, fmt.Errorf("%s: diffusion %v outside [0, 1]", ch, c.Diffusion))
		}
		if !(c.DiffusionFloor >= 0) {
			errs = append(errs, fmt.Errorf("%s: negative diffusion floor", ch))
		}
		if !(c.ConcentrationFloor >= 0) {
			errs = append(errs, fmt.Errorf("%s: negative concentration floor", ch))
		}
	}
	if !(p.DeadAntDeposit >= 0 && p.ZombantDeposit >= 0 && p.ZombqueenSource >= 0) {
		errs = append(errs, errors.New("deposits must be non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("pheromone params: %w", errors.Join(errs...))
	}
	return nil
}
