package pipeline

import (
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/config"
)

// SizingPolicy decides the buffer capacity of each stage before the relay
// starts. Capacities never change afterwards.
type SizingPolicy interface {
	Capacity(stage, stages int) int
}

// Geometric gives stage i of n a capacity of Unit*Factor^(n-i+Exponent),
// clamped to Max, so buffers shrink towards the sink.
type Geometric struct {
	Unit     int
	Factor   int
	Exponent int
	Max      int
}

func (g Geometric) Capacity(stage, stages int) int {
	return scaled(g.Unit, g.Factor, stages-stage+g.Exponent, g.Max)
}

// Uniform gives every stage Unit*Factor^Exponent, clamped to Max.
type Uniform struct {
	Unit     int
	Factor   int
	Exponent int
	Max      int
}

func (u Uniform) Capacity(stage, stages int) int {
	return scaled(u.Unit, u.Factor, u.Exponent, u.Max)
}

// DefaultSizing returns the geometric policy with the default settings.
func DefaultSizing() SizingPolicy {
	return SizingFromConfig(config.Default().Buffer)
}

// SizingFromConfig builds the policy named by cfg.Policy.
func SizingFromConfig(cfg config.BufferConfig) SizingPolicy {
	if cfg.Policy == config.PolicyUniform {
		return Uniform{Unit: cfg.Unit, Factor: cfg.Factor, Exponent: cfg.Exponent, Max: cfg.Max}
	}
	return Geometric{Unit: cfg.Unit, Factor: cfg.Factor, Exponent: cfg.Exponent, Max: cfg.Max}
}

// scaled computes unit*factor^exp without overflowing, clamped to [1, max].
func scaled(unit, factor, exp, max int) int {
	if max < 1 {
		max = 1
	}
	c := unit
	for i := 0; i < exp && c <= max; i++ {
		if factor > 1 && c > max/factor {
			return max
		}
		c *= factor
	}
	if c > max {
		c = max
	}
	if c < 1 {
		c = 1
	}
	return c
}
