// Package sim implements the stochastic local-search engine: single
// trajectories advanced by simulated-annealing or (1+1)-ES update rules, and
// the driver that fans a fleet of independent trajectories across workers.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"onemaxlab/internal/genotype"
)

const (
	DefaultInitialTemperature = 50.0
	DefaultTemperatureDecay   = 0.995
)

// Config describes one trajectory: a small population of organisms plus the
// annealing schedule and mutation rate its update rules draw on.
type Config struct {
	Units              int
	Length             int
	Fitness            genotype.FitnessFunc
	MutationRate       float64
	InitialTemperature float64
	TemperatureDecay   float64
}

// Trajectory is one independent local-search run. It owns its population,
// temperature state, and random stream; trajectories never share state.
type Trajectory struct {
	population []*genotype.Organism
	temp       float64
	decay      float64
	rng        *rand.Rand
}

// New seeds a trajectory's population from rng. Zero-valued temperature
// fields fall back to the defaults; out-of-range values are errors.
func New(cfg Config, rng *rand.Rand) (*Trajectory, error) {
	if cfg.Units <= 0 {
		return nil, fmt.Errorf("sim: units must be > 0")
	}
	if cfg.Length <= 0 {
		return nil, fmt.Errorf("sim: genotype length must be > 0")
	}
	if cfg.Fitness == nil {
		return nil, fmt.Errorf("sim: fitness function is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("sim: random source is required")
	}
	if cfg.InitialTemperature == 0 {
		cfg.InitialTemperature = DefaultInitialTemperature
	}
	if cfg.InitialTemperature < 0 {
		return nil, fmt.Errorf("sim: initial temperature must be > 0")
	}
	if cfg.TemperatureDecay == 0 {
		cfg.TemperatureDecay = DefaultTemperatureDecay
	}
	if cfg.TemperatureDecay <= 0 || cfg.TemperatureDecay >= 1 {
		return nil, fmt.Errorf("sim: temperature decay must be in (0, 1)")
	}
	if cfg.MutationRate < 0 || cfg.MutationRate > 1 {
		return nil, fmt.Errorf("sim: mutation rate must be in [0, 1]")
	}

	population := make([]*genotype.Organism, cfg.Units)
	for i := range population {
		population[i] = genotype.NewOrganism(rng, cfg.Length, cfg.Fitness, cfg.MutationRate)
	}
	return &Trajectory{
		population: population,
		temp:       cfg.InitialTemperature,
		decay:      cfg.TemperatureDecay,
		rng:        rng,
	}, nil
}

// SAGeneration advances one simulated-annealing step: flip one random bit of
// one random organism's clone, keep the clone when it improves fitness or
// wins a Boltzmann draw at the current temperature. The temperature decays
// whether or not the clone is accepted.
func (t *Trajectory) SAGeneration() {
	org := t.rng.Intn(len(t.population))
	bit := t.rng.Intn(t.population[org].Len())

	candidate := t.population[org].Clone()
	f0 := candidate.Fitness()
	candidate.Flip(bit)
	f1 := candidate.Fitness()

	if f1 > f0 || t.rng.Float64() < math.Exp((f1-f0)/t.temp) {
		t.population[org] = candidate
	}
	t.temp *= t.decay
}

// ESGeneration advances one (1+1)-ES step: mutate every bit of a random
// organism's clone independently at the mutation rate, keep the clone only
// on a strict fitness improvement. No annealing is involved.
func (t *Trajectory) ESGeneration() {
	org := t.rng.Intn(len(t.population))

	candidate := t.population[org].Clone()
	f0 := candidate.Fitness()
	candidate.MutateAll(t.rng)
	f1 := candidate.Fitness()

	if f1 > f0 {
		t.population[org] = candidate
	}
}

// NumOptimal counts organisms whose fitness equals optimum exactly. Exact
// float comparison is deliberate: fitness values derive from small integers.
func (t *Trajectory) NumOptimal(optimum float64) int {
	count := 0
	for _, org := range t.population {
		if org.Fitness() == optimum {
			count++
		}
	}
	return count
}

// Fitness sums the population's fitness values.
func (t *Trajectory) Fitness() float64 {
	sum := 0.0
	for _, org := range t.population {
		sum += org.Fitness()
	}
	return sum
}

func (t *Trajectory) Temperature() float64 {
	return t.temp
}

func (t *Trajectory) Units() int {
	return len(t.population)
}

// Genotypes exposes snapshots of the population's bit strings for reporting.
func (t *Trajectory) Genotypes() []genotype.Bits {
	out := make([]genotype.Bits, len(t.population))
	for i, org := range t.population {
		out[i] = org.Bits()
	}
	return out
}
