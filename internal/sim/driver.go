package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Algorithm selects the generation-update rule applied to every trajectory.
type Algorithm string

const (
	AlgorithmSA Algorithm = "sa"
	AlgorithmES Algorithm = "es"
)

// GenerationStats is one round's aggregate across all trajectories, sampled
// before the round's update steps.
type GenerationStats struct {
	Generation   int
	RatioOptimal float64
	MeanFitness  float64
}

// DriverConfig drives a fleet of independent trajectories for a fixed
// number of generation rounds. Optimum is the fitness value counted as
// optimal and matched against each trajectory's population fitness for the
// first-optimum watermark.
type DriverConfig struct {
	Trajectory   Config
	Algorithm    Algorithm
	Trajectories int
	Generations  int
	Optimum      float64
	Workers      int
	Seed         int64
	OnGeneration func(GenerationStats)
}

// Result aggregates a completed experiment.
type Result struct {
	Generations []GenerationStats
	// FirstOptimalGens holds the 1-based round at which each trajectory's
	// population fitness first equaled the optimum, 0 when it never did.
	FirstOptimalGens []int
	Converged        int
	// MeanFirstOptimal and StdDevFirstOptimal cover converged trajectories
	// only; both are NaN when none converged.
	MeanFirstOptimal   float64
	StdDevFirstOptimal float64
}

// Driver owns a fixed fleet of independently seeded trajectories and runs
// them in lockstep generation rounds.
type Driver struct {
	cfg          DriverConfig
	trajectories []*Trajectory
	firstOptimal []int
}

// NewDriver builds the fleet. Per-trajectory random streams are derived from
// the single master seed, so a run is reproducible end to end.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.Trajectories <= 0 {
		return nil, fmt.Errorf("sim: trajectory count must be > 0")
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("sim: generation count must be > 0")
	}
	switch cfg.Algorithm {
	case AlgorithmSA, AlgorithmES:
	default:
		return nil, fmt.Errorf("sim: unsupported algorithm: %q", cfg.Algorithm)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Trajectory.Units <= 0 {
		cfg.Trajectory.Units = 1
	}

	seeds := rand.New(rand.NewSource(cfg.Seed))
	trajectories := make([]*Trajectory, cfg.Trajectories)
	for i := range trajectories {
		t, err := New(cfg.Trajectory, rand.New(rand.NewSource(seeds.Int63())))
		if err != nil {
			return nil, err
		}
		trajectories[i] = t
	}
	return &Driver{
		cfg:          cfg,
		trajectories: trajectories,
		firstOptimal: make([]int, cfg.Trajectories),
	}, nil
}

// Run advances every trajectory through the configured generation rounds.
// Statistics reflect the pre-step state of each round, and a sequential
// barrier separates rounds: a round's report is emitted only after every
// trajectory has finished it.
func (d *Driver) Run(ctx context.Context) (Result, error) {
	organisms := d.cfg.Trajectories * d.cfg.Trajectory.Units
	result := Result{
		Generations:      make([]GenerationStats, 0, d.cfg.Generations),
		FirstOptimalGens: d.firstOptimal,
	}

	for g := 1; g <= d.cfg.Generations; g++ {
		optCount, fitnessSum, err := d.round(ctx, g)
		if err != nil {
			return Result{}, err
		}
		stats := GenerationStats{
			Generation:   g,
			RatioOptimal: float64(optCount) / float64(organisms),
			MeanFitness:  fitnessSum / float64(organisms),
		}
		result.Generations = append(result.Generations, stats)
		if d.cfg.OnGeneration != nil {
			d.cfg.OnGeneration(stats)
		}
	}

	converged := make([]float64, 0, len(d.firstOptimal))
	for _, g := range d.firstOptimal {
		if g > 0 {
			converged = append(converged, float64(g))
		}
	}
	result.Converged = len(converged)
	if len(converged) == 0 {
		result.MeanFirstOptimal = math.NaN()
		result.StdDevFirstOptimal = math.NaN()
	} else {
		result.MeanFirstOptimal = stat.Mean(converged, nil)
		result.StdDevFirstOptimal = stat.PopStdDev(converged, nil)
	}
	return result, nil
}

// round fans the fleet across the worker pool for one generation and folds
// the per-trajectory samples through the results channel. Each trajectory is
// touched by exactly one worker per round, so the samples are the only data
// crossing goroutines.
func (d *Driver) round(ctx context.Context, generation int) (int, float64, error) {
	type result struct {
		optimal int
		fitness float64
		err     error
	}

	jobs := make(chan int)
	results := make(chan result, len(d.trajectories))

	workerCount := d.cfg.Workers
	if workerCount > len(d.trajectories) {
		workerCount = len(d.trajectories)
	}

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results <- result{err: err}
					continue
				}
				optimal, fitness := d.step(i, generation)
				results <- result{optimal: optimal, fitness: fitness}
			}
		}()
	}

	for i := range d.trajectories {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(results)

	optCount := 0
	fitnessSum := 0.0
	for res := range results {
		if res.err != nil {
			return 0, 0, res.err
		}
		optCount += res.optimal
		fitnessSum += res.fitness
	}
	return optCount, fitnessSum, nil
}

// step samples one trajectory's pre-step statistics, sets its first-optimum
// watermark at most once, and advances it one generation.
func (d *Driver) step(i, generation int) (int, float64) {
	t := d.trajectories[i]
	optimal := t.NumOptimal(d.cfg.Optimum)
	fitness := t.Fitness()

	if fitness == d.cfg.Optimum && d.firstOptimal[i] == 0 {
		d.firstOptimal[i] = generation
	}

	switch d.cfg.Algorithm {
	case AlgorithmSA:
		t.SAGeneration()
	case AlgorithmES:
		t.ESGeneration()
	}
	return optimal, fitness
}

// Trajectories exposes the fleet for post-run inspection.
func (d *Driver) Trajectories() []*Trajectory {
	return d.trajectories
}
