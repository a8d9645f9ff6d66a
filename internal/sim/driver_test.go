package sim

import (
	"context"
	"testing"

	"onemaxlab/internal/genotype"
	"onemaxlab/internal/objective"
	"onemaxlab/internal/rep"
)

func oneMaxConfig(t *testing.T, length int) Config {
	t.Helper()
	fn, err := objective.OneMax(uint64(1)<<uint(length)-1, rep.StdBinary, length)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return Config{
		Units:        1,
		Length:       length,
		Fitness:      fn,
		MutationRate: 1.0 / float64(length),
	}
}

func TestNewDriverValidatesConfig(t *testing.T) {
	base := DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmSA,
		Trajectories: 2,
		Generations:  5,
		Optimum:      objective.MaxFitness(3),
	}

	cfg := base
	cfg.Trajectories = 0
	if _, err := NewDriver(cfg); err == nil {
		t.Fatal("expected error for zero trajectories")
	}

	cfg = base
	cfg.Generations = 0
	if _, err := NewDriver(cfg); err == nil {
		t.Fatal("expected error for zero generations")
	}

	cfg = base
	cfg.Algorithm = "genetic"
	if _, err := NewDriver(cfg); err == nil {
		t.Fatal("expected error for an unknown algorithm")
	}
}

func TestDriverRunReportsEveryGeneration(t *testing.T) {
	driver, err := NewDriver(DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmSA,
		Trajectories: 10,
		Generations:  20,
		Optimum:      objective.MaxFitness(3),
		Workers:      4,
		Seed:         11,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var callbacks int
	driver.cfg.OnGeneration = func(GenerationStats) { callbacks++ }

	result, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Generations) != 20 {
		t.Fatalf("expected 20 generation reports, got %d", len(result.Generations))
	}
	if callbacks != 20 {
		t.Fatalf("expected 20 callbacks, got %d", callbacks)
	}
	for i, g := range result.Generations {
		if g.Generation != i+1 {
			t.Fatalf("report %d: expected generation %d, got %d", i, i+1, g.Generation)
		}
		if g.RatioOptimal < 0 || g.RatioOptimal > 1 {
			t.Fatalf("generation %d: ratio optimal out of range: %v", g.Generation, g.RatioOptimal)
		}
		if g.MeanFitness > objective.MaxFitness(3) {
			t.Fatalf("generation %d: mean fitness above the optimum: %v", g.Generation, g.MeanFitness)
		}
	}
	if len(result.FirstOptimalGens) != 10 {
		t.Fatalf("expected 10 watermark slots, got %d", len(result.FirstOptimalGens))
	}
}

func TestDriverRunIsReproducibleForSeed(t *testing.T) {
	cfg := DriverConfig{
		Trajectory:   oneMaxConfig(t, 4),
		Algorithm:    AlgorithmES,
		Trajectories: 8,
		Generations:  30,
		Optimum:      objective.MaxFitness(4),
		Workers:      3,
		Seed:         42,
	}

	runOnce := func() Result {
		driver, err := NewDriver(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		result, err := driver.Run(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return result
	}

	a, b := runOnce(), runOnce()
	for i := range a.Generations {
		if a.Generations[i] != b.Generations[i] {
			t.Fatalf("generation %d differs across identical seeds: %+v vs %+v",
				i+1, a.Generations[i], b.Generations[i])
		}
	}
	for i := range a.FirstOptimalGens {
		if a.FirstOptimalGens[i] != b.FirstOptimalGens[i] {
			t.Fatalf("watermark %d differs across identical seeds", i)
		}
	}
}

func TestDriverWatermarkOnPreStepSample(t *testing.T) {
	driver, err := NewDriver(DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmES,
		Trajectories: 4,
		Generations:  5,
		Optimum:      objective.MaxFitness(3),
		Seed:         9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Start every trajectory at the optimum. The first round's pre-step
	// sample must set every watermark to 1, and strict-improvement steps
	// keep the fleet there.
	for _, traj := range driver.trajectories {
		traj.population[0] = cloneWithBits(traj.population[0], genotype.Bits{true, true, true})
	}

	result, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, g := range result.FirstOptimalGens {
		if g != 1 {
			t.Fatalf("trajectory %d: expected watermark 1, got %d", i, g)
		}
	}
	if result.Converged != 4 {
		t.Fatalf("expected 4 converged trajectories, got %d", result.Converged)
	}
	if result.MeanFirstOptimal != 1 || result.StdDevFirstOptimal != 0 {
		t.Fatalf("expected mean 1 stddev 0, got %v and %v",
			result.MeanFirstOptimal, result.StdDevFirstOptimal)
	}
	for _, g := range result.Generations {
		if g.RatioOptimal != 1 {
			t.Fatalf("generation %d: expected the fleet to stay optimal, got ratio %v",
				g.Generation, g.RatioOptimal)
		}
	}
}

func TestDriverRunHonorsContextCancellation(t *testing.T) {
	driver, err := NewDriver(DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmSA,
		Trajectories: 4,
		Generations:  10,
		Optimum:      objective.MaxFitness(3),
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := driver.Run(ctx); err == nil {
		t.Fatal("expected error from a cancelled context")
	}
}

func TestDriverSimulatedAnnealingConvergesOnSmallInstance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}

	driver, err := NewDriver(DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmSA,
		Trajectories: 200,
		Generations:  2000,
		Optimum:      objective.MaxFitness(3),
		Workers:      4,
		Seed:         1234,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := result.Generations[len(result.Generations)-1]
	if final.RatioOptimal < 0.9 {
		t.Fatalf("expected most trajectories optimal by the final generation, got ratio %v",
			final.RatioOptimal)
	}
	if result.Converged < 180 {
		t.Fatalf("expected at least 180 of 200 trajectories converged, got %d", result.Converged)
	}
}

func TestDriverEvolutionStrategyConvergesOnSmallInstance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping convergence run in short mode")
	}

	driver, err := NewDriver(DriverConfig{
		Trajectory:   oneMaxConfig(t, 3),
		Algorithm:    AlgorithmES,
		Trajectories: 200,
		Generations:  2000,
		Optimum:      objective.MaxFitness(3),
		Workers:      4,
		Seed:         5678,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := driver.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	final := result.Generations[len(result.Generations)-1]
	if final.RatioOptimal < 0.9 {
		t.Fatalf("expected most trajectories optimal by the final generation, got ratio %v",
			final.RatioOptimal)
	}
}
