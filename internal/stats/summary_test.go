package stats

import (
	"math"
	"testing"
)

func TestSummarizeConvergenceExcludesUnconverged(t *testing.T) {
	// 0 marks a trajectory that never reached the optimum.
	summary := SummarizeConvergence([]int{2, 4, 4, 4, 5, 5, 7, 9, 0, 0})

	if summary.Trajectories != 10 {
		t.Fatalf("expected 10 trajectories, got %d", summary.Trajectories)
	}
	if summary.Converged != 8 {
		t.Fatalf("expected 8 converged, got %d", summary.Converged)
	}
	if summary.MeanGeneration != 5 {
		t.Fatalf("expected mean 5, got %v", summary.MeanGeneration)
	}
	if math.Abs(summary.StdDev-2) > 1e-12 {
		t.Fatalf("expected stddev 2, got %v", summary.StdDev)
	}
}

func TestSummarizeConvergenceSingleTrajectory(t *testing.T) {
	summary := SummarizeConvergence([]int{17})

	if summary.Converged != 1 || summary.MeanGeneration != 17 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.StdDev != 0 {
		t.Fatalf("expected stddev 0 for one sample, got %v", summary.StdDev)
	}
}

func TestSummarizeConvergenceNoneConverged(t *testing.T) {
	summary := SummarizeConvergence([]int{0, 0, 0})

	if summary.Converged != 0 {
		t.Fatalf("expected 0 converged, got %d", summary.Converged)
	}
	if !math.IsNaN(summary.MeanGeneration) || !math.IsNaN(summary.StdDev) {
		t.Fatalf("expected NaN moments, got %v and %v", summary.MeanGeneration, summary.StdDev)
	}
}
