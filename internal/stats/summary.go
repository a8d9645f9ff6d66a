package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ConvergenceSummary describes when trajectories first reached the optimum.
// Trajectories that never converged are excluded from the moments.
type ConvergenceSummary struct {
	Trajectories   int     `json:"trajectories"`
	Converged      int     `json:"converged"`
	MeanGeneration float64 `json:"mean_generation"`
	StdDev         float64 `json:"stddev_generation"`
}

// SummarizeConvergence folds per-trajectory first-optimum watermarks
// (1-based generation, 0 for never) into a summary. The moments are NaN
// when no trajectory converged.
func SummarizeConvergence(firstOptimalGens []int) ConvergenceSummary {
	converged := make([]float64, 0, len(firstOptimalGens))
	for _, g := range firstOptimalGens {
		if g > 0 {
			converged = append(converged, float64(g))
		}
	}

	summary := ConvergenceSummary{
		Trajectories: len(firstOptimalGens),
		Converged:    len(converged),
	}
	if len(converged) == 0 {
		summary.MeanGeneration = math.NaN()
		summary.StdDev = math.NaN()
		return summary
	}
	summary.MeanGeneration = stat.Mean(converged, nil)
	summary.StdDev = stat.PopStdDev(converged, nil)
	return summary
}
