// Package objective builds the fitness functions bound into organisms:
// distance-to-target One-Max over a representation, and a raw bit count.
package objective

import (
	"fmt"
	"math"

	"onemaxlab/internal/genotype"
	"onemaxlab/internal/rep"
)

// MaxLength bounds the genotype length so that phenotypes and fitness values
// stay exactly representable as float64 integers.
const MaxLength = 52

// OneMax builds the objective maximized when the decoded phenotype equals
// target: maxfit - |phenotype - target| with maxfit = 2^length - 1. A target
// outside the representable range is a configuration error, reported at
// construction rather than at first evaluation.
func OneMax(target uint64, r rep.Func, length int) (genotype.FitnessFunc, error) {
	if length <= 0 || length > MaxLength {
		return nil, fmt.Errorf("objective: genotype length must be in [1, %d], got %d", MaxLength, length)
	}
	if r == nil {
		return nil, fmt.Errorf("objective: representation is required")
	}
	maxfit := MaxFitness(length)
	if float64(target) > maxfit {
		return nil, fmt.Errorf("objective: target %d exceeds maximum representable phenotype %.0f", target, maxfit)
	}
	return func(bits genotype.Bits) float64 {
		phenotype := r(bits)
		return maxfit - math.Abs(float64(phenotype)-float64(target))
	}, nil
}

// CountOnes scores a genotype by its number of set bits, independent of
// representation and target. It exists to validate the search loop itself
// against an objective with a trivially known optimum.
func CountOnes() genotype.FitnessFunc {
	return func(bits genotype.Bits) float64 {
		return float64(bits.OnesCount())
	}
}

// MaxFitness is the provable optimum of the OneMax objective for the given
// genotype length, assuming the target is representable.
func MaxFitness(length int) float64 {
	return float64(uint64(1)<<uint(length) - 1)
}

// MaxCountOnes is the provable optimum of the CountOnes objective.
func MaxCountOnes(length int) float64 {
	return float64(length)
}
