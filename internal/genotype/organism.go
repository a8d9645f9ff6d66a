package genotype

import "math/rand"

// FitnessFunc scores a genotype. Implementations must be pure: the same bits
// always yield the same fitness.
type FitnessFunc func(Bits) float64

// Organism owns one bit genotype and a reference to the fitness function it
// is scored against. The mutation rate applies only to MutateAll.
type Organism struct {
	bits         Bits
	fitness      FitnessFunc
	mutationRate float64
}

// NewOrganism constructs an organism with a uniformly random genotype drawn
// from rng.
func NewOrganism(rng *rand.Rand, length int, fitness FitnessFunc, mutationRate float64) *Organism {
	return &Organism{
		bits:         RandomBits(rng, length),
		fitness:      fitness,
		mutationRate: mutationRate,
	}
}

// Fitness recomputes the score on every call; the genotype may have changed
// since the last one.
func (o *Organism) Fitness() float64 {
	return o.fitness(o.bits)
}

// Flip toggles exactly one bit. The index must be in [0, Len).
func (o *Organism) Flip(index int) {
	o.bits[index] = !o.bits[index]
}

// MutateAll flips every bit independently with the organism's mutation rate.
func (o *Organism) MutateAll(rng *rand.Rand) {
	for i := range o.bits {
		if rng.Float64() < o.mutationRate {
			o.Flip(i)
		}
	}
}

// Clone copies the genotype; the fitness function is shared by reference.
func (o *Organism) Clone() *Organism {
	return &Organism{
		bits:         o.bits.Clone(),
		fitness:      o.fitness,
		mutationRate: o.mutationRate,
	}
}

func (o *Organism) Len() int {
	return len(o.bits)
}

// Bits returns a snapshot of the genotype.
func (o *Organism) Bits() Bits {
	return o.bits.Clone()
}

func (o *Organism) String() string {
	return o.bits.String()
}
