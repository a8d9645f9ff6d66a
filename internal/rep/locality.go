package rep

import (
	"fmt"
	"math/bits"
)

// Locality scores a representation table by summing, over all single-bit-
// flip neighbor pairs, the count of integers lying strictly between the two
// phenotypes. Each unordered pair contributes once on its p1 > p2 side; the
// final doubling restores the symmetric half. Lower is better: zero means
// every neighbor pair decodes to adjacent integers.
func Locality(table []uint64) (uint64, error) {
	if !IsRepresentation(table) {
		return 0, fmt.Errorf("rep: locality requires a permutation of 0..%d, got table of length %d", len(table)-1, len(table))
	}
	width := bits.Len(uint(len(table))) - 1

	var sum uint64
	for i := range table {
		p1 := table[i]
		for b := 0; b < width; b++ {
			p2 := table[i^(1<<b)]
			if p1 > p2 {
				sum += p1 - p2 - 1
			}
		}
	}
	return sum * 2, nil
}

// Neighbors returns the genotypes at Hamming distance one from the given
// bit string, encoded as standard binary values of width bits.
func Neighbors(value uint64, width int) []uint64 {
	out := make([]uint64, width)
	for b := 0; b < width; b++ {
		out[b] = value ^ (1 << uint(b))
	}
	return out
}
