// Package rep holds genotype-to-phenotype representations: bijective
// mappings from fixed-length bit strings onto [0, 2^L-1], plus the locality
// metric that scores how well a representation preserves neighborhoods.
package rep

import (
	"fmt"

	"onemaxlab/internal/genotype"
)

// Func decodes a bit genotype into its integer phenotype. Every valid Func
// is a permutation of phenotype space.
type Func func(genotype.Bits) uint64

// StdBinary decodes bits as a big-endian binary number.
func StdBinary(bits genotype.Bits) uint64 {
	var v uint64
	for _, bit := range bits {
		v <<= 1
		if bit {
			v |= 1
		}
	}
	if len(bits) < 64 && v >= uint64(1)<<uint(len(bits)) {
		// Unreachable for any correctly constructed genotype.
		panic("rep: phenotype exceeds representable range")
	}
	return v
}

// BinaryReflectedGray decodes bits as a binary-reflected Gray code: the
// first bit seeds the accumulator, each later bit XORs the previous low bit
// before shifting in. Phenotypes of Gray-adjacent integers differ by exactly
// one genotype bit.
func BinaryReflectedGray(bits genotype.Bits) uint64 {
	if len(bits) == 0 {
		return 0
	}
	var v uint64
	if bits[0] {
		v = 1
	}
	for _, bit := range bits[1:] {
		prev := v & 1
		v <<= 1
		if bit {
			v |= prev ^ 1
		} else {
			v |= prev
		}
	}
	return v
}

// Table builds a representation from an explicit permutation of 0..2^L-1,
// indexed by the standard binary value of the genotype. The table is copied
// and validated up front.
func Table(table []uint64) (Func, error) {
	if !IsRepresentation(table) {
		return nil, fmt.Errorf("rep: table of length %d is not a permutation of 0..%d", len(table), len(table)-1)
	}
	mapping := append([]uint64(nil), table...)
	return func(bits genotype.Bits) uint64 {
		return mapping[StdBinary(bits)]
	}, nil
}

// IsRepresentation reports whether table is a permutation of 0..len-1.
// A representation table must have power-of-two length.
func IsRepresentation(table []uint64) bool {
	n := len(table)
	if n == 0 || n&(n-1) != 0 {
		return false
	}
	seen := make([]bool, n)
	for _, v := range table {
		if v >= uint64(n) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
