package genotype

import (
	"math/rand"
	"strings"
)

// Bits is an ordered, fixed-length bit genotype, most significant bit first.
// Bits are flipped in place and never resized after construction.
type Bits []bool

// RandomBits draws n bits from rng, each set independently by a fair coin
// flip.
func RandomBits(rng *rand.Rand, n int) Bits {
	bits := make(Bits, n)
	for i := range bits {
		if rng.Float64() < 0.5 {
			bits[i] = true
		}
	}
	return bits
}

func (b Bits) Clone() Bits {
	out := make(Bits, len(b))
	copy(out, b)
	return out
}

// OnesCount returns the number of set bits.
func (b Bits) OnesCount() int {
	count := 0
	for _, bit := range b {
		if bit {
			count++
		}
	}
	return count
}

func (b Bits) String() string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, bit := range b {
		if bit {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
