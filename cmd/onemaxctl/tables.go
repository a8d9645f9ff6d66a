package main

import (
	"math/bits"
	"sort"
)

// Named representation tables for the run and locality commands. The
// three-bit tables cover the classic multimodality ladder; the five-bit
// tables are the published worst, uniformly-bad, and non-greedy-Gray
// permutations.
var namedTables = map[string][]uint64{
	"one_maxima":          {5, 4, 1, 6, 7, 3, 0, 2},
	"two_maxima":          {7, 2, 0, 5, 1, 6, 4, 3},
	"three_maxima":        {0, 5, 4, 7, 1, 3, 6, 2},
	"four_maxima":         {5, 7, 6, 4, 1, 3, 2, 0},
	"different_four_maxima": {3, 7, 0, 2, 1, 4, 5, 6},
	"five_worst": {
		4, 30, 29, 13, 24, 8, 2, 18, 21, 15, 10, 25, 14, 31, 17, 1,
		28, 9, 3, 27, 7, 20, 16, 5, 0, 23, 26, 6, 19, 12, 11, 22,
	},
	"five_ubl": {
		24, 1, 4, 19, 15, 16, 21, 13, 9, 26, 18, 0, 23, 12, 6, 22,
		3, 28, 20, 14, 30, 7, 5, 27, 29, 10, 8, 31, 2, 17, 25, 11,
	},
	"five_ngg": {
		0, 1, 19, 2, 31, 28, 20, 3, 23, 26, 24, 25, 22, 27, 21, 4,
		13, 14, 18, 15, 30, 29, 17, 16, 12, 9, 11, 10, 7, 8, 6, 5,
	},
}

// Tables measured by the locality command when none is named.
var localityDemoTables = []struct {
	name  string
	table []uint64
}{
	{"binary", []uint64{0, 1, 2, 3, 4, 5, 6, 7}},
	{"gray", []uint64{0, 1, 3, 2, 7, 6, 4, 5}},
	{"non_greedy_gray", []uint64{0, 7, 1, 2, 5, 6, 4, 3}},
	{"worst", []uint64{0, 5, 6, 3, 7, 1, 2, 4}},
}

func tableNames() []string {
	names := make([]string, 0, len(namedTables))
	for name := range namedTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func tableWidth(table []uint64) int {
	return bits.Len(uint(len(table))) - 1
}
