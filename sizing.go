package bloomset

import (
	"fmt"
	"math"
)

// EstimateParameters computes the bit array size _size_ and the number of
// probes _numProbes_ for a filter expected to hold _numItems_ elements at a
// false positive rate of _errorRate_, using the standard optimal formulas
//
//	m = ceil(-n * ln(p) / (ln 2)^2)
//	k = max(1, round((m / n) * ln 2))
//
// _size_ is rounded up to a multiple of the word size so the bit array stays
// word aligned, and never goes below one word.
func EstimateParameters(numItems uint64, errorRate float64) (size, numProbes uint64, err error) {
	if numItems == 0 {
		return 0, 0, fmt.Errorf("bloomset: expected items must be greater than 0: %w", ErrInvalidConfiguration)
	}
	if errorRate <= 0 || errorRate >= 1 {
		return 0, 0, fmt.Errorf("bloomset: false positive rate %v must be between 0 and 1: %w", errorRate, ErrInvalidConfiguration)
	}
	bits := math.Ceil(-float64(numItems) * math.Log(errorRate) / (math.Ln2 * math.Ln2))
	size = roundToWord(uint64(bits))
	numProbes = uint64(math.Round(float64(size) / float64(numItems) * math.Ln2))
	if numProbes < 1 {
		numProbes = 1
	}
	return size, numProbes, nil
}

// roundToWord rounds _bits_ up to the nearest multiple of wordSize, with a
// floor of one word so tiny item counts never produce a degenerate array.
func roundToWord(bits uint64) uint64 {
	if bits < wordSize {
		return wordSize
	}
	if rem := bits % wordSize; rem != 0 {
		bits += wordSize - rem
	}
	return bits
}
