/*
Package bloomset implements a Bloom filter with near-set semantics:
approximate membership testing with a bounded false positive rate, no false
negatives, and set algebra (union, intersection, the six comparison
relations) between compatibly configured filters.

A filter is sized from an expected item count and an acceptable false
positive rate. One 128-bit hash is computed per key and expanded into the
probe indices by a multiplicative linear congruential generator, so a
single hash function carries the whole filter. The bit storage is either
in-memory (https://github.com/bits-and-blooms/bitset) or a redis bitmap.

Filters are not safe for concurrent use. Every operation runs to
completion without internal locking; callers needing concurrency must
serialize mutations externally, or work on independent copies obtained
from Copy.
*/
package bloomset

import (
	"fmt"
	"math"
)

// The Filter data structure.
// _size_ is the number of bits in the backing bit array
// _numProbes_ is the number of bit indices derived per key
// _bits_ is the bit array backing the filter, either a BitArrayMem
// (in-memory) or a BitArrayRedis (redis-backed)
// _hasher_ converts keys to 128-bit hashes; its identity is part of the
// filter's compatibility contract for set algebra
type Filter struct {
	size      uint64
	numProbes uint64
	bits      IBitArray
	hasher    Hasher
}

// NewFilter creates an in-memory Filter sized for _numItems_ elements at a
// false positive rate of _errorRate_, using the process-salted default
// hasher. Filters built this way cannot be persisted; use
// NewFilterWithHasher with a stable hasher when round trips matter.
func NewFilter(numItems uint64, errorRate float64) (*Filter, error) {
	return NewFilterWithHasher(numItems, errorRate, defaultHasher)
}

// NewFilterWithHasher creates an in-memory Filter sized for _numItems_
// elements at a false positive rate of _errorRate_, hashing keys with
// _hasher_.
func NewFilterWithHasher(numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	size, numProbes, err := EstimateParameters(numItems, errorRate)
	if err != nil {
		return nil, err
	}
	if hasher == nil {
		hasher = defaultHasher
	}
	return &Filter{size, numProbes, NewBitArrayMem(size), hasher}, nil
}

// NewRedisFilter creates a redis-backed Filter with the process-salted
// default hasher. MakeRedisClient must have been called first.
func NewRedisFilter(numItems uint64, errorRate float64) (*Filter, error) {
	return NewRedisFilterWithHasher(numItems, errorRate, defaultHasher)
}

// NewRedisFilterWithHasher creates a redis-backed Filter hashing keys with
// _hasher_. MakeRedisClient must have been called first.
func NewRedisFilterWithHasher(numItems uint64, errorRate float64, hasher Hasher) (*Filter, error) {
	size, numProbes, err := EstimateParameters(numItems, errorRate)
	if err != nil {
		return nil, err
	}
	if hasher == nil {
		hasher = defaultHasher
	}
	bits, err := NewBitArrayRedis(size)
	if err != nil {
		return nil, err
	}
	return &Filter{size, numProbes, bits, hasher}, nil
}

// NewFilterWithBitArray creates a Filter over an existing bit array.
// _size_ must match the array length, be positive and byte aligned, and
// _numProbes_ must be at least 1.
func NewFilterWithBitArray(size, numProbes uint64, bits IBitArray, hasher Hasher) (*Filter, error) {
	if size == 0 || size%8 != 0 || numProbes == 0 {
		return nil, fmt.Errorf("bloomset: size %d must be a positive multiple of 8 and probes %d at least 1: %w", size, numProbes, ErrInvalidConfiguration)
	}
	if bits.getSize() != size {
		return nil, fmt.Errorf("bloomset: bit array size %d doesn't match size %d passed: %w", bits.getSize(), size, ErrInvalidConfiguration)
	}
	if hasher == nil {
		hasher = defaultHasher
	}
	return &Filter{size, numProbes, bits, hasher}, nil
}

// Add inserts _data_ into the filter.
func (f *Filter) Add(data []byte) error {
	hash, err := f.hasher.Sum128(data)
	if err != nil {
		return fmt.Errorf("bloomset: hashing key: %w", err)
	}
	_, err = f.bits.insertMulti(probeIndexes(hash, f.numProbes, f.size))
	return err
}

// AddString inserts a string key into the filter.
func (f *Filter) AddString(data string) error {
	return f.Add([]byte(data))
}

// Contains reports whether _data_ may have been added to the filter. False
// positives occur at the rate the filter was sized for; false negatives do
// not occur as long as the hasher is deterministic.
func (f *Filter) Contains(data []byte) (bool, error) {
	hash, err := f.hasher.Sum128(data)
	if err != nil {
		return false, fmt.Errorf("bloomset: hashing key: %w", err)
	}
	probed, err := f.bits.hasMulti(probeIndexes(hash, f.numProbes, f.size))
	if err != nil {
		return false, err
	}
	for i := range probed {
		if !probed[i] {
			return false, nil
		}
	}
	return true, nil
}

// ContainsString reports whether a string key may have been added.
func (f *Filter) ContainsString(data string) (bool, error) {
	return f.Contains([]byte(data))
}

// ApproxItems estimates the number of distinct items added so far from the
// count X of set bits, via -(m/k) * ln(1 - X/m). The estimate is recomputed
// on every call since it changes with each insertion. It is 0 for an empty
// filter and +Inf once the filter saturates (X == m), where the formula is
// undefined - a known limit of the estimator, not an error.
func (f *Filter) ApproxItems() (float64, error) {
	setBits, err := f.bits.bitCount()
	if err != nil {
		return 0, err
	}
	if setBits == 0 {
		return 0, nil
	}
	if setBits >= f.size {
		return math.Inf(1), nil
	}
	m := float64(f.size)
	return -(m / float64(f.numProbes)) * math.Log(1-float64(setBits)/m), nil
}

// IsEmpty reports whether no bit is set.
func (f *Filter) IsEmpty() (bool, error) {
	any, err := f.bits.any()
	if err != nil {
		return false, err
	}
	return !any, nil
}

// Clear zeroes every bit in place. Size, probe count and hasher are
// unchanged.
func (f *Filter) Clear() error {
	return f.bits.clearAll()
}

// Copy returns an independent Filter with a duplicated bit array. The
// hasher reference is shared, not duplicated, so the copy stays
// algebra-compatible with the original.
func (f *Filter) Copy() (*Filter, error) {
	bits, err := f.bits.copy()
	if err != nil {
		return nil, err
	}
	return &Filter{f.size, f.numProbes, bits, f.hasher}, nil
}

// emptyClone returns a zeroed Filter with the receiver's configuration and
// backend.
func (f *Filter) emptyClone() (*Filter, error) {
	clone, err := f.Copy()
	if err != nil {
		return nil, err
	}
	if err := clone.Clear(); err != nil {
		return nil, err
	}
	return clone, nil
}

// SizeInBits returns the number of bits in the backing bit array.
func (f *Filter) SizeInBits() uint64 {
	return f.size
}

// NumProbes returns the number of bit indices derived per key.
func (f *Filter) NumProbes() uint64 {
	return f.numProbes
}

// Hasher returns the hasher the filter was constructed with.
func (f *Filter) Hasher() Hasher {
	return f.hasher
}

// GetBitArray returns the internal bit array. It is a BitArrayMem for an
// in-memory filter and a BitArrayRedis for a redis-backed one.
func (f *Filter) GetBitArray() *IBitArray {
	return &f.bits
}
