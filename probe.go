package bloomset

import "math/bits"

// Multiplier for the 128-bit multiplicative linear congruential generator
// that spreads one hash over the probe indices, split into 64-bit halves.
// The constant 47026247687942121848144207491837418733 is from L'Ecuyer,
// "Tables of linear congruential generators of different sizes and good
// lattice structure" (1999).
const (
	mlcgMultiplierHi = 0x2360ED051FC65DA4
	mlcgMultiplierLo = 0x4385DF649FCB5CED
)

// probeSequence derives bit indices in [0, size) from a single 128-bit
// hash. The state walk is x_{i+1} = (A * x_i) mod 2^128 with the hash as
// x_0; each index is the full state reduced mod size. The sequence is fully
// determined by (hash, size), so repeated lookups probe the same bits.
//
// An all-zero hash is a fixed point of the recurrence and probes bit 0 on
// every draw. That input has probability 2^-128 under any reasonable hasher
// and still yields a correct, merely weak, filter.
type probeSequence struct {
	hi, lo uint64
	size   uint64
}

func newProbeSequence(hash Hash128, size uint64) probeSequence {
	return probeSequence{hi: hash.Hi, lo: hash.Lo, size: size}
}

// next advances the generator and returns the next bit index.
func (s *probeSequence) next() uint64 {
	hi, lo := bits.Mul64(mlcgMultiplierLo, s.lo)
	hi += mlcgMultiplierLo*s.hi + mlcgMultiplierHi*s.lo
	s.hi, s.lo = hi, lo
	return mod128(s.hi, s.lo, s.size)
}

// probeIndexes expands _hash_ into _numProbes_ bit indices in [0, size).
func probeIndexes(hash Hash128, numProbes, size uint64) []uint64 {
	sequence := newProbeSequence(hash, size)
	indexes := make([]uint64, numProbes)
	for i := range indexes {
		indexes[i] = sequence.next()
	}
	return indexes
}

// mod128 reduces the 128-bit value hi:lo modulo m. Reducing hi first keeps
// the quotient of the division below 2^64, which bits.Div64 requires.
func mod128(hi, lo, m uint64) uint64 {
	_, rem := bits.Div64(hi%m, lo, m)
	return rem
}
