/*
Bit array layer backing the filter - both in-memory and redis.
For in-memory, https://github.com/bits-and-blooms/bitset is used while
for redis, bitmap operations of redis are used.
*/
package bloomset

const (
	wordSize  = uint64(64)
	wordBytes = wordSize / 8
)

// IBitArray is a fixed-length sequence of bits. The length never changes
// after construction and every operation combining two arrays requires
// equal lengths and the same backend. Callers derive indices mod length, so
// implementations treat an out-of-range index as a programming error rather
// than a recoverable condition.
//
// The byte layout produced by bytes and consumed by setBytes is canonical
// across backends: bit i lives at byte i/8 under mask 1<<(i%8), trailing
// pad bits zero.
type IBitArray interface {
	// getSize returns the number of bits in the array
	getSize() uint64

	// has reports whether the bit at index is set
	has(index uint64) (bool, error)

	// hasMulti reports, per index, whether the bit is set
	hasMulti(indexes []uint64) ([]bool, error)

	// insert sets the bit at index
	insert(index uint64) (bool, error)

	// insertMulti sets the bits at all the passed indexes
	insertMulti(indexes []uint64) (bool, error)

	// bitCount returns the total number of set bits
	bitCount() (uint64, error)

	// any reports whether at least one bit is set
	any() (bool, error)

	// clearAll zeroes every bit in place
	clearAll() error

	// orWith folds other into the receiver with a bitwise OR
	orWith(other IBitArray) error

	// andWith folds other into the receiver with a bitwise AND
	andWith(other IBitArray) error

	// isSubsetOf reports whether every set bit of the receiver is
	// also set in other
	isSubsetOf(other IBitArray) (bool, error)

	// equals reports bit-for-bit equality
	equals(other IBitArray) (bool, error)

	// copy returns an independent array with the same bits
	copy() (IBitArray, error)

	// bytes exports the canonical byte buffer
	bytes() ([]byte, error)

	// setBytes replaces the contents from a canonical byte buffer
	setBytes(buf []byte) error
}

// isBitArrayMem is used to check whether t is memory backed.
func isBitArrayMem(t IBitArray) bool {
	switch t.(type) {
	case *BitArrayMem:
		return true
	default:
		return false
	}
}
