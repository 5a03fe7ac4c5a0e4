package bloomset

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// BitArrayMem is the in-memory implementation of IBitArray.
// _length_ is the number of bits in the array
// _set_ is the bitset adopted from https://github.com/bits-and-blooms/bitset
type BitArrayMem struct {
	set    *bitset.BitSet
	length uint64
}

// NewBitArrayMem creates a zeroed in-memory bit array of _length_ bits.
func NewBitArrayMem(length uint64) *BitArrayMem {
	return &BitArrayMem{bitset.New(uint(length)), length}
}

func (b *BitArrayMem) getSize() uint64 {
	return b.length
}

func (b *BitArrayMem) has(index uint64) (bool, error) {
	return b.set.Test(uint(index)), nil
}

func (b *BitArrayMem) hasMulti(indexes []uint64) ([]bool, error) {
	result := make([]bool, len(indexes))
	for i := range indexes {
		result[i] = b.set.Test(uint(indexes[i]))
	}
	return result, nil
}

func (b *BitArrayMem) insert(index uint64) (bool, error) {
	b.set.Set(uint(index))
	return true, nil
}

func (b *BitArrayMem) insertMulti(indexes []uint64) (bool, error) {
	for i := range indexes {
		b.set.Set(uint(indexes[i]))
	}
	return true, nil
}

func (b *BitArrayMem) bitCount() (uint64, error) {
	return uint64(b.set.Count()), nil
}

func (b *BitArrayMem) any() (bool, error) {
	return b.set.Any(), nil
}

func (b *BitArrayMem) clearAll() error {
	b.set.ClearAll()
	return nil
}

func (b *BitArrayMem) orWith(other IBitArray) error {
	otherMem, err := b.sameBackend(other)
	if err != nil {
		return err
	}
	b.set.InPlaceUnion(otherMem.set)
	return nil
}

func (b *BitArrayMem) andWith(other IBitArray) error {
	otherMem, err := b.sameBackend(other)
	if err != nil {
		return err
	}
	b.set.InPlaceIntersection(otherMem.set)
	return nil
}

func (b *BitArrayMem) isSubsetOf(other IBitArray) (bool, error) {
	otherMem, err := b.sameBackend(other)
	if err != nil {
		return false, err
	}
	return otherMem.set.IsSuperSet(b.set), nil
}

func (b *BitArrayMem) equals(other IBitArray) (bool, error) {
	otherMem, err := b.sameBackend(other)
	if err != nil {
		return false, err
	}
	return b.set.Equal(otherMem.set), nil
}

func (b *BitArrayMem) copy() (IBitArray, error) {
	return &BitArrayMem{b.set.Clone(), b.length}, nil
}

// bytes lays the underlying words out little-endian, which places bit i at
// byte i/8 under mask 1<<(i%8) - the canonical layout.
func (b *BitArrayMem) bytes() ([]byte, error) {
	words := b.set.Bytes()
	buf := make([]byte, uint64(len(words))*wordBytes)
	for i, word := range words {
		binary.LittleEndian.PutUint64(buf[uint64(i)*wordBytes:], word)
	}
	return buf[:b.length/8], nil
}

func (b *BitArrayMem) setBytes(buf []byte) error {
	if uint64(len(buf)) != b.length/8 {
		return fmt.Errorf("bloomset: buffer is %d bytes, want %d: %w", len(buf), b.length/8, ErrTruncated)
	}
	words := make([]uint64, (uint64(len(buf))+wordBytes-1)/wordBytes)
	var tail [8]byte
	for i := range words {
		chunk := buf[uint64(i)*wordBytes:]
		if len(chunk) >= 8 {
			words[i] = binary.LittleEndian.Uint64(chunk)
		} else {
			tail = [8]byte{}
			copy(tail[:], chunk)
			words[i] = binary.LittleEndian.Uint64(tail[:])
		}
	}
	b.set = bitset.FromWithLength(uint(b.length), words)
	return nil
}

func (b *BitArrayMem) sameBackend(other IBitArray) (*BitArrayMem, error) {
	otherMem, ok := other.(*BitArrayMem)
	if !ok {
		return nil, fmt.Errorf("bloomset: bit arrays use different backends: %w", ErrIncompatibleFilters)
	}
	if otherMem.length != b.length {
		return nil, fmt.Errorf("bloomset: bit arrays differ in length (%d vs %d): %w", b.length, otherMem.length, ErrIncompatibleFilters)
	}
	return otherMem, nil
}
