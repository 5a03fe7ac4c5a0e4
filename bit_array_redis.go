package bloomset

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/redis/go-redis/v9"
)

// BitArrayRedis is the redis-backed implementation of IBitArray.
// _length_ is the number of bits in the array
// _key_ is the redis key holding the bitmap
// Bitmaps are implemented in Redis on top of strings and all bit operations
// run against the string stored at _key_.
// For details, refer https://redis.io/docs/data-types/bitmaps/
//
// Note that redis addresses bit 0 as the most significant bit of the first
// byte, while the canonical layout is least-significant-first. bytes and
// setBytes reverse the bit order of every byte when crossing that boundary.
type BitArrayRedis struct {
	length uint64
	key    string
}

// NewBitArrayRedis creates a zeroed redis bit array of _length_ bits under
// a freshly generated key.
func NewBitArrayRedis(length uint64) (*BitArrayRedis, error) {
	key := generateRandomString(16)
	zero := make([]byte, (length+7)/8)
	err := getRedisClient().Set(context.Background(), key, string(zero), 0).Err()
	if err != nil {
		return nil, fmt.Errorf("bloomset: error while creating redis bit array: %w", err)
	}
	return &BitArrayRedis{length, key}, nil
}

// fromRedisKey wraps the bitmap already stored at _key_.
func fromRedisKey(key string) (*BitArrayRedis, error) {
	value, err := getRedisClient().Get(context.Background(), key).Result()
	if err != nil {
		return nil, fmt.Errorf("bloomset: error while fetching bit array from redis: %w", err)
	}
	return &BitArrayRedis{uint64(len(value)) * 8, key}, nil
}

// getKey gives the key at which the bitmap is saved in redis.
func (b *BitArrayRedis) getKey() string {
	return b.key
}

func (b *BitArrayRedis) getSize() uint64 {
	return b.length
}

func (b *BitArrayRedis) has(index uint64) (bool, error) {
	value, err := getRedisClient().GetBit(context.Background(), b.key, int64(index)).Result()
	if err != nil {
		return false, err
	}
	return value != 0, nil
}

func (b *BitArrayRedis) hasMulti(indexes []uint64) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("bloomset: at least 1 index is required")
	}
	pipe := getRedisClient().Pipeline()
	ctx := context.Background()
	values := make([]*redis.IntCmd, len(indexes))
	for i := range indexes {
		values[i] = pipe.GetBit(ctx, b.key, int64(indexes[i]))
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

func (b *BitArrayRedis) insert(index uint64) (bool, error) {
	err := getRedisClient().SetBit(context.Background(), b.key, int64(index), 1).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *BitArrayRedis) insertMulti(indexes []uint64) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("bloomset: at least 1 index is required")
	}
	pipe := getRedisClient().Pipeline()
	ctx := context.Background()
	for i := range indexes {
		pipe.SetBit(ctx, b.key, int64(indexes[i]), 1)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *BitArrayRedis) bitCount() (uint64, error) {
	bitRange := &redis.BitCount{Start: 0, End: -1}
	value, err := getRedisClient().BitCount(context.Background(), b.key, bitRange).Result()
	if err != nil {
		return 0, err
	}
	return uint64(value), nil
}

func (b *BitArrayRedis) any() (bool, error) {
	index, err := getRedisClient().BitPos(context.Background(), b.key, 1).Result()
	if err != nil {
		return false, err
	}
	return index != -1, nil
}

func (b *BitArrayRedis) clearAll() error {
	zero := make([]byte, (b.length+7)/8)
	return getRedisClient().Set(context.Background(), b.key, string(zero), 0).Err()
}

// orWith folds other into the receiver server-side with BITOP OR.
func (b *BitArrayRedis) orWith(other IBitArray) error {
	otherRedis, err := b.sameBackend(other)
	if err != nil {
		return err
	}
	return getRedisClient().BitOpOr(context.Background(), b.key, b.key, otherRedis.key).Err()
}

// andWith folds other into the receiver server-side with BITOP AND.
func (b *BitArrayRedis) andWith(other IBitArray) error {
	otherRedis, err := b.sameBackend(other)
	if err != nil {
		return err
	}
	return getRedisClient().BitOpAnd(context.Background(), b.key, b.key, otherRedis.key).Err()
}

// isSubsetOf holds iff self AND other == self, computed under a scratch key
// that is deleted before returning.
func (b *BitArrayRedis) isSubsetOf(other IBitArray) (bool, error) {
	otherRedis, err := b.sameBackend(other)
	if err != nil {
		return false, err
	}
	ctx := context.Background()
	scratch := generateRandomString(16)
	defer getRedisClient().Del(ctx, scratch)
	if err := getRedisClient().BitOpAnd(ctx, scratch, b.key, otherRedis.key).Err(); err != nil {
		return false, err
	}
	intersected, err := getRedisClient().Get(ctx, scratch).Result()
	if err != nil {
		return false, err
	}
	self, err := getRedisClient().Get(ctx, b.key).Result()
	if err != nil {
		return false, err
	}
	return intersected == self, nil
}

func (b *BitArrayRedis) equals(other IBitArray) (bool, error) {
	otherRedis, err := b.sameBackend(other)
	if err != nil {
		return false, err
	}
	ctx := context.Background()
	selfValue, err := getRedisClient().Get(ctx, b.key).Result()
	if err != nil {
		return false, err
	}
	otherValue, err := getRedisClient().Get(ctx, otherRedis.key).Result()
	if err != nil {
		return false, err
	}
	return selfValue == otherValue, nil
}

func (b *BitArrayRedis) copy() (IBitArray, error) {
	ctx := context.Background()
	value, err := getRedisClient().Get(ctx, b.key).Result()
	if err != nil {
		return nil, err
	}
	key := generateRandomString(16)
	if err := getRedisClient().Set(ctx, key, value, 0).Err(); err != nil {
		return nil, err
	}
	return &BitArrayRedis{b.length, key}, nil
}

func (b *BitArrayRedis) bytes() ([]byte, error) {
	value, err := getRedisClient().Get(context.Background(), b.key).Result()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, b.length/8)
	copy(buf, value)
	for i := range buf {
		buf[i] = bits.Reverse8(buf[i])
	}
	return buf, nil
}

func (b *BitArrayRedis) setBytes(buf []byte) error {
	if uint64(len(buf)) != b.length/8 {
		return fmt.Errorf("bloomset: buffer is %d bytes, want %d: %w", len(buf), b.length/8, ErrTruncated)
	}
	reversed := make([]byte, len(buf))
	for i := range buf {
		reversed[i] = bits.Reverse8(buf[i])
	}
	return getRedisClient().Set(context.Background(), b.key, string(reversed), 0).Err()
}

func (b *BitArrayRedis) sameBackend(other IBitArray) (*BitArrayRedis, error) {
	otherRedis, ok := other.(*BitArrayRedis)
	if !ok {
		return nil, fmt.Errorf("bloomset: bit arrays use different backends: %w", ErrIncompatibleFilters)
	}
	if otherRedis.length != b.length {
		return nil, fmt.Errorf("bloomset: bit arrays differ in length (%d vs %d): %w", b.length, otherRedis.length, ErrIncompatibleFilters)
	}
	return otherRedis, nil
}
