package bloomset

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/dgryski/go-metro"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// Hash128 is a 128-bit hash value carried as a raw two's complement bit
// pattern: bit 63 of Hi is the sign bit of the equivalent signed integer.
// The probe generator reinterprets the pattern as unsigned, so negative
// hashes are as valid as positive ones.
type Hash128 struct {
	Hi uint64
	Lo uint64
}

// Hash128FromBytes interprets _digest_ as a big-endian 128-bit value.
// Digests of any other length fall outside the signed 128-bit contract and
// are rejected with ErrHashRange.
func Hash128FromBytes(digest []byte) (Hash128, error) {
	if len(digest) != 16 {
		return Hash128{}, fmt.Errorf("bloomset: digest is %d bytes, want 16: %w", len(digest), ErrHashRange)
	}
	return Hash128{
		Hi: binary.BigEndian.Uint64(digest[:8]),
		Lo: binary.BigEndian.Uint64(digest[8:]),
	}, nil
}

// Hash128FromInt64 sign-extends _value_ onto the 128-bit range.
func Hash128FromInt64(value int64) Hash128 {
	var hi uint64
	if value < 0 {
		hi = ^uint64(0)
	}
	return Hash128{Hi: hi, Lo: uint64(value)}
}

// Hasher converts keys to 128-bit hashes. Filters are only compatible for
// set algebra when they hold the very same Hasher value: identity, not
// behavioral equivalence, is what guards against mixing differently salted
// functions. Implementations must therefore be comparable values, which in
// practice means pointers.
type Hasher interface {
	Sum128(data []byte) (Hash128, error)
}

// MetroHasher hashes with metro128 under a fixed seed. Stable across
// processes for a given seed.
type MetroHasher struct {
	seed uint64
}

func NewMetroHasher(seed uint64) *MetroHasher {
	return &MetroHasher{seed: seed}
}

func (h *MetroHasher) Sum128(data []byte) (Hash128, error) {
	hi, lo := metro.Hash128(data, h.seed)
	return Hash128{Hi: hi, Lo: lo}, nil
}

// XXH3Hasher hashes with xxh3-128 under a fixed seed. Stable across
// processes for a given seed.
type XXH3Hasher struct {
	seed uint64
}

func NewXXH3Hasher(seed uint64) *XXH3Hasher {
	return &XXH3Hasher{seed: seed}
}

func (h *XXH3Hasher) Sum128(data []byte) (Hash128, error) {
	sum := xxh3.Hash128Seed(data, h.seed)
	return Hash128{Hi: sum.Hi, Lo: sum.Lo}, nil
}

// Murmur3Hasher hashes with murmur3-128 under a fixed seed. Stable across
// processes for a given seed.
type Murmur3Hasher struct {
	seed uint32
}

func NewMurmur3Hasher(seed uint32) *Murmur3Hasher {
	return &Murmur3Hasher{seed: seed}
}

func (h *Murmur3Hasher) Sum128(data []byte) (Hash128, error) {
	hi, lo := murmur3.Sum128WithSeed(data, h.seed)
	return Hash128{Hi: hi, Lo: lo}, nil
}

// Blake2bHasher hashes with 128-bit keyed blake2b. Slower than the others
// but keeps the false positive rate honest against adversarial keys when
// the key is secret.
type Blake2bHasher struct {
	key []byte
}

func NewBlake2bHasher(key []byte) *Blake2bHasher {
	return &Blake2bHasher{key: key}
}

func (h *Blake2bHasher) Sum128(data []byte) (Hash128, error) {
	digest, err := blake2b.New(16, h.key)
	if err != nil {
		return Hash128{}, fmt.Errorf("bloomset: blake2b init: %w", err)
	}
	digest.Write(data)
	return Hash128FromBytes(digest.Sum(nil))
}

// defaultHasher is salted once per process, mirroring a host-builtin hash:
// deterministic within the process, meaningless outside it. Filters built
// on it refuse to persist.
var defaultHasher = newProcessHasher()

func newProcessHasher() *MetroHasher {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic("bloomset: cannot salt default hasher: " + err.Error())
	}
	return &MetroHasher{seed: binary.LittleEndian.Uint64(seed[:])}
}

// DefaultHasher returns the shared process-salted hasher used by NewFilter
// and NewRedisFilter when no hasher is supplied.
func DefaultHasher() Hasher {
	return defaultHasher
}
