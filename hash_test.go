package bloomset

import (
	"errors"
	"testing"
)

func TestHashersDeterministic(t *testing.T) {
	hashers := []Hasher{
		NewMetroHasher(1373),
		NewXXH3Hasher(0),
		NewMurmur3Hasher(0),
		NewBlake2bHasher(nil),
		NewBlake2bHasher([]byte("secret key")),
		DefaultHasher(),
	}
	data := []byte("the quick brown fox")
	for _, hasher := range hashers {
		first, err := hasher.Sum128(data)
		if err != nil {
			t.Fatalf("%T: %v", hasher, err)
		}
		second, err := hasher.Sum128(data)
		if err != nil {
			t.Fatalf("%T: %v", hasher, err)
		}
		if first != second {
			t.Errorf("%T is not deterministic: %+v vs %+v", hasher, first, second)
		}
	}
}

func TestHashersDisagree(t *testing.T) {
	// Not a correctness requirement, but if two algorithms produced the
	// same 128-bit value for the same key something is wired wrong.
	data := []byte("collision probe")
	metro, _ := NewMetroHasher(1373).Sum128(data)
	xxh, _ := NewXXH3Hasher(0).Sum128(data)
	murmur, _ := NewMurmur3Hasher(0).Sum128(data)
	if metro == xxh || metro == murmur || xxh == murmur {
		t.Errorf("independent algorithms agreed: metro=%+v xxh3=%+v murmur3=%+v", metro, xxh, murmur)
	}
}

func TestHashSeedMatters(t *testing.T) {
	data := []byte("seeded")
	a, _ := NewMetroHasher(1).Sum128(data)
	b, _ := NewMetroHasher(2).Sum128(data)
	if a == b {
		t.Error("different metro seeds produced the same hash")
	}
}

func TestHash128FromBytes(t *testing.T) {
	digest := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	hash, err := Hash128FromBytes(digest)
	if err != nil {
		t.Fatal(err)
	}
	want := Hash128{Hi: 0x0102030405060708, Lo: 0x090a0b0c0d0e0f10}
	if hash != want {
		t.Errorf("got %+v, want %+v", hash, want)
	}
	for _, n := range []int{0, 8, 15, 17, 32} {
		if _, err := Hash128FromBytes(make([]byte, n)); !errors.Is(err, ErrHashRange) {
			t.Errorf("digest of %d bytes: got %v, want ErrHashRange", n, err)
		}
	}
}

func TestHash128FromInt64(t *testing.T) {
	if got := Hash128FromInt64(1); got != (Hash128{Hi: 0, Lo: 1}) {
		t.Errorf("positive: got %+v", got)
	}
	if got := Hash128FromInt64(-1); got != (Hash128{Hi: ^uint64(0), Lo: ^uint64(0)}) {
		t.Errorf("negative should sign-extend: got %+v", got)
	}
	if got := Hash128FromInt64(0); got != (Hash128{}) {
		t.Errorf("zero: got %+v", got)
	}
}

func TestDefaultHasherShared(t *testing.T) {
	if DefaultHasher() != DefaultHasher() {
		t.Error("DefaultHasher should return the same instance every call")
	}
	// Separately constructed hashers are distinct identities even with
	// identical configuration; filter compatibility depends on this.
	if NewMetroHasher(7) == NewMetroHasher(7) {
		t.Error("separately constructed hashers should not compare equal")
	}
}
