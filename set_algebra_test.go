package bloomset

import (
	"errors"
	"strconv"
	"testing"
)

func newTestPair(t *testing.T) (*Filter, *Filter) {
	t.Helper()
	hasher := NewXXH3Hasher(7)
	a, err := NewFilterWithHasher(1000, 0.01, hasher)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFilterWithHasher(1000, 0.01, hasher)
	if err != nil {
		t.Fatal(err)
	}
	return a, b
}

func TestUnionContainsBothSides(t *testing.T) {
	a, b := newTestPair(t)
	a.UpdateItems([]byte("alpha"), []byte("beta"))
	b.UpdateItems([]byte("gamma"), []byte("delta"))

	union, err := a.Union(b)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"alpha", "beta", "gamma", "delta"} {
		if ok, _ := union.ContainsString(key); !ok {
			t.Errorf("%q should be in the union", key)
		}
	}
	// The operands themselves must be untouched.
	if ok, _ := a.ContainsString("gamma"); ok {
		t.Error("Union should not mutate its receiver")
	}
	if sup, _ := union.IsSupersetOf(a); !sup {
		t.Error("union should be a superset of a")
	}
	if sup, _ := union.IsSupersetOf(b); !sup {
		t.Error("union should be a superset of b")
	}
}

func TestIntersectionIsSubsetOfBoth(t *testing.T) {
	a, b := newTestPair(t)
	for i := 0; i < 100; i++ {
		key := []byte("shared-" + strconv.Itoa(i))
		a.Add(key)
		b.Add(key)
	}
	a.AddString("only-a")
	b.AddString("only-b")

	inter, err := a.Intersection(b)
	if err != nil {
		t.Fatal(err)
	}
	if sub, _ := inter.IsSubsetOf(a); !sub {
		t.Error("intersection should be a subset of a")
	}
	if sub, _ := inter.IsSubsetOf(b); !sub {
		t.Error("intersection should be a subset of b")
	}
	for i := 0; i < 100; i++ {
		if ok, _ := inter.ContainsString("shared-" + strconv.Itoa(i)); !ok {
			t.Errorf("shared-%d should survive the intersection", i)
		}
	}
}

func TestUpdateInPlace(t *testing.T) {
	a, b := newTestPair(t)
	a.AddString("mine")
	b.AddString("yours")
	if err := a.Update(b); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.ContainsString("yours"); !ok {
		t.Error("Update should fold the operand in")
	}
	if ok, _ := b.ContainsString("mine"); ok {
		t.Error("Update should not mutate the operand")
	}
}

func TestIntersectionUpdateItems(t *testing.T) {
	a, _ := newTestPair(t)
	a.UpdateItems([]byte("keep"), []byte("drop"))
	if err := a.IntersectionUpdateItems([]byte("keep")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := a.ContainsString("keep"); !ok {
		t.Error(`"keep" should survive the intersection`)
	}
	if ok, _ := a.ContainsString("drop"); ok {
		t.Error(`"drop" should not survive the intersection`)
	}
}

// Mirrors the original suite: a&b == a and a|b == b when a is contained
// in b.
func TestAlgebraIdentities(t *testing.T) {
	a, b := newTestPair(t)
	a.UpdateItems([]byte("one"), []byte("two"))
	b.UpdateItems([]byte("one"), []byte("two"), []byte("three"))

	inter, err := a.Intersection(b)
	if err != nil {
		t.Fatal(err)
	}
	if equal, _ := inter.Equals(a); !equal {
		t.Error("a & b should equal a when a is contained in b")
	}
	union, err := a.Union(b)
	if err != nil {
		t.Fatal(err)
	}
	if equal, _ := union.Equals(b); !equal {
		t.Error("a | b should equal b when a is contained in b")
	}
}

func TestComparisons(t *testing.T) {
	a, b := newTestPair(t)
	a.AddString("common")
	b.AddString("common")
	b.AddString("extra")

	if sub, _ := a.IsSubsetOf(b); !sub {
		t.Error("a should be a subset of b")
	}
	if sub, _ := a.IsProperSubsetOf(b); !sub {
		t.Error("a should be a proper subset of b")
	}
	if sup, _ := b.IsSupersetOf(a); !sup {
		t.Error("b should be a superset of a")
	}
	if sup, _ := b.IsProperSupersetOf(a); !sup {
		t.Error("b should be a proper superset of a")
	}
	if sub, _ := b.IsSubsetOf(a); sub {
		t.Error("b should not be a subset of a")
	}

	// Every filter relates reflexively, but never properly.
	if sub, _ := a.IsSubsetOf(a); !sub {
		t.Error("a filter is a subset of itself")
	}
	if sup, _ := a.IsSupersetOf(a); !sup {
		t.Error("a filter is a superset of itself")
	}
	if sub, _ := a.IsProperSubsetOf(a); sub {
		t.Error("a filter is not a proper subset of itself")
	}
	if equal, _ := a.Equals(a); !equal {
		t.Error("a filter equals itself")
	}
}

func TestIncompatibleSizes(t *testing.T) {
	hasher := NewXXH3Hasher(7)
	a, _ := NewFilterWithHasher(1000, 0.01, hasher)
	b, _ := NewFilterWithHasher(2000, 0.01, hasher)
	if _, err := a.Union(b); !errors.Is(err, ErrIncompatibleFilters) {
		t.Errorf("union of differently sized filters: got %v, want ErrIncompatibleFilters", err)
	}
	if _, err := a.Equals(b); !errors.Is(err, ErrIncompatibleFilters) {
		t.Errorf("comparison of differently sized filters: got %v, want ErrIncompatibleFilters", err)
	}
	if err := a.IntersectionUpdate(b); !errors.Is(err, ErrIncompatibleFilters) {
		t.Errorf("in-place intersection: got %v, want ErrIncompatibleFilters", err)
	}
}

// Hasher compatibility is identity, not configuration: two separately
// constructed hashers with the same seed are still different functions as
// far as set algebra is concerned.
func TestIncompatibleHashers(t *testing.T) {
	a, _ := NewFilterWithHasher(1000, 0.01, NewXXH3Hasher(7))
	b, _ := NewFilterWithHasher(1000, 0.01, NewXXH3Hasher(7))
	if _, err := a.Union(b); !errors.Is(err, ErrIncompatibleFilters) {
		t.Errorf("union across hasher identities: got %v, want ErrIncompatibleFilters", err)
	}

	shared := NewMurmur3Hasher(0)
	c, _ := NewFilterWithHasher(1000, 0.01, shared)
	d, _ := NewFilterWithHasher(1000, 0.01, shared)
	if _, err := c.Union(d); err != nil {
		t.Errorf("union with a shared hasher should work, got %v", err)
	}
}

// An incompatible operand anywhere in the argument list must leave the
// receiver untouched.
func TestUpdateAtomicOnError(t *testing.T) {
	a, b := newTestPair(t)
	b.AddString("poison-free")
	bad, _ := NewFilterWithHasher(2000, 0.01, NewXXH3Hasher(7))
	if err := a.Update(b, bad); !errors.Is(err, ErrIncompatibleFilters) {
		t.Fatalf("got %v, want ErrIncompatibleFilters", err)
	}
	if empty, _ := a.IsEmpty(); !empty {
		t.Error("failed Update should leave the receiver unmodified")
	}
}

func TestRedisFilterAlgebra(t *testing.T) {
	initMockRedis()
	hasher := NewXXH3Hasher(3)
	a, err := NewRedisFilterWithHasher(500, 0.01, hasher)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewRedisFilterWithHasher(500, 0.01, hasher)
	if err != nil {
		t.Fatal(err)
	}
	a.AddString("redis-a")
	b.AddString("redis-b")
	union, err := a.Union(b)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"redis-a", "redis-b"} {
		if ok, _ := union.ContainsString(key); !ok {
			t.Errorf("%q should be in the redis union", key)
		}
	}
	if sub, _ := a.IsSubsetOf(union); !sub {
		t.Error("a should be a subset of the redis union")
	}

	mem, _ := NewFilterWithHasher(500, 0.01, hasher)
	if _, err := a.Union(mem); !errors.Is(err, ErrIncompatibleFilters) {
		t.Errorf("cross-backend union: got %v, want ErrIncompatibleFilters", err)
	}
}
