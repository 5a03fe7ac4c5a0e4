package bloomset

import "fmt"

// checkCompatible verifies that two filters can take part in set algebra:
// equal size, equal probe count and the very same hasher value. Hashers are
// compared by identity, not behavior, so two separately constructed hashers
// of the same kind still make their filters incompatible - superficially
// similar but differently salted functions corrupting each other is exactly
// what this guards against.
func (f *Filter) checkCompatible(other *Filter) error {
	if f.size != other.size || f.numProbes != other.numProbes {
		return fmt.Errorf("bloomset: size and number of probes must be the same for both filters: %w", ErrIncompatibleFilters)
	}
	if f.hasher != other.hasher {
		return fmt.Errorf("bloomset: filters must share the same hasher: %w", ErrIncompatibleFilters)
	}
	if isBitArrayMem(f.bits) != isBitArrayMem(other.bits) {
		return fmt.Errorf("bloomset: filters use different bit array backends: %w", ErrIncompatibleFilters)
	}
	return nil
}

// Update folds every other filter into the receiver with a bitwise OR.
// All operands are validated before the first bit changes, so an
// incompatibility leaves the receiver unmodified.
func (f *Filter) Update(others ...*Filter) error {
	for _, other := range others {
		if err := f.checkCompatible(other); err != nil {
			return err
		}
	}
	for _, other := range others {
		if err := f.bits.orWith(other.bits); err != nil {
			return err
		}
	}
	return nil
}

// IntersectionUpdate folds every other filter into the receiver with a
// bitwise AND. All operands are validated before the first bit changes.
func (f *Filter) IntersectionUpdate(others ...*Filter) error {
	for _, other := range others {
		if err := f.checkCompatible(other); err != nil {
			return err
		}
	}
	for _, other := range others {
		if err := f.bits.andWith(other.bits); err != nil {
			return err
		}
	}
	return nil
}

// Union returns a new Filter containing every element of the receiver and
// of all others. A key found in any operand is found in the result.
func (f *Filter) Union(others ...*Filter) (*Filter, error) {
	result, err := f.Copy()
	if err != nil {
		return nil, err
	}
	if err := result.Update(others...); err != nil {
		return nil, err
	}
	return result, nil
}

// Intersection returns a new Filter whose bits are the AND across the
// receiver and all others.
func (f *Filter) Intersection(others ...*Filter) (*Filter, error) {
	result, err := f.Copy()
	if err != nil {
		return nil, err
	}
	if err := result.IntersectionUpdate(others...); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateItems adds every key in _items_ to the receiver.
func (f *Filter) UpdateItems(items ...[]byte) error {
	for _, item := range items {
		if err := f.Add(item); err != nil {
			return err
		}
	}
	return nil
}

// IntersectionUpdateItems intersects the receiver with a filter of
// identical configuration holding exactly _items_.
func (f *Filter) IntersectionUpdateItems(items ...[]byte) error {
	temp, err := f.emptyClone()
	if err != nil {
		return err
	}
	if err := temp.UpdateItems(items...); err != nil {
		return err
	}
	return f.bits.andWith(temp.bits)
}

// UnionItems returns a new Filter containing the receiver's elements plus
// every key in _items_.
func (f *Filter) UnionItems(items ...[]byte) (*Filter, error) {
	result, err := f.Copy()
	if err != nil {
		return nil, err
	}
	if err := result.UpdateItems(items...); err != nil {
		return nil, err
	}
	return result, nil
}

// IntersectionItems returns a new Filter holding the intersection of the
// receiver with a same-configured filter of exactly _items_.
func (f *Filter) IntersectionItems(items ...[]byte) (*Filter, error) {
	result, err := f.Copy()
	if err != nil {
		return nil, err
	}
	if err := result.IntersectionUpdateItems(items...); err != nil {
		return nil, err
	}
	return result, nil
}

// Equals reports bit-for-bit equality between two compatible filters.
func (f *Filter) Equals(other *Filter) (bool, error) {
	if err := f.checkCompatible(other); err != nil {
		return false, err
	}
	return f.bits.equals(other.bits)
}

// IsSubsetOf reports whether every element of the receiver may be in
// other. Like membership itself the relation is probabilistic: a true
// containment of the underlying sets is always reported, but a reported
// subset does not guarantee true containment. A false result is definite -
// the receiver holds an element that other does not.
func (f *Filter) IsSubsetOf(other *Filter) (bool, error) {
	if err := f.checkCompatible(other); err != nil {
		return false, err
	}
	return f.bits.isSubsetOf(other.bits)
}

// IsSupersetOf reports whether every element of other may be in the
// receiver, with the same caveats as IsSubsetOf.
func (f *Filter) IsSupersetOf(other *Filter) (bool, error) {
	if err := f.checkCompatible(other); err != nil {
		return false, err
	}
	return other.bits.isSubsetOf(f.bits)
}

// IsProperSubsetOf reports IsSubsetOf with at least one bit differing.
func (f *Filter) IsProperSubsetOf(other *Filter) (bool, error) {
	subset, err := f.IsSubsetOf(other)
	if err != nil || !subset {
		return false, err
	}
	equal, err := f.bits.equals(other.bits)
	if err != nil {
		return false, err
	}
	return !equal, nil
}

// IsProperSupersetOf reports IsSupersetOf with at least one bit differing.
func (f *Filter) IsProperSupersetOf(other *Filter) (bool, error) {
	superset, err := f.IsSupersetOf(other)
	if err != nil || !superset {
		return false, err
	}
	equal, err := f.bits.equals(other.bits)
	if err != nil {
		return false, err
	}
	return !equal, nil
}
