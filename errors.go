package bloomset

import "errors"

// Sentinel errors for programmatic handling. Callers dispatch with
// errors.Is; the wrapping messages carry the offending values.
var (
	// ErrInvalidConfiguration is returned when a filter is constructed
	// with a non-positive item count or a false positive rate outside (0, 1).
	ErrInvalidConfiguration = errors.New("invalid filter configuration")

	// ErrIncompatibleFilters is returned by set algebra and comparisons
	// when the operands differ in size, number of probes, hasher identity
	// or bit array backend.
	ErrIncompatibleFilters = errors.New("incompatible filters")

	// ErrHashRange is returned when a digest cannot be interpreted as a
	// signed 128-bit value.
	ErrHashRange = errors.New("hash value outside the signed 128-bit range")

	// ErrTruncated is returned when persisted filter data is shorter than
	// its header declares.
	ErrTruncated = errors.New("truncated filter data")

	// ErrUnstableHasher is returned when persisting or loading a filter
	// built on the process-salted default hasher, whose hashes are
	// meaningless outside the current process.
	ErrUnstableHasher = errors.New("filter uses the process-salted default hasher")
)
