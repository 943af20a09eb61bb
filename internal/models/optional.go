package models

// Optional holds a value that may be missing. Missing is distinct from the
// zero value: Some(0) is present, None[float64]() is not.
type Optional[T any] struct {
	value T
	valid bool
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns a missing Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

// IsPresent reports whether a value is held.
func (o Optional[T]) IsPresent() bool {
	return o.valid
}

// IsMissing reports whether no value is held.
func (o Optional[T]) IsMissing() bool {
	return !o.valid
}

// OrElse returns the held value or def when missing.
func (o Optional[T]) OrElse(def T) T {
	if !o.valid {
		return def
	}

	return o.value
}
