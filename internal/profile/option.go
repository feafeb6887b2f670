package profile

// Option is a tri-state capable optional: absent, or present with a value.
// The zero value is absent. Combined with bool it expresses the
// absent / explicit-false / explicit-true states the fidelity engine depends
// on; a nullable-with-default field would collapse the first two.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns a present Option holding value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, present: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Present reports whether a value was recorded.
func (o Option[T]) Present() bool { return o.present }

// Value returns the recorded value and whether one is present.
func (o Option[T]) Value() (T, bool) { return o.value, o.present }

// Or returns the recorded value, or fallback when absent.
func (o Option[T]) Or(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}
