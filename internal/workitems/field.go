package workitems

// Field is an optional patch field with three states: absent (the zero
// value), explicit null, or a value. Builders emit a wire key only for
// present fields, so an untouched Field contributes nothing to a payload.
type Field[T any] struct {
	present bool
	value   *T
}

// Set returns a present Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: &v}
}

// Null returns a present Field carrying an explicit null, used to clear
// a remote value.
func Null[T any]() Field[T] {
	return Field[T]{present: true}
}

// Present reports whether the field was supplied at all.
func (f Field[T]) Present() bool { return f.present }

// Value returns the carried value; ok is false when the field is absent
// or null.
func (f Field[T]) Value() (T, bool) {
	if f.value == nil {
		var zero T
		return zero, false
	}
	return *f.value, true
}

// wire returns the JSON representation: the value, or nil for null.
// Callers must check Present first.
func (f Field[T]) wire() any {
	if f.value == nil {
		return nil
	}
	return *f.value
}
