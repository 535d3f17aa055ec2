package optional

import "encoding/json"

// Value is a tri-state JSON field. A key that is missing from the payload
// leaves Set false; an explicit null sets Set with Null; anything else
// carries a decoded value. Callers must check Set before touching V.
type Value[T any] struct {
	Set  bool
	Null bool
	V    T
}

// Of wraps a concrete value.
func Of[T any](v T) Value[T] {
	return Value[T]{Set: true, V: v}
}

// Null returns an explicit null (clears the field on update).
func Null[T any]() Value[T] {
	return Value[T]{Set: true, Null: true}
}

// Present reports whether the field was supplied with a non-null value.
func (o Value[T]) Present() bool {
	return o.Set && !o.Null
}

func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Null = true
		return nil
	}
	return json.Unmarshal(data, &o.V)
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return []byte("null"), nil
	}
	return json.Marshal(o.V)
}
