package entities

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Optional holds a value that may or may not have been provided.
// For nullable columns T is a pointer type, so Some(nil) is an explicit clear
// while the zero Optional means "leave unchanged".
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// None returns an unset Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Or returns the held value when set, otherwise fallback.
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// UnmarshalJSON marks the value as set whenever the key is present. An
// explicit null only sets nullable types (pointers, slices, maps) to nil; for
// value types it leaves the Optional unset. Absent keys never reach this method.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		o.Set = nullable[T]()
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

func nullable[T any]() bool {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	}
	return false
}

// IsZero reports whether the value was left unset; used by the omitzero tag.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns a pointer to v. Handy for building Optional[*T] patches.
func Ptr[T any](v T) *T {
	return &v
}
