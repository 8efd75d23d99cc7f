// Package pipectx implements the three layered context shapes a pipeline
// run is built from: an immutable Plain snapshot, a mutable SourceTracked
// map carrying provenance, and a MutableView overlay that restricts a
// single step's body to its declared consumes/produces surface.
package pipectx

import "github.com/vkazantsev/flowcore/internal/varset"

// Readable is the read surface shared by Plain and Tracked: enough for one
// context layer to be lifted into, or overlaid by, another.
type Readable interface {
	AsTypedMap() map[varset.KeyID]any
}

// Plain is an immutable snapshot of Key -> Value. It never changes after
// construction; every read goes straight to the underlying map.
type Plain struct {
	values map[varset.KeyID]any
}

// NewPlain builds a Plain context from values. The caller must not mutate
// values afterward; NewPlain does not copy it.
func NewPlain(values map[varset.KeyID]any) *Plain {
	if values == nil {
		values = map[varset.KeyID]any{}
	}
	return &Plain{values: values}
}

// AsTypedMap returns the read-only snapshot backing p.
func (p *Plain) AsTypedMap() map[varset.KeyID]any {
	return p.values
}

// Exists reports whether key has an entry in r, regardless of its type.
func Exists(r Readable, key varset.AnyKey) bool {
	_, ok := r.AsTypedMap()[key.ID()]
	return ok
}

// Get retrieves the value at key from r, or MissingValue if absent.
func Get[T any](r Readable, key varset.Key[T]) (T, error) {
	var zero T
	v, ok := r.AsTypedMap()[key.ID()]
	if !ok {
		return zero, &MissingValue{Key: key.Name()}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &MissingValue{Key: key.Name()}
	}
	return typed, nil
}

// GetOrNull retrieves the value at key from r, returning (zero, false) if
// absent rather than an error.
func GetOrNull[T any](r Readable, key varset.Key[T]) (T, bool) {
	var zero T
	v, ok := r.AsTypedMap()[key.ID()]
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
