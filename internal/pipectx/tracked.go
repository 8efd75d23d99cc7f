package pipectx

import "github.com/vkazantsev/flowcore/internal/varset"

// Source marks a value as produced by a given step with a given input
// fingerprint. A nil *Source denotes an externally seeded value.
type Source struct {
	Step      string
	InputHash uint64
}

type trackedEntry struct {
	value  any
	source *Source
}

// Tracked is a SourceTracked context: a mutable Key -> (Value, Source) map.
// Every step commit, load from the persistence store, and invalidation
// pass operates on a Tracked.
type Tracked struct {
	entries map[varset.KeyID]trackedEntry
}

// NewTracked builds an empty Tracked context.
func NewTracked() *Tracked {
	return &Tracked{entries: map[varset.KeyID]trackedEntry{}}
}

// FromAny lifts r into a Tracked context: if r is already a *Tracked, it is
// cloned; otherwise every entry is tagged with source = nil.
func FromAny(r Readable) *Tracked {
	if t, ok := r.(*Tracked); ok {
		return t.Clone()
	}
	out := NewTracked()
	for id, v := range r.AsTypedMap() {
		out.entries[id] = trackedEntry{value: v}
	}
	return out
}

// Clone returns a deep-enough copy of t: a new entries map, so mutating the
// clone never affects t. Values themselves are not deep-copied.
func (t *Tracked) Clone() *Tracked {
	out := NewTracked()
	for id, e := range t.entries {
		out.entries[id] = e
	}
	return out
}

// AsTypedMap returns a snapshot of the current values, keyed by id, with
// source information stripped.
func (t *Tracked) AsTypedMap() map[varset.KeyID]any {
	out := make(map[varset.KeyID]any, len(t.entries))
	for id, e := range t.entries {
		out[id] = e.value
	}
	return out
}

// SetAny sets the raw value and source for id, bypassing type checking.
// Used by the persistence loader, which decodes into `any` via a key's
// registered deserializer before committing.
func (t *Tracked) SetAny(id varset.KeyID, value any, source *Source) {
	t.entries[id] = trackedEntry{value: value, source: source}
}

// RemoveID deletes id from t, if present.
func (t *Tracked) RemoveID(id varset.KeyID) {
	delete(t.entries, id)
}

// Exists reports whether id has an entry.
func (t *Tracked) Exists(id varset.KeyID) bool {
	_, ok := t.entries[id]
	return ok
}

// SourceFor returns the recorded source for id, or nil if id is absent or
// was set without provenance.
func (t *Tracked) SourceFor(id varset.KeyID) *Source {
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	return e.source
}

// Set stores value at key with the given source (nil for an externally
// seeded value).
func Set[T any](t *Tracked, key varset.Key[T], value T, source *Source) {
	t.entries[key.ID()] = trackedEntry{value: value, source: source}
}

// Remove deletes key's entry from t, if present.
func Remove(t *Tracked, key varset.AnyKey) {
	t.RemoveID(key.ID())
}

// GetTracked returns the value and source recorded at key, or MissingValue
// if key has no entry.
func GetTracked[T any](t *Tracked, key varset.Key[T]) (T, *Source, error) {
	var zero T
	e, ok := t.entries[key.ID()]
	if !ok {
		return zero, nil, &MissingValue{Key: key.Name()}
	}
	typed, ok := e.value.(T)
	if !ok {
		return zero, nil, &MissingValue{Key: key.Name()}
	}
	return typed, e.source, nil
}
