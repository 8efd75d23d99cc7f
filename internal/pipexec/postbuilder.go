package pipexec

import (
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// PostBuilder wraps the Tracked context a run finished with, alongside the
// Pipeline it belongs to. Read results off it with Get, GetOrNull, Multi,
// or drop to the raw Vars/Tracked views.
type PostBuilder struct {
	pipeline *pipeline.Pipeline
	tracked  *pipectx.Tracked
}

// Pipeline returns the Pipeline this result belongs to.
func (b *PostBuilder) Pipeline() *pipeline.Pipeline { return b.pipeline }

// PlainView is an immutable, provenance-stripped read surface over a run's
// final context.
type PlainView struct {
	plain *pipectx.Plain
}

// TrackedView is the provenance-carrying read surface over a run's final
// context.
type TrackedView struct {
	tracked *pipectx.Tracked
}

// Vars collapses the run's result into a PlainView, discarding provenance.
func (b *PostBuilder) Vars() PlainView {
	return PlainView{plain: pipectx.NewPlain(b.tracked.AsTypedMap())}
}

// Tracked exposes the run's result as a TrackedView, retaining provenance.
func (b *PostBuilder) Tracked() TrackedView {
	return TrackedView{tracked: b.tracked}
}

// Get reads key from the run's result, returning MissingValue if absent.
func Get[T any](b *PostBuilder, key varset.Key[T]) (T, error) {
	return pipectx.Get(b.tracked, key)
}

// GetOrNull reads key from the run's result, returning (zero, false)
// instead of an error if absent.
func GetOrNull[T any](b *PostBuilder, key varset.Key[T]) (T, bool) {
	return pipectx.GetOrNull(b.tracked, key)
}

// Multi reads every key in keys from the run's result, keyed by name.
// A key with no entry is simply omitted, not an error.
func Multi(b *PostBuilder, keys []varset.AnyKey) map[string]any {
	values := b.tracked.AsTypedMap()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := values[k.ID()]; ok {
			out[k.Name()] = v
		}
	}
	return out
}

// Get reads key from v.
func (v PlainView) Get(key varset.AnyKey) (any, bool) {
	val, ok := v.plain.AsTypedMap()[key.ID()]
	return val, ok
}

// Get reads key from v, alongside its recorded Source (nil if externally
// seeded or absent).
func (v TrackedView) Get(key varset.AnyKey) (any, *pipectx.Source, bool) {
	val, ok := v.tracked.AsTypedMap()[key.ID()]
	if !ok {
		return nil, nil, false
	}
	return val, v.tracked.SourceFor(key.ID()), true
}
