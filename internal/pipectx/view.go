package pipectx

import "github.com/vkazantsev/flowcore/internal/varset"

// MutableView is a scoped overlay over a base Readable, restricting a
// single step body's visible and writable surface. A nil allow-get or
// allow-set set means unrestricted.
type MutableView struct {
	base     Readable
	pending  map[varset.KeyID]any
	allowGet map[varset.KeyID]bool
	allowSet map[varset.KeyID]bool
}

// NewMutableView constructs a view over base. allowGet/allowSet of nil
// leave the corresponding surface unrestricted; a non-nil, possibly empty,
// slice restricts it to exactly those keys.
func NewMutableView(base Readable, allowGet, allowSet []varset.AnyKey) *MutableView {
	v := &MutableView{base: base, pending: map[varset.KeyID]any{}}
	if allowGet != nil {
		v.allowGet = idSet(allowGet)
	}
	if allowSet != nil {
		v.allowSet = idSet(allowSet)
	}
	return v
}

func idSet(keys []varset.AnyKey) map[varset.KeyID]bool {
	out := make(map[varset.KeyID]bool, len(keys))
	for _, k := range keys {
		out[k.ID()] = true
	}
	return out
}

// Exists reports whether key is visible through pending or base, ignoring
// any allow-get restriction.
func (v *MutableView) Exists(key varset.AnyKey) bool {
	id := key.ID()
	if _, ok := v.pending[id]; ok {
		return true
	}
	_, ok := v.base.AsTypedMap()[id]
	return ok
}

// ViewGet reads key through v: pending first, then base. Fails with
// IllegalVariableAccess if v restricts reads and key is outside the
// allow-get set.
func ViewGet[T any](v *MutableView, key varset.Key[T]) (T, error) {
	var zero T
	id := key.ID()
	if v.allowGet != nil && !v.allowGet[id] {
		return zero, &IllegalVariableAccess{Key: key.Name()}
	}
	if val, ok := v.pending[id]; ok {
		typed, ok := val.(T)
		if !ok {
			return zero, &MissingValue{Key: key.Name()}
		}
		return typed, nil
	}
	val, ok := v.base.AsTypedMap()[id]
	if !ok {
		return zero, &MissingValue{Key: key.Name()}
	}
	typed, ok := val.(T)
	if !ok {
		return zero, &MissingValue{Key: key.Name()}
	}
	return typed, nil
}

// ViewGetOrNull is ViewGet without the MissingValue case: (zero, false) if
// key has no value through v. Still enforces the allow-get restriction.
func ViewGetOrNull[T any](v *MutableView, key varset.Key[T]) (T, bool, error) {
	var zero T
	id := key.ID()
	if v.allowGet != nil && !v.allowGet[id] {
		return zero, false, &IllegalVariableAccess{Key: key.Name()}
	}
	if val, ok := v.pending[id]; ok {
		typed, ok := val.(T)
		return typed, ok, nil
	}
	val, ok := v.base.AsTypedMap()[id]
	if !ok {
		return zero, false, nil
	}
	typed, ok := val.(T)
	return typed, ok, nil
}

// ViewSet writes value into v's pending map under key. Fails with
// IllegalVariableSet if v restricts writes and key is outside the
// allow-set set.
func ViewSet[T any](v *MutableView, key varset.Key[T], value T) error {
	id := key.ID()
	if v.allowSet != nil && !v.allowSet[id] {
		return &IllegalVariableSet{Key: key.Name()}
	}
	v.pending[id] = value
	return nil
}

// PendingKeys returns the ids of every key written into v's pending map so
// far.
func (v *MutableView) PendingKeys() map[varset.KeyID]bool {
	out := make(map[varset.KeyID]bool, len(v.pending))
	for id := range v.pending {
		out[id] = true
	}
	return out
}

// PendingSnapshot returns a copy of v's pending writes.
func (v *MutableView) PendingSnapshot() map[varset.KeyID]any {
	out := make(map[varset.KeyID]any, len(v.pending))
	for id, val := range v.pending {
		out[id] = val
	}
	return out
}

// Freeze collapses v into an immutable Plain context: base overlaid by
// pending.
func (v *MutableView) Freeze() *Plain {
	merged := make(map[varset.KeyID]any, len(v.pending))
	for id, val := range v.base.AsTypedMap() {
		merged[id] = val
	}
	for id, val := range v.pending {
		merged[id] = val
	}
	return NewPlain(merged)
}

// FreezeTracked collapses v into a Tracked context: a clone of base with
// every pending write committed under the given source.
func (v *MutableView) FreezeTracked(source *Source) *Tracked {
	out := FromAny(v.base)
	for id, val := range v.pending {
		out.entries[id] = trackedEntry{value: val, source: source}
	}
	return out
}
