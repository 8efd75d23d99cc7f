package varset

import "fmt"

// Cond is the activation condition for a Conditional constraint: the inner
// constraints apply only while cond holds against the current set of
// available keys.
type Cond struct {
	ifMissingAny []KeyID
	ifProvided   []KeyID
}

// IfMissingAny activates a Conditional constraint when at least one of keys
// is absent from the evaluated set.
func IfMissingAny(keys ...AnyKey) Cond { return Cond{ifMissingAny: ids(keys)} }

// IfProvided activates a Conditional constraint when every key in keys is
// present in the evaluated set.
func IfProvided(keys ...AnyKey) Cond { return Cond{ifProvided: ids(keys)} }

func (c Cond) active(available map[KeyID]bool) bool {
	if len(c.ifMissingAny) > 0 {
		for _, id := range c.ifMissingAny {
			if !available[id] {
				return true
			}
		}
		return false
	}
	for _, id := range c.ifProvided {
		if !available[id] {
			return false
		}
	}
	return true
}

func ids(keys []AnyKey) []KeyID {
	out := make([]KeyID, len(keys))
	for i, k := range keys {
		out[i] = k.ID()
	}
	return out
}

// constraintKind discriminates the constraint variants within an option.
type constraintKind int

const (
	kindRequired constraintKind = iota
	kindForbidden
	kindAtLeastOneOf
	kindExactlyOneOf
	kindAtMostOneOf
	kindConditional
)

// constraint is one conjunct within an option.
type constraint struct {
	kind  constraintKind
	keys  []KeyID
	cond  Cond
	inner []constraint
}

// Required demands every key in keys be present.
func Required(keys ...AnyKey) constraint { return constraint{kind: kindRequired, keys: ids(keys)} }

// Forbidden demands none of keys be present.
func Forbidden(keys ...AnyKey) constraint { return constraint{kind: kindForbidden, keys: ids(keys)} }

// AtLeastOneOf demands at least one of keys be present.
func AtLeastOneOf(keys ...AnyKey) constraint {
	return constraint{kind: kindAtLeastOneOf, keys: ids(keys)}
}

// ExactlyOneOf demands exactly one of keys be present.
func ExactlyOneOf(keys ...AnyKey) constraint {
	return constraint{kind: kindExactlyOneOf, keys: ids(keys)}
}

// AtMostOneOf demands at most one of keys be present.
func AtMostOneOf(keys ...AnyKey) constraint {
	return constraint{kind: kindAtMostOneOf, keys: ids(keys)}
}

// Conditional applies inner only while cond is active against the evaluated
// set.
func Conditional(cond Cond, inner ...constraint) constraint {
	return constraint{kind: kindConditional, cond: cond, inner: inner}
}

func (c constraint) evaluate(available map[KeyID]bool) bool {
	switch c.kind {
	case kindRequired:
		for _, id := range c.keys {
			if !available[id] {
				return false
			}
		}
		return true
	case kindForbidden:
		for _, id := range c.keys {
			if available[id] {
				return false
			}
		}
		return true
	case kindAtLeastOneOf:
		for _, id := range c.keys {
			if available[id] {
				return true
			}
		}
		return len(c.keys) == 0
	case kindExactlyOneOf:
		return countPresent(c.keys, available) == 1
	case kindAtMostOneOf:
		return countPresent(c.keys, available) <= 1
	case kindConditional:
		if !c.cond.active(available) {
			return true
		}
		for _, inner := range c.inner {
			if !inner.evaluate(available) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func countPresent(keys []KeyID, available map[KeyID]bool) int {
	n := 0
	for _, id := range keys {
		if available[id] {
			n++
		}
	}
	return n
}

// requiredKeys collects the keys this constraint unconditionally forces
// present, for the declaration-time "ExactlyOneOf/AtMostOneOf must not
// transitively force more than one Required key" invariant.
func (c constraint) requiredKeys() []KeyID {
	if c.kind == kindRequired {
		return c.keys
	}
	return nil
}

func (c constraint) forbiddenKeys() []KeyID {
	if c.kind == kindForbidden {
		return c.keys
	}
	return nil
}

// Option is a conjunction of constraints; a ShapeSpec is satisfied when any
// one of its options is satisfied.
type Option struct {
	constraints []constraint
}

// All builds an Option as the conjunction of the given constraints.
func All(constraints ...constraint) Option {
	return Option{constraints: constraints}
}

func (o Option) evaluate(available map[KeyID]bool) bool {
	for _, c := range o.constraints {
		if !c.evaluate(available) {
			return false
		}
	}
	return true
}

func (o Option) validate() error {
	required := map[KeyID]bool{}
	forbidden := map[KeyID]bool{}
	cardinality := map[KeyID]bool{}

	for _, c := range o.constraints {
		for _, id := range c.requiredKeys() {
			required[id] = true
		}
		for _, id := range c.forbiddenKeys() {
			forbidden[id] = true
		}
	}
	for id := range required {
		if forbidden[id] {
			return fmt.Errorf("varset: key %q is both Required and Forbidden in the same option", id.name)
		}
	}

	for _, c := range o.constraints {
		if c.kind == kindExactlyOneOf || c.kind == kindAtMostOneOf {
			forcedRequired := 0
			for _, id := range c.keys {
				if required[id] {
					forcedRequired++
				}
				if forbidden[id] {
					return fmt.Errorf("varset: cardinality constraint mentions forbidden key %q", id.name)
				}
				cardinality[id] = true
			}
			if forcedRequired > 1 {
				return fmt.Errorf("varset: cardinality constraint transitively forces more than one Required key")
			}
		}
	}
	return nil
}

// ShapeSpec is a disjunction of Options: satisfied when at least one Option
// is satisfied against the available key set.
type ShapeSpec struct {
	options []Option
}

// AnyOf builds a ShapeSpec as the disjunction of the given options.
func AnyOf(options ...Option) *ShapeSpec {
	return &ShapeSpec{options: options}
}

// Validate checks the declaration-time shape invariants: within an
// option, no key is both Required and Forbidden; ExactlyOneOf /
// AtMostOneOf must not transitively force more than one Required key, and
// must not mention a Forbidden key.
func (s *ShapeSpec) Validate() error {
	for i, o := range s.options {
		if err := o.validate(); err != nil {
			return fmt.Errorf("option %d: %w", i, err)
		}
	}
	return nil
}

// Evaluate reports whether available (the set of keys currently present)
// satisfies at least one option of s. A nil ShapeSpec is vacuously
// satisfied.
func (s *ShapeSpec) Evaluate(available map[KeyID]bool) bool {
	if s == nil || len(s.options) == 0 {
		return true
	}
	for _, o := range s.options {
		if o.evaluate(available) {
			return true
		}
	}
	return false
}
