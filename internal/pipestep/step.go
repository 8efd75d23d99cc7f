// Package pipestep defines Step, the named unit of work a Pipeline
// schedules: a declared consumes/produces surface plus an action body run
// under a MutableView restricted to exactly that surface.
package pipestep

import (
	"context"
	"hash/fnv"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Action is a step's body. It receives a MutableView constrained to
// (allow_get=consumes, allow_set=produces); ctx carries cancellation, which
// the retry engine treats as non-retryable.
type Action func(ctx context.Context, view *pipectx.MutableView) error

// Step is a named unit of work: the keys it reads, the keys it must write,
// and the action that does so.
type Step struct {
	name     string
	consumes []varset.AnyKey
	produces []varset.AnyKey
	action   Action
}

// Name returns the step's declared name.
func (s *Step) Name() string { return s.name }

// Consumes returns the keys this step reads, in declaration order.
func (s *Step) Consumes() []varset.AnyKey { return s.consumes }

// Produces returns the keys this step must write.
func (s *Step) Produces() []varset.AnyKey { return s.produces }

// Action returns the step's body.
func (s *Step) Action() Action { return s.action }

// HashInputs computes a stable hash over the values at s.Consumes(), in
// declaration order, as found in ctx. Each value is rendered through its
// key's structured-text form before hashing, so the result is stable
// across process restarts. Returns MissingValue if a consumed key has no
// entry in ctx.
func (s *Step) HashInputs(ctx pipectx.Readable) (uint64, error) {
	values := ctx.AsTypedMap()
	h := fnv.New64a()
	for _, k := range s.consumes {
		v, ok := values[k.ID()]
		if !ok {
			return 0, &pipectx.MissingValue{Key: k.Name()}
		}
		encoded, err := varset.EncodeValue(k.Type(), v)
		if err != nil {
			return 0, err
		}
		h.Write(encoded)
		h.Write([]byte{0xFF})
	}
	return h.Sum64(), nil
}

// Builder is the fluent DSL for declaring a Step:
//
//	pipestep.New("greet").
//	    Consumes(nameKey).
//	    Produces(greetingKey).
//	    Execute(func(ctx context.Context, v *pipectx.MutableView) error { ... }).
//	    Build()
type Builder struct {
	step Step
}

// New starts a Step declaration named name.
func New(name string) *Builder {
	return &Builder{step: Step{name: name}}
}

// Consumes appends to the step's read surface.
func (b *Builder) Consumes(keys ...varset.AnyKey) *Builder {
	b.step.consumes = append(b.step.consumes, keys...)
	return b
}

// Produces appends to the step's write surface.
func (b *Builder) Produces(keys ...varset.AnyKey) *Builder {
	b.step.produces = append(b.step.produces, keys...)
	return b
}

// Execute sets the step's action body.
func (b *Builder) Execute(action Action) *Builder {
	b.step.action = action
	return b
}

// Build finalizes the declaration and returns the Step.
func (b *Builder) Build() *Step {
	step := b.step
	return &step
}
