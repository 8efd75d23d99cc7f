// Package pipeline implements the Pipeline type: a named, acyclic graph of
// Steps, the Kahn topological sort that orders them, invalidation,
// execution, and the distance-to-terminal simulation used by testing
// tools.
package pipeline

import (
	"sort"

	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/retry"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Pipeline is an acyclic graph of Steps plus an optional retry policy and
// variable declaration. Construct one with New and Build.
type Pipeline struct {
	id          string
	declared    []*pipestep.Step
	sorted      []*pipestep.Step
	byName      map[string]*pipestep.Step
	retryPolicy *retry.Policy
	variables   *varset.Set
}

// ID returns the pipeline's declared identifier.
func (p *Pipeline) ID() string { return p.id }

// DeclaredSteps returns every step in the order it was declared, before
// topological sorting. Used by CountStepsToTerminal's declaration-order
// tie-break.
func (p *Pipeline) DeclaredSteps() []*pipestep.Step { return p.declared }

// SortedSteps returns every step in topological-then-declaration order,
// the order Run executes them in.
func (p *Pipeline) SortedSteps() []*pipestep.Step { return p.sorted }

// RetryPolicy returns the pipeline's retry policy, or nil for run-once
// semantics.
func (p *Pipeline) RetryPolicy() *retry.Policy { return p.retryPolicy }

// Variables returns the VariableSet this pipeline was declared against, or
// nil if none was given.
func (p *Pipeline) Variables() *varset.Set { return p.variables }

// StepNamed looks up a declared step by name.
func (p *Pipeline) StepNamed(name string) *pipestep.Step { return p.byName[name] }

// AllVariables returns the union of every step's Consumes() (and, when
// includeProduces is true, Produces() too), deduplicated by first
// occurrence in topological order. Used by both Invalidate and the
// persistence store's load path.
func (p *Pipeline) AllVariables(includeProduces bool) []varset.AnyKey {
	seen := map[varset.KeyID]bool{}
	var out []varset.AnyKey
	add := func(keys []varset.AnyKey) {
		for _, k := range keys {
			if !seen[k.ID()] {
				seen[k.ID()] = true
				out = append(out, k)
			}
		}
	}
	for _, s := range p.sorted {
		add(s.Consumes())
		if includeProduces {
			add(s.Produces())
		}
	}
	return out
}

// Builder is the fluent DSL for declaring a Pipeline.
type Builder struct {
	id          string
	steps       []*pipestep.Step
	retryPolicy *retry.Policy
	variables   *varset.Set
}

// New starts a Pipeline declaration identified by id.
func New(id string) *Builder {
	return &Builder{id: id}
}

// Step appends a step to the pipeline in declaration order.
func (b *Builder) Step(s *pipestep.Step) *Builder {
	b.steps = append(b.steps, s)
	return b
}

// RetryPolicy sets the policy every step's action runs under.
func (b *Builder) RetryPolicy(p *retry.Policy) *Builder {
	b.retryPolicy = p
	return b
}

// Variables attaches the VariableSet this pipeline's keys are declared
// against, used for input/output shape validation and structural hashing.
func (b *Builder) Variables(s *varset.Set) *Builder {
	b.variables = s
	return b
}

// Build finalizes the declaration: checks for duplicate step names, runs
// the Kahn topological sort, and fails with CyclicPipeline if the
// dependency graph has a cycle.
func (b *Builder) Build() (*Pipeline, error) {
	byName := make(map[string]*pipestep.Step, len(b.steps))
	for _, s := range b.steps {
		if _, exists := byName[s.Name()]; exists {
			return nil, &DuplicateStepName{Name: s.Name()}
		}
		byName[s.Name()] = s
	}

	sorted, err := topoSort(b.id, b.steps)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		id:          b.id,
		declared:    b.steps,
		sorted:      sorted,
		byName:      byName,
		retryPolicy: b.retryPolicy,
		variables:   b.variables,
	}, nil
}

// topoSort runs Kahn's algorithm over steps: an edge producer->consumer
// exists whenever producer.Produces() intersects consumer.Consumes(). Ties
// (multiple zero-indegree steps ready at once) break by declaration index,
// never randomized.
func topoSort(pipelineID string, steps []*pipestep.Step) ([]*pipestep.Step, error) {
	index := make(map[*pipestep.Step]int, len(steps))
	for i, s := range steps {
		index[s] = i
	}

	producersOf := map[varset.KeyID][]*pipestep.Step{}
	for _, s := range steps {
		for _, k := range s.Produces() {
			producersOf[k.ID()] = append(producersOf[k.ID()], s)
		}
	}

	indegree := make(map[*pipestep.Step]int, len(steps))
	dependents := map[*pipestep.Step][]*pipestep.Step{}
	for _, s := range steps {
		seenProducer := map[*pipestep.Step]bool{}
		for _, k := range s.Consumes() {
			for _, producer := range producersOf[k.ID()] {
				if producer == s || seenProducer[producer] {
					continue
				}
				seenProducer[producer] = true
				indegree[s]++
				dependents[producer] = append(dependents[producer], s)
			}
		}
	}

	ready := make([]*pipestep.Step, 0, len(steps))
	for _, s := range steps {
		if indegree[s] == 0 {
			ready = append(ready, s)
		}
	}
	sort.SliceStable(ready, func(i, j int) bool { return index[ready[i]] < index[ready[j]] })

	var out []*pipestep.Step
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		out = append(out, next)

		var freed []*pipestep.Step
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				freed = append(freed, dep)
			}
		}
		sort.SliceStable(freed, func(i, j int) bool { return index[freed[i]] < index[freed[j]] })
		ready = mergeByIndex(ready, freed, index)
	}

	if len(out) != len(steps) {
		return nil, &CyclicPipeline{Pipeline: pipelineID}
	}
	return out, nil
}

// mergeByIndex inserts freed into ready, keeping the combined slice sorted
// by declaration index, so the next pop always honors the tie-break rule.
func mergeByIndex(ready, freed []*pipestep.Step, index map[*pipestep.Step]int) []*pipestep.Step {
	if len(freed) == 0 {
		return ready
	}
	out := append(ready, freed...)
	sort.SliceStable(out, func(i, j int) bool { return index[out[i]] < index[out[j]] })
	return out
}
