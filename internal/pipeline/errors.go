package pipeline

import (
	"fmt"
	"strings"
)

// CyclicPipeline is raised when the topological sort could not emit every
// declared step: the dependency graph (an edge A->B whenever A.Produces()
// intersects B.Consumes()) contains a cycle.
type CyclicPipeline struct {
	Pipeline string
}

func (e *CyclicPipeline) Error() string {
	return fmt.Sprintf("pipeline %q: dependency graph is cyclic", e.Pipeline)
}

// DuplicateStepName is raised when two steps declared on the same pipeline
// share a name.
type DuplicateStepName struct {
	Name string
}

func (e *DuplicateStepName) Error() string {
	return fmt.Sprintf("pipeline: duplicate step name %q", e.Name)
}

// InvalidInputShape is raised when the seed context does not satisfy the
// pipeline's input spec.
type InvalidInputShape struct {
	Pipeline string
}

func (e *InvalidInputShape) Error() string {
	return fmt.Sprintf("pipeline %q: seed context does not satisfy input spec", e.Pipeline)
}

// StepDidNotProduce is raised when a step's action returns without having
// set every key it declared in Produces().
type StepDidNotProduce struct {
	Step    string
	Missing []string
}

func (e *StepDidNotProduce) Error() string {
	return fmt.Sprintf("step %q did not produce: %s", e.Step, strings.Join(e.Missing, ", "))
}

// Unreachable is raised by CountStepsToTerminal when no remaining step can
// run and no output option is yet satisfied.
type Unreachable struct {
	Pipeline string
}

func (e *Unreachable) Error() string {
	return fmt.Sprintf("pipeline %q: no reachable step satisfies the output spec", e.Pipeline)
}
