package pipexec

import (
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// DryRun counts how many steps of e's pipeline would have to run, starting
// from startingKeys, to satisfy some option of the pipeline's declared
// output shape. It never executes a step's action; it only simulates the
// consumes/produces graph in declaration order. Fails with Unreachable if
// no sequence of remaining steps can reach a satisfying state.
func (e *Executor) DryRun(startingKeys []varset.AnyKey, skipSatisfied bool) (int, error) {
	var outputSpec *varset.ShapeSpec
	if v := e.pipeline.Variables(); v != nil {
		outputSpec = v.OutputSpec()
	}
	return pipeline.CountStepsToTerminal(e.pipeline.ID(), e.pipeline.DeclaredSteps(), startingKeys, outputSpec, skipSatisfied)
}
