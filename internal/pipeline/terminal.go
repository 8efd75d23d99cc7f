package pipeline

import (
	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// CountStepsToTerminal simulates execution from startingKeys, counting how
// many steps must run to satisfy some option of outputSpec. On each
// iteration it picks the first step, by declaration order, that has not
// yet run and whose Consumes() is a subset of the available keys; when
// skipSatisfied is true, a step whose every Produces() key is already
// available is skipped rather than counted again. Fails with Unreachable
// if no such step exists and outputSpec is not yet satisfied.
//
// steps is expected in declaration order (Pipeline.DeclaredSteps()), not
// the topologically sorted order Run executes in.
func CountStepsToTerminal(pipelineID string, steps []*pipestep.Step, startingKeys []varset.AnyKey, outputSpec *varset.ShapeSpec, skipSatisfied bool) (int, error) {
	available := map[varset.KeyID]bool{}
	for _, k := range startingKeys {
		available[k.ID()] = true
	}

	executed := map[*pipestep.Step]bool{}
	count := 0

	for {
		if outputSpec.Evaluate(available) {
			return count, nil
		}

		next := pickNextStep(steps, executed, available, skipSatisfied)
		if next == nil {
			return count, &Unreachable{Pipeline: pipelineID}
		}

		executed[next] = true
		for _, k := range next.Produces() {
			available[k.ID()] = true
		}
		count++
	}
}

func pickNextStep(steps []*pipestep.Step, executed map[*pipestep.Step]bool, available map[varset.KeyID]bool, skipSatisfied bool) *pipestep.Step {
	for _, s := range steps {
		if executed[s] {
			continue
		}
		if !consumesSubsetOf(s, available) {
			continue
		}
		if skipSatisfied && allProducesAvailable(s, available) {
			continue
		}
		return s
	}
	return nil
}

func consumesSubsetOf(s *pipestep.Step, available map[varset.KeyID]bool) bool {
	for _, k := range s.Consumes() {
		if !available[k.ID()] {
			return false
		}
	}
	return true
}

func allProducesAvailable(s *pipestep.Step, available map[varset.KeyID]bool) bool {
	for _, k := range s.Produces() {
		if !available[k.ID()] {
			return false
		}
	}
	return true
}
