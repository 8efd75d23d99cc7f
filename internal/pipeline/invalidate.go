package pipeline

import "github.com/vkazantsev/flowcore/internal/pipectx"

// Invalidate drops every entry of tracked whose recorded StepSource no
// longer matches the step's current hash_inputs. It lives here rather than
// as a method on pipectx.Tracked so pipectx need not import pipeline.
//
// Iterating in p.AllVariables()'s topological order lets a single pass
// cascade: once an upstream key is removed, recomputing a downstream
// step's hash_inputs over the now-missing key fails, which this treats as
// a mismatch too, removing the downstream key in the same pass.
func Invalidate(tracked *pipectx.Tracked, p *Pipeline) {
	for _, k := range p.AllVariables(true) {
		source := tracked.SourceFor(k.ID())
		if source == nil {
			continue
		}
		step := p.StepNamed(source.Step)
		if step == nil {
			continue
		}
		hash, err := step.HashInputs(tracked)
		if err != nil || hash != source.InputHash {
			tracked.RemoveID(k.ID())
		}
	}
}
