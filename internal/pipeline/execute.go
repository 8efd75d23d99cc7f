package pipeline

import (
	"context"

	"github.com/vkazantsev/flowcore/internal/ctxlog"
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/retry"
	"github.com/vkazantsev/flowcore/internal/varset"
)

// Run executes p to completion against seed: validates the input shape,
// invalidates stale entries, and runs every step in topological order,
// committing its writes with step-source provenance. Returns the final
// context, which the caller may inspect, serialize, or discard.
func Run(ctx context.Context, p *Pipeline, seed *pipectx.Tracked) (*pipectx.Tracked, error) {
	return RunWithHooks(ctx, p, seed, nil)
}

// RunWithHooks is Run with an explicit Hooks set; a nil Hooks behaves as if
// every family were empty.
func RunWithHooks(ctx context.Context, p *Pipeline, seed *pipectx.Tracked, hooks *Hooks) (*pipectx.Tracked, error) {
	log := ctxlog.FromContext(ctx)

	if err := validateInputShape(p, seed); err != nil {
		return nil, err
	}

	tracked := seed
	Invalidate(tracked, p)

	if err := hooks.fireBeforeExecution(tracked); err != nil {
		return nil, err
	}

	for _, step := range p.sorted {
		skip := stepOutputsSatisfied(step, tracked)
		if err := hooks.fireBeforeEachStep(step, tracked, skip); err != nil {
			return nil, err
		}
		if skip {
			log.Debug("pipeline: skipping step, outputs already satisfied", "pipeline", p.id, "step", step.Name())
			continue
		}

		log.Info("pipeline: executing step", "pipeline", p.id, "step", step.Name())
		view, err := runStepWithRetry(ctx, p, step, tracked)
		if err != nil {
			log.Warn("pipeline: step failed", "pipeline", p.id, "step", step.Name(), "error", err)
			if hookErr := hooks.fireOnStepFailure(step, tracked, err); hookErr != nil {
				return nil, hookErr
			}
			return nil, err
		}

		if missing := missingProduces(step, view); len(missing) > 0 {
			return nil, &StepDidNotProduce{Step: step.Name(), Missing: missing}
		}

		stepHash, err := step.HashInputs(tracked)
		if err != nil {
			return nil, err
		}
		source := &pipectx.Source{Step: step.Name(), InputHash: stepHash}
		for id, value := range view.PendingSnapshot() {
			tracked.SetAny(id, value, source)
		}

		if err := hooks.fireAfterEachStep(step, tracked); err != nil {
			return nil, err
		}
	}

	if err := hooks.fireAfterExecution(tracked); err != nil {
		return nil, err
	}

	return tracked, nil
}

func stepOutputsSatisfied(step *pipestep.Step, tracked *pipectx.Tracked) bool {
	for _, k := range step.Produces() {
		if !tracked.Exists(k.ID()) {
			return false
		}
	}
	return true
}

func missingProduces(step *pipestep.Step, view *pipectx.MutableView) []string {
	pending := view.PendingKeys()
	var missing []string
	for _, k := range step.Produces() {
		if !pending[k.ID()] {
			missing = append(missing, k.Name())
		}
	}
	return missing
}

// nonNilKeys normalizes keys to a non-nil slice, since Builder never
// initializes Consumes/Produces for a step declared with neither: a nil
// slice means "unrestricted" to NewMutableView, while an empty slice
// means "restricted to nothing" — a zero-consume step must get the
// latter, or it can read any key in the base context without that read
// ever entering HashInputs.
func nonNilKeys(keys []varset.AnyKey) []varset.AnyKey {
	if keys == nil {
		return []varset.AnyKey{}
	}
	return keys
}

// runStepWithRetry runs step's action under the pipeline's retry policy.
// Each attempt gets a fresh MutableView built from the same base tracked
// context, so a failed attempt's partial writes never leak into the next
// attempt. On success, it returns the MutableView holding the successful
// attempt's pending writes.
func runStepWithRetry(ctx context.Context, p *Pipeline, step *pipestep.Step, tracked *pipectx.Tracked) (*pipectx.MutableView, error) {
	var succeeded *pipectx.MutableView

	block := func(ctx context.Context) error {
		view := pipectx.NewMutableView(tracked, nonNilKeys(step.Consumes()), nonNilKeys(step.Produces()))
		if err := step.Action()(ctx, view); err != nil {
			return err
		}
		succeeded = view
		return nil
	}

	if err := retry.Retry(ctx, p.retryPolicy, block); err != nil {
		return nil, err
	}
	return succeeded, nil
}

func validateInputShape(p *Pipeline, seed *pipectx.Tracked) error {
	if p.variables == nil || p.variables.InputSpec() == nil {
		return nil
	}
	available := map[varset.KeyID]bool{}
	for id := range seed.AsTypedMap() {
		available[id] = true
	}
	if !p.variables.InputSpec().Evaluate(available) {
		return &InvalidInputShape{Pipeline: p.id}
	}
	return nil
}
