package pipeline

import (
	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipestep"
)

// BeforeExecutionHook fires once, before the first step runs.
type BeforeExecutionHook func(ctx *pipectx.Tracked) error

// BeforeEachStepHook fires before a step is considered, including steps
// that end up skipped.
type BeforeEachStepHook func(step *pipestep.Step, ctx *pipectx.Tracked, skipped bool) error

// AfterEachStepHook fires after a step's writes have been committed.
type AfterEachStepHook func(step *pipestep.Step, ctx *pipectx.Tracked) error

// OnStepFailureHook fires when a step's action exhausts its retry policy
// and the pipeline is about to abort.
type OnStepFailureHook func(step *pipestep.Step, ctx *pipectx.Tracked, err error) error

// AfterExecutionHook fires once, after the last step has committed. It does
// not fire when the run aborts on an error.
type AfterExecutionHook func(ctx *pipectx.Tracked) error

// Hooks is the five synchronous hook families a Run dispatches to, each
// invoked in registration order. Every hook receives an independent clone
// of the current context — mutating it inside a hook never affects the
// running pipeline.
type Hooks struct {
	BeforeExecution []BeforeExecutionHook
	BeforeEachStep  []BeforeEachStepHook
	AfterEachStep   []AfterEachStepHook
	OnStepFailure   []OnStepFailureHook
	AfterExecution  []AfterExecutionHook
}

func (h *Hooks) fireBeforeExecution(ctx *pipectx.Tracked) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.BeforeExecution {
		if err := fn(ctx.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) fireBeforeEachStep(step *pipestep.Step, ctx *pipectx.Tracked, skipped bool) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.BeforeEachStep {
		if err := fn(step, ctx.Clone(), skipped); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) fireAfterEachStep(step *pipestep.Step, ctx *pipectx.Tracked) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.AfterEachStep {
		if err := fn(step, ctx.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) fireOnStepFailure(step *pipestep.Step, ctx *pipectx.Tracked, failure error) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.OnStepFailure {
		if err := fn(step, ctx.Clone(), failure); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hooks) fireAfterExecution(ctx *pipectx.Tracked) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.AfterExecution {
		if err := fn(ctx.Clone()); err != nil {
			return err
		}
	}
	return nil
}
