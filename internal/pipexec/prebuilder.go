package pipexec

import (
	"context"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/pipestore"
)

// PreBuilder is the fluent pre-execution stage: adjust the seed context or
// register hooks, then Execute.
//
//	executor.Prepare(ctx, seed).
//	    Context(func(t *pipectx.Tracked) { pipectx.Set(t, key, value, nil) }).
//	    Hooks(func(h *pipeline.Hooks) { h.AfterEachStep = append(h.AfterEachStep, logStep) }).
//	    Execute()
type PreBuilder struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	tracked  *pipectx.Tracked
	hooks    pipeline.Hooks
}

// Context runs fn against the run's tracked context before execution,
// letting the caller seed or amend values without reaching for
// pipectx.Set directly at the call site.
func (b *PreBuilder) Context(fn func(*pipectx.Tracked)) *PreBuilder {
	fn(b.tracked)
	return b
}

// Hooks runs fn against the run's Hooks, letting the caller register
// callbacks across any of the five families before execution starts.
func (b *PreBuilder) Hooks(fn func(*pipeline.Hooks)) *PreBuilder {
	fn(&b.hooks)
	return b
}

// Execute runs the pipeline to completion and returns a PostBuilder over
// the result. A step failure, an input-shape mismatch, or a hook error all
// surface here as the returned error.
func (b *PreBuilder) Execute() (*PostBuilder, error) {
	result, err := pipeline.RunWithHooks(b.ctx, b.pipeline, b.tracked, &b.hooks)
	if err != nil {
		return nil, err
	}
	return &PostBuilder{pipeline: b.pipeline, tracked: result}, nil
}

// ExecuteAndSave runs the pipeline, then — only on success — serializes
// every declared variable into store under runID before returning the
// PostBuilder.
func (b *PreBuilder) ExecuteAndSave(runID string, store pipestore.Store) (*PostBuilder, error) {
	post, err := b.Execute()
	if err != nil {
		return nil, err
	}
	if err := store.SerializePipeline(b.ctx, runID, b.pipeline, post.tracked); err != nil {
		return nil, err
	}
	return post, nil
}
