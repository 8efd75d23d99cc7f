// Package pipexec is the fluent façade a caller drives a Pipeline through:
// Prepare a run with a seed context, adjust it with Context/Hooks, Execute
// it, then read results back off the returned PostBuilder.
package pipexec

import (
	"context"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipeline"
)

// Executor wraps a built Pipeline, exposing the fluent prepare/execute
// surface. It holds no per-run state; every run starts from a fresh
// PreBuilder.
type Executor struct {
	pipeline *pipeline.Pipeline
}

// New wraps p for execution.
func New(p *pipeline.Pipeline) *Executor {
	return &Executor{pipeline: p}
}

// Pipeline returns the wrapped Pipeline.
func (e *Executor) Pipeline() *pipeline.Pipeline { return e.pipeline }

// Prepare starts a run against seed (or an empty Tracked context if seed is
// nil).
func (e *Executor) Prepare(ctx context.Context, seed *pipectx.Tracked) *PreBuilder {
	if seed == nil {
		seed = pipectx.NewTracked()
	}
	return &PreBuilder{
		ctx:      ctx,
		pipeline: e.pipeline,
		tracked:  seed.Clone(),
	}
}
