package pipexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipeline"
	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/pipestore"
	"github.com/vkazantsev/flowcore/internal/varset"
)

func buildGreetPipeline(t *testing.T) (*pipeline.Pipeline, varset.Key[string], varset.Key[string]) {
	t.Helper()
	s := varset.New("greet")
	name := varset.Declare[string](s, "name", false)
	greeting := varset.Declare[string](s, "greeting", false)
	s.WithShapes(
		varset.AnyOf(varset.All(varset.Required(name))),
		varset.AnyOf(varset.All(varset.Required(greeting))),
	)

	step := pipestep.New("greet").
		Consumes(name).
		Produces(greeting).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			n, err := pipectx.ViewGet(v, name)
			if err != nil {
				return err
			}
			return pipectx.ViewSet(v, greeting, "hello "+n)
		}).
		Build()

	p, err := pipeline.New("greet").Step(step).Variables(s).Build()
	require.NoError(t, err)
	return p, name, greeting
}

func TestExecutorPrepareAndExecute(t *testing.T) {
	p, name, greeting := buildGreetPipeline(t)
	exec := New(p)

	post, err := exec.Prepare(context.Background(), nil).
		Context(func(t *pipectx.Tracked) { pipectx.Set(t, name, "ren", nil) }).
		Execute()
	require.NoError(t, err)

	g, err := Get(post, greeting)
	require.NoError(t, err)
	assert.Equal(t, "hello ren", g)

	val, ok := GetOrNull(post, name)
	require.True(t, ok)
	assert.Equal(t, "ren", val)
}

func TestExecutorHooksFireInOrder(t *testing.T) {
	p, name, _ := buildGreetPipeline(t)
	exec := New(p)

	var calls []string
	post, err := exec.Prepare(context.Background(), nil).
		Context(func(t *pipectx.Tracked) { pipectx.Set(t, name, "sam", nil) }).
		Hooks(func(h *pipeline.Hooks) {
			h.BeforeExecution = append(h.BeforeExecution, func(ctx *pipectx.Tracked) error {
				calls = append(calls, "before-execution")
				return nil
			})
			h.AfterEachStep = append(h.AfterEachStep, func(step *pipestep.Step, ctx *pipectx.Tracked) error {
				calls = append(calls, "after-step:"+step.Name())
				return nil
			})
			h.AfterExecution = append(h.AfterExecution, func(ctx *pipectx.Tracked) error {
				calls = append(calls, "after-execution")
				return nil
			})
		}).
		Execute()
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, []string{"before-execution", "after-step:greet", "after-execution"}, calls)
}

func TestExecuteAndSavePersistsResult(t *testing.T) {
	p, name, greeting := buildGreetPipeline(t)
	exec := New(p)
	store := pipestore.NewInMemory()

	_, err := exec.Prepare(context.Background(), nil).
		Context(func(t *pipectx.Tracked) { pipectx.Set(t, name, "tia", nil) }).
		ExecuteAndSave("run-1", store)
	require.NoError(t, err)

	loaded, err := store.LoadContextForPipeline(context.Background(), "run-1", p, pipectx.NewTracked(), true, true)
	require.NoError(t, err)
	g, _, err := pipectx.GetTracked(loaded, greeting)
	require.NoError(t, err)
	assert.Equal(t, "hello tia", g)
}

func TestPostBuilderMultiAndViews(t *testing.T) {
	p, name, greeting := buildGreetPipeline(t)
	exec := New(p)

	post, err := exec.Prepare(context.Background(), nil).
		Context(func(t *pipectx.Tracked) { pipectx.Set(t, name, "uma", nil) }).
		Execute()
	require.NoError(t, err)

	multi := Multi(post, []varset.AnyKey{name, greeting})
	assert.Equal(t, "uma", multi["name"])
	assert.Equal(t, "hello uma", multi["greeting"])

	v, ok := post.Vars().Get(greeting)
	require.True(t, ok)
	assert.Equal(t, "hello uma", v)

	val, src, ok := post.Tracked().Get(greeting)
	require.True(t, ok)
	assert.Equal(t, "hello uma", val)
	require.NotNil(t, src)
	assert.Equal(t, "greet", src.Step)
}

func TestDryRunCountsStepsToSatisfyOutput(t *testing.T) {
	p, name, _ := buildGreetPipeline(t)
	exec := New(p)

	count, err := exec.DryRun([]varset.AnyKey{name}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	countZero, err := exec.DryRun([]varset.AnyKey{name, p.DeclaredSteps()[0].Produces()[0]}, true)
	require.NoError(t, err)
	assert.Equal(t, 0, countZero)
}

func TestExecuteFailsOnInvalidInputShape(t *testing.T) {
	p, _, _ := buildGreetPipeline(t)
	exec := New(p)

	_, err := exec.Prepare(context.Background(), nil).Execute()
	require.Error(t, err)
	var shapeErr *pipeline.InvalidInputShape
	assert.ErrorAs(t, err, &shapeErr)
}
