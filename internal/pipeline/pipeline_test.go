package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkazantsev/flowcore/internal/pipectx"
	"github.com/vkazantsev/flowcore/internal/pipestep"
	"github.com/vkazantsev/flowcore/internal/varset"
)

type chainKeys struct {
	raw    varset.Key[int]
	double varset.Key[int]
	triple varset.Key[int]
}

func declareChain() (*varset.Set, chainKeys) {
	s := varset.New("chain")
	k := chainKeys{
		raw:    varset.Declare[int](s, "raw", false),
		double: varset.Declare[int](s, "double", false),
		triple: varset.Declare[int](s, "triple", false),
	}
	s.WithShapes(nil, nil)
	return s, k
}

func doubleStep(k chainKeys) *pipestep.Step {
	return pipestep.New("double").
		Consumes(k.raw).
		Produces(k.double).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			raw, err := pipectx.ViewGet(v, k.raw)
			if err != nil {
				return err
			}
			return pipectx.ViewSet(v, k.double, raw*2)
		}).
		Build()
}

func tripleStep(k chainKeys) *pipestep.Step {
	return pipestep.New("triple").
		Consumes(k.double).
		Produces(k.triple).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			d, err := pipectx.ViewGet(v, k.double)
			if err != nil {
				return err
			}
			return pipectx.ViewSet(v, k.triple, d+d/2)
		}).
		Build()
}

func TestTopoSortOrdersByDependency(t *testing.T) {
	_, k := declareChain()
	p, err := New("chain").Step(tripleStep(k)).Step(doubleStep(k)).Build()
	require.NoError(t, err)

	sorted := p.SortedSteps()
	require.Len(t, sorted, 2)
	assert.Equal(t, "double", sorted[0].Name())
	assert.Equal(t, "triple", sorted[1].Name())
}

func TestTopoSortDeclarationOrderTiebreak(t *testing.T) {
	s := varset.New("fanout")
	a := varset.Declare[int](s, "a", false)
	b := varset.Declare[int](s, "b", false)
	s.WithShapes(nil, nil)

	stepB := pipestep.New("b").Produces(b).Execute(noopAction(b, 1)).Build()
	stepA := pipestep.New("a").Produces(a).Execute(noopAction(a, 1)).Build()

	p, err := New("fanout").Step(stepB).Step(stepA).Build()
	require.NoError(t, err)

	sorted := p.SortedSteps()
	assert.Equal(t, "b", sorted[0].Name())
	assert.Equal(t, "a", sorted[1].Name())
}

func noopAction(k varset.Key[int], v int) pipestep.Action {
	return func(ctx context.Context, view *pipectx.MutableView) error {
		return pipectx.ViewSet(view, k, v)
	}
}

func TestBuildDetectsCycle(t *testing.T) {
	s := varset.New("cyclic")
	a := varset.Declare[int](s, "a", false)
	b := varset.Declare[int](s, "b", false)
	s.WithShapes(nil, nil)

	stepA := pipestep.New("a").Consumes(b).Produces(a).Build()
	stepB := pipestep.New("b").Consumes(a).Produces(b).Build()

	_, err := New("cyclic").Step(stepA).Step(stepB).Build()
	require.Error(t, err)
	var cyclic *CyclicPipeline
	assert.ErrorAs(t, err, &cyclic)
}

func TestBuildDetectsDuplicateStepName(t *testing.T) {
	s := varset.New("dup")
	a := varset.Declare[int](s, "a", false)
	s.WithShapes(nil, nil)

	step1 := pipestep.New("a").Produces(a).Build()
	step2 := pipestep.New("a").Produces(a).Build()

	_, err := New("dup").Step(step1).Step(step2).Build()
	require.Error(t, err)
	var dup *DuplicateStepName
	assert.ErrorAs(t, err, &dup)
}

func TestRunExecutesChainAndRecordsProvenance(t *testing.T) {
	_, k := declareChain()
	p, err := New("chain").Step(doubleStep(k)).Step(tripleStep(k)).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	pipectx.Set(seed, k.raw, 4, nil)

	result, err := Run(context.Background(), p, seed)
	require.NoError(t, err)

	d, dSrc, err := pipectx.GetTracked(result, k.double)
	require.NoError(t, err)
	assert.Equal(t, 8, d)
	require.NotNil(t, dSrc)
	assert.Equal(t, "double", dSrc.Step)

	tr, trSrc, err := pipectx.GetTracked(result, k.triple)
	require.NoError(t, err)
	assert.Equal(t, 12, tr)
	require.NotNil(t, trSrc)
	assert.Equal(t, "triple", trSrc.Step)
}

func TestRunRaisesIllegalAccessForZeroConsumeStep(t *testing.T) {
	_, k := declareChain()

	var viewErr error
	ask := pipestep.New("ask_multiplier").
		Produces(k.raw).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			// Declares no Consumes at all; reading any key through v must
			// raise IllegalVariableAccess rather than silently succeeding.
			_, err := pipectx.ViewGet(v, k.double)
			viewErr = err
			return pipectx.ViewSet(v, k.raw, 1)
		}).
		Build()

	p, err := New("ask").Step(ask).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	pipectx.Set(seed, k.double, 99, nil)

	_, err = Run(context.Background(), p, seed)
	require.NoError(t, err)

	require.Error(t, viewErr)
	var illegal *pipectx.IllegalVariableAccess
	assert.ErrorAs(t, viewErr, &illegal)
	assert.Equal(t, "double", illegal.Key)
}

func TestRunSkipsStepWithSatisfiedOutputs(t *testing.T) {
	_, k := declareChain()
	ran := false
	double := pipestep.New("double").
		Consumes(k.raw).
		Produces(k.double).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			ran = true
			return pipectx.ViewSet(v, k.double, 999)
		}).
		Build()

	p, err := New("chain").Step(double).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	pipectx.Set(seed, k.raw, 4, nil)
	pipectx.Set(seed, k.double, 8, &pipectx.Source{Step: "double", InputHash: mustHash(t, double, seed)})

	_, err = Run(context.Background(), p, seed)
	require.NoError(t, err)
	assert.False(t, ran, "step should be skipped when its output is already present and valid")
}

func mustHash(t *testing.T, step *pipestep.Step, ctx pipectx.Readable) uint64 {
	h, err := step.HashInputs(ctx)
	require.NoError(t, err)
	return h
}

func TestRunRecomputesWhenInputChanges(t *testing.T) {
	_, k := declareChain()
	calls := 0
	double := pipestep.New("double").
		Consumes(k.raw).
		Produces(k.double).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			calls++
			raw, err := pipectx.ViewGet(v, k.raw)
			if err != nil {
				return err
			}
			return pipectx.ViewSet(v, k.double, raw*2)
		}).
		Build()

	p, err := New("chain").Step(double).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	pipectx.Set(seed, k.raw, 4, nil)
	pipectx.Set(seed, k.double, 999, &pipectx.Source{Step: "double", InputHash: 0xdeadbeef})

	result, err := Run(context.Background(), p, seed)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	d, _, err := pipectx.GetTracked(result, k.double)
	require.NoError(t, err)
	assert.Equal(t, 8, d)
}

func TestRunFailsStepDidNotProduce(t *testing.T) {
	_, k := declareChain()
	broken := pipestep.New("double").
		Consumes(k.raw).
		Produces(k.double).
		Execute(func(ctx context.Context, v *pipectx.MutableView) error {
			return nil
		}).
		Build()

	p, err := New("chain").Step(broken).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	pipectx.Set(seed, k.raw, 1, nil)

	_, err = Run(context.Background(), p, seed)
	require.Error(t, err)
	var didNotProduce *StepDidNotProduce
	assert.ErrorAs(t, err, &didNotProduce)
}

func TestRunValidatesInputShape(t *testing.T) {
	_, k := declareChain()
	s := varset.New("chain-shaped")
	raw := varset.Declare[int](s, "raw", false)
	spec := varset.AnyOf(varset.All(varset.Required(raw)))
	s.WithShapes(spec, nil)

	double := pipestep.New("double").Consumes(raw).Produces(k.double).Execute(func(ctx context.Context, v *pipectx.MutableView) error {
		r, err := pipectx.ViewGet(v, raw)
		if err != nil {
			return err
		}
		return pipectx.ViewSet(v, k.double, r*2)
	}).Build()

	p, err := New("chain-shaped").Step(double).Variables(s).Build()
	require.NoError(t, err)

	seed := pipectx.NewTracked()
	_, err = Run(context.Background(), p, seed)
	require.Error(t, err)
	var invalid *InvalidInputShape
	assert.ErrorAs(t, err, &invalid)
}
