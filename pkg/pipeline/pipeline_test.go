package pipeline

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilburn/gdlfiltering/pkg/cache"
	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/msgpass"
	"github.com/kilburn/gdlfiltering/pkg/observability"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// chain joins x{2} and y{3}:
//
//	ux = [0, 1.5]
//	xy = [4 1 3
//	      0 2 5]
//
// so the joint is [4 1 3; 1.5 3.5 6.5].
func chain() *problem.Problem {
	return &problem.Problem{
		Name:      "chain",
		Variables: []problem.Variable{{Name: "x", Domain: 2}, {Name: "y", Domain: 3}},
		Factors: []problem.Factor{
			{Name: "ux", Scope: []string{"x"}, Values: []problem.Value{0, 1.5}},
			{Name: "xy", Scope: []string{"x", "y"}, Values: []problem.Value{4, 1, 3, 0, 2, 5}},
		},
		Query: []string{"y"},
	}
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.New(io.Discard))
}

func values(fn *costfn.Function) []float64 {
	out := make([]float64, fn.Size())
	for i := range out {
		out[i] = fn.Value(i)
	}
	return out
}

func TestEvaluate(t *testing.T) {
	for _, tc := range []struct {
		name     string
		opts     Options
		marginal []float64
		optimum  map[string]int
		cost     float64
	}{
		{
			name:     "problem query",
			marginal: []float64{1.5, 1, 3},
			optimum:  map[string]int{"x": 0, "y": 1},
			cost:     1,
		},
		{
			name:     "query override",
			opts:     Options{Query: []string{"x"}},
			marginal: []float64{1, 1.5},
			optimum:  map[string]int{"x": 0, "y": 1},
			cost:     1,
		},
		{
			name:     "evidence",
			opts:     Options{Evidence: map[string]int{"x": 1}},
			marginal: []float64{1.5, 3.5, 6.5},
			optimum:  map[string]int{"x": 1, "y": 0},
			cost:     1.5,
		},
		{
			name:     "max summarization",
			opts:     Options{Policy: costfn.Policy{Summarize: costfn.SummarizeMax}},
			marginal: []float64{4, 3.5, 6.5},
			optimum:  map[string]int{"x": 1, "y": 2},
			cost:     6.5,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := quietRunner(nil).Evaluate(context.Background(), chain(), tc.opts)
			require.NoError(t, err)
			assert.False(t, res.CacheHit)
			assert.Len(t, res.ProblemHash, 64)
			assert.InDeltaSlice(t, tc.marginal, values(res.Marginal), 1e-12)
			assert.Equal(t, tc.optimum, res.Optimum)
			assert.InDelta(t, tc.cost, res.OptimumCost, 1e-12)
			assert.Equal(t, 2, res.Stats.Factors)
			assert.Equal(t, 6, res.Stats.MaxFactorSize)
		})
	}
}

func TestEvaluateSumSummarization(t *testing.T) {
	opts := Options{Policy: costfn.Policy{
		Combine:   costfn.CombineSum,
		Summarize: costfn.SummarizeSum,
		Normalize: costfn.NormalizeSum1,
	}}
	res, err := quietRunner(nil).Evaluate(context.Background(), chain(), opts)
	require.NoError(t, err)

	// Column sums 5.5, 4.5, 9.5 over a total of 19.5.
	assert.InDeltaSlice(t, []float64{5.5 / 19.5, 4.5 / 19.5, 9.5 / 19.5}, values(res.Marginal), 1e-12)
	assert.Nil(t, res.Optimum)
}

func TestEvaluateFullyConditioned(t *testing.T) {
	opts := Options{Evidence: map[string]int{"x": 1, "y": 2}}
	res, err := quietRunner(nil).Evaluate(context.Background(), chain(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Stats.ConditionedOut)
	assert.Equal(t, 0, res.Marginal.Arity())
	assert.Equal(t, 6.5, res.Marginal.Value(0))
	assert.Equal(t, map[string]int{"x": 1, "y": 2}, res.Optimum)
	assert.Equal(t, 6.5, res.OptimumCost)
}

func TestEvaluateErrors(t *testing.T) {
	r := quietRunner(nil)
	ctx := context.Background()

	_, err := r.Evaluate(ctx, chain(), Options{Evidence: map[string]int{"w": 0}})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	_, err = r.Evaluate(ctx, chain(), Options{Evidence: map[string]int{"x": 2}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidIndex), "got %v", err)

	_, err = r.Evaluate(ctx, chain(), Options{Evidence: map[string]int{"x": -1}})
	assert.Error(t, err)

	_, err = r.Evaluate(ctx, chain(), Options{Query: []string{"nope"}})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "got %v", err)

	bad := chain()
	bad.Factors[1].Values = bad.Factors[1].Values[:5]
	_, err = r.Evaluate(ctx, bad, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
}

func TestEvaluateUsesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := quietRunner(c)
	defer r.Close()
	ctx := context.Background()

	first, err := r.Evaluate(ctx, chain(), Options{})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := r.Evaluate(ctx, chain(), Options{})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.ProblemHash, second.ProblemHash)
	assert.InDeltaSlice(t, values(first.Marginal), values(second.Marginal), 0)
	assert.Equal(t, first.Optimum, second.Optimum)
	assert.Equal(t, first.Stats.JointSize, second.Stats.JointSize)
	assert.Equal(t, "y", second.Marginal.Variables()[0].Name())

	refreshed, err := r.Evaluate(ctx, chain(), Options{Refresh: true})
	require.NoError(t, err)
	assert.False(t, refreshed.CacheHit)

	other, err := r.Evaluate(ctx, chain(), Options{Evidence: map[string]int{"x": 0}})
	require.NoError(t, err)
	assert.False(t, other.CacheHit, "different evidence must not share a cache entry")
}

func TestEvaluateCachesSparseMarginal(t *testing.T) {
	p := &problem.Problem{
		Variables: []problem.Variable{{Name: "a", Domain: 10}},
		Factors: []problem.Factor{{
			Scope:   []string{"a"},
			Entries: []problem.Entry{{States: []int{3}, Value: 2}},
		}},
	}
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	r := quietRunner(c)

	first, err := r.Evaluate(context.Background(), p, Options{Sparse: costfn.RepresentationSorted})
	require.NoError(t, err)
	assert.Equal(t, costfn.RepresentationSorted, first.Marginal.Representation())

	second, err := r.Evaluate(context.Background(), p, Options{Sparse: costfn.RepresentationSorted})
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	assert.Equal(t, costfn.RepresentationSorted, second.Marginal.Representation())
	assert.InDeltaSlice(t, values(first.Marginal), values(second.Marginal), 0)
	assert.Equal(t, "a", second.Marginal.Variables()[0].Name())
	assert.Equal(t, map[string]int{"a": 3}, second.Optimum)
}

type countingPipelineHooks struct {
	observability.NoopPipelineHooks
	started, completed int
	lastErr            error
}

func (h *countingPipelineHooks) OnEvaluateStart(context.Context, int, int) { h.started++ }

func (h *countingPipelineHooks) OnEvaluateComplete(_ context.Context, _ time.Duration, err error) {
	h.completed++
	h.lastErr = err
}

func TestEvaluateHooks(t *testing.T) {
	h := &countingPipelineHooks{}
	observability.SetPipelineHooks(h)
	defer observability.Reset()

	r := quietRunner(nil)
	_, err := r.Evaluate(context.Background(), chain(), Options{})
	require.NoError(t, err)
	_, err = r.Evaluate(context.Background(), chain(), Options{Query: []string{"nope"}})
	require.Error(t, err)

	assert.Equal(t, 2, h.started)
	assert.Equal(t, 2, h.completed)
	assert.Error(t, h.lastErr)
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Equal(t, costfn.RepresentationMap, o.Sparse)
	assert.Equal(t, DefaultTTL, o.TTL)

	o = Options{TTL: -time.Second}
	assert.Error(t, o.ValidateAndSetDefaults())
}

func TestInteractionGraph(t *testing.T) {
	p := &problem.Problem{
		Variables: []problem.Variable{{Name: "a", Domain: 2}, {Name: "b", Domain: 2}, {Name: "c", Domain: 2}},
		Factors: []problem.Factor{
			{Scope: []string{"a"}, Values: []problem.Value{1, 2}},
			{Scope: []string{"a"}, Values: []problem.Value{10, 20}},
			{Scope: []string{"a", "b"}, Values: []problem.Value{0, 0, 0, 0}},
			{Scope: []string{"b", "a"}, Values: []problem.Value{0, 0, 0, 0}},
			{Scope: []string{"b", "c"}, Values: []problem.Value{0, 0, 0, 0}},
		},
	}
	in, err := p.Build(costfn.NewFactory(costfn.DefaultPolicy()))
	require.NoError(t, err)

	g, err := InteractionGraph(in, msgpass.ModeGraph)
	require.NoError(t, err)
	assert.Len(t, g.Nodes(), 3)
	assert.Len(t, g.Edges(), 2, "shared scopes link once")
	assert.True(t, g.IsTree())

	res, err := g.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	locals := g.Result()
	assert.Equal(t, []float64{11, 22}, values(locals["a"]))
	assert.Equal(t, []float64{0, 0}, values(locals["c"]))

	p.Factors = append(p.Factors, problem.Factor{Scope: []string{"a", "b", "c"}, Values: make([]problem.Value, 8)})
	in, err = p.Build(costfn.NewFactory(costfn.DefaultPolicy()))
	require.NoError(t, err)
	g, err = InteractionGraph(in, msgpass.ModeGraph)
	require.NoError(t, err)
	assert.Len(t, g.Edges(), 3)
	assert.False(t, g.IsTree())
}
