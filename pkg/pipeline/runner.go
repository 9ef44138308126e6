package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kilburn/gdlfiltering/pkg/cache"
	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/observability"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// Runner encapsulates evaluation with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Evaluate runs the build → condition → combine → summarize → normalize →
// optimum pipeline on p, serving the result from the cache when possible.
func (r *Runner) Evaluate(ctx context.Context, p *problem.Problem, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	logger := opts.Logger

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnEvaluateStart(ctx, len(p.Factors), len(p.Variables))
	defer func() { hooks.OnEvaluateComplete(ctx, time.Since(start), err) }()

	canonical, err := p.Canonical()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode problem")
	}
	hash := cache.Hash(canonical)
	query, evidence := opts.resolve(p)
	key := r.Keyer.ResultKey(hash, opts.keyOpts(query, evidence))

	factory := opts.factory()
	in, err := p.Build(factory)
	if err != nil {
		return nil, err
	}

	if !opts.Refresh {
		if res, ok := r.lookup(ctx, key, in, factory); ok {
			res.ProblemHash = hash
			logger.Info("result cache hit", "problem", p.Name, "key", key[:min(len(key), 16)])
			return res, nil
		}
	}

	res, err = r.evaluate(in, query, evidence, logger)
	if err != nil {
		return nil, err
	}
	res.ProblemHash = hash
	res.Stats.EvaluateTime = time.Since(start)

	logger.Info("evaluated problem",
		"problem", p.Name,
		"factors", res.Stats.Factors,
		"joint_size", res.Stats.JointSize,
		"backing", res.Stats.JointBacking,
		"duration", res.Stats.EvaluateTime)

	r.store(ctx, key, res, opts.TTL)
	return res, nil
}

// evaluate does the uncached work on a built instance.
func (r *Runner) evaluate(in *problem.Instance, query []string, evidence map[string]int, logger *log.Logger) (*Result, error) {
	res := &Result{}
	res.Stats.Factors = len(in.Factors)
	res.Stats.Variables = len(in.Variables)

	a, err := in.Assignment(evidence)
	if err != nil {
		return nil, err
	}
	qvars, err := in.Lookup(query)
	if err != nil {
		return nil, err
	}

	// Fully fixed factors collapse to constants so their cost is kept.
	conditioned := make([]*costfn.Function, 0, len(in.Factors))
	for i, fn := range in.Factors {
		res.Stats.MaxFactorSize = max(res.Stats.MaxFactorSize, fn.Size())
		if fn.Representation().IsSparse() {
			res.Stats.SparseFactors++
		}
		reduced := fn.Reduce(a)
		if reduced == nil {
			reduced = fn.Factory().BuildWithValue(fn.Value(fn.Index(a)))
			if fn.Arity() > 0 {
				res.Stats.ConditionedOut++
				logger.Debug("factor fully conditioned", "factor", in.Names[i], "value", reduced.Value(0))
			}
		}
		conditioned = append(conditioned, reduced)
	}

	joint, err := conditioned[0].CombineAll(conditioned[1:]...)
	if err != nil {
		return nil, err
	}
	res.Stats.JointSize = joint.Size()
	res.Stats.JointBytes = joint.ByteSize()
	res.Stats.JointBacking = joint.Representation().String()

	// Evidence variables are constant in the joint; summarizing onto them
	// would only reintroduce them over their full domain.
	keep := make([]*costfn.Variable, 0, len(qvars))
	for _, v := range qvars {
		if _, fixed := a[v]; !fixed {
			keep = append(keep, v)
		}
	}
	marginal, err := joint.Summarize(keep...)
	if err != nil {
		return nil, err
	}
	res.Marginal = marginal.Normalize()
	res.Stats.MarginalBytes = res.Marginal.ByteSize()

	best, err := joint.OptimalConfiguration(a)
	switch {
	case errors.Is(err, errors.ErrCodeUnsupported):
		logger.Debug("skipping optimum under sum summarization")
	case err != nil:
		return nil, err
	default:
		res.Optimum = make(map[string]int, len(best))
		for v, s := range best {
			res.Optimum[v.Name()] = s
		}
		res.OptimumCost = joint.Value(joint.Index(best))
	}
	return res, nil
}

// lookup fetches and decodes a cached result. Any failure is a miss.
func (r *Runner) lookup(ctx context.Context, key string, in *problem.Instance, factory *costfn.Factory) (*Result, bool) {
	var data []byte
	var hit bool
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		r.Logger.Warn("cache lookup failed", "err", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}

	var cached cachedResult
	if err := json.Unmarshal(data, &cached); err != nil {
		r.Logger.Debug("discarding undecodable cache entry", "err", err)
		return nil, false
	}
	marginal, err := in.Function(factory, cached.Marginal)
	if err != nil {
		r.Logger.Debug("discarding stale cache entry", "err", err)
		return nil, false
	}
	return &Result{
		Marginal:    marginal,
		Optimum:     cached.Optimum,
		OptimumCost: cached.OptimumCost.Float(),
		Stats:       cached.Stats,
		CacheHit:    true,
	}, true
}

// store writes res to the cache; failures are logged, not returned.
func (r *Runner) store(ctx context.Context, key string, res *Result, ttl time.Duration) {
	data, err := json.Marshal(cachedResult{
		Marginal:    problem.FromFunction("marginal", res.Marginal),
		Optimum:     res.Optimum,
		OptimumCost: problem.Value(res.OptimumCost),
		Stats:       res.Stats,
	})
	if err != nil {
		r.Logger.Warn("encode result for cache", "err", err)
		return
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache store failed", "err", err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
