// Package pipeline evaluates cost networks with result caching.
//
// This package implements the evaluation that the CLI runs for a problem
// file. By centralizing it, the eval command, tests and any future front end
// share the same caching and option handling.
//
// # Stages
//
//  1. Build: materialize the factors with a factory configured from Options
//  2. Condition: reduce every factor on the evidence
//  3. Combine: join the conditioned factors into one function
//  4. Summarize: eliminate everything but the query variables
//  5. Normalize: rescale the marginal per the policy
//  6. Optimum: pick the best full configuration (skipped under SUM)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Evaluate(ctx, prob, pipeline.Options{
//	    Policy: costfn.DefaultPolicy(),
//	    Query:  []string{"x"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Marginal, res.Optimum)
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/kilburn/gdlfiltering/pkg/cache"
	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// DefaultTTL is how long evaluation results stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// =============================================================================
// Options
// =============================================================================

// Options configures one evaluation.
type Options struct {
	// Policy is the operator policy. The zero value is SUM/MIN/NONE.
	Policy costfn.Policy

	// Sparse is the backing used for sparse functions. Dense means the
	// factory default (map).
	Sparse costfn.Representation

	// Query lists the variables to keep. Empty means the problem's query,
	// or every variable when the problem names none.
	Query []string

	// Evidence fixes variables to states. Entries override the problem's
	// own evidence for the same variable.
	Evidence map[string]int

	// Refresh skips the cache lookup but still stores the result.
	Refresh bool

	// TTL overrides DefaultTTL.
	TTL time.Duration

	// Runtime options
	Logger  *log.Logger
	Chooser costfn.Chooser
}

// ValidateAndSetDefaults fills zero-valued options.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Sparse == costfn.RepresentationDense {
		o.Sparse = costfn.RepresentationMap
	}
	if o.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "negative cache ttl %s", o.TTL)
	}
	if o.TTL == 0 {
		o.TTL = DefaultTTL
	}
	for name, s := range o.Evidence {
		if s < 0 {
			return errors.New(errors.ErrCodeInvalidIndex, "evidence %s=%d: negative state", name, s)
		}
	}
	return nil
}

// resolve merges the options with the problem's own query and evidence.
func (o *Options) resolve(p *problem.Problem) (query []string, evidence map[string]int) {
	query = o.Query
	if len(query) == 0 {
		query = p.Query
	}
	if len(query) == 0 {
		for _, v := range p.Variables {
			query = append(query, v.Name)
		}
	}
	evidence = make(map[string]int, len(p.Evidence)+len(o.Evidence))
	for k, v := range p.Evidence {
		evidence[k] = v
	}
	for k, v := range o.Evidence {
		evidence[k] = v
	}
	return query, evidence
}

// factory builds the factory the options describe.
func (o *Options) factory() *costfn.Factory {
	opts := []costfn.Option{costfn.WithSparseRepresentation(o.Sparse)}
	if o.Chooser != nil {
		opts = append(opts, costfn.WithChooser(o.Chooser))
	}
	return costfn.NewFactory(o.Policy, opts...)
}

func (o *Options) keyOpts(query []string, evidence map[string]int) cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Combine:        o.Policy.Combine.String(),
		Summarize:      o.Policy.Summarize.String(),
		Normalize:      o.Policy.Normalize.String(),
		Representation: o.Sparse.String(),
		Query:          query,
		Evidence:       evidence,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of an evaluation.
type Result struct {
	// ProblemHash is the SHA-256 of the canonical problem encoding.
	ProblemHash string

	// Marginal is the normalized function over the query variables.
	Marginal *costfn.Function

	// Optimum is the best full configuration, or nil under SUM
	// summarization.
	Optimum map[string]int

	// OptimumCost is the combined cost of Optimum.
	OptimumCost float64

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the result came from the cache.
	CacheHit bool
}

// Stats contains evaluation statistics.
type Stats struct {
	Factors        int           `json:"factors"`
	Variables      int           `json:"variables"`
	SparseFactors  int           `json:"sparse_factors"`
	MaxFactorSize  int           `json:"max_factor_size"`
	JointSize      int           `json:"joint_size"`
	JointBytes     int64         `json:"joint_bytes"`
	JointBacking   string        `json:"joint_backing"`
	MarginalBytes  int64         `json:"marginal_bytes"`
	EvaluateTime   time.Duration `json:"evaluate_time"`
	ConditionedOut int           `json:"conditioned_out"`
}

// cachedResult is the cache encoding of a Result.
type cachedResult struct {
	Marginal    problem.Factor `json:"marginal"`
	Optimum     map[string]int `json:"optimum,omitempty"`
	OptimumCost problem.Value  `json:"optimum_cost"`
	Stats       Stats          `json:"stats"`
}
