package costfn

import (
	"math/rand/v2"

	"github.com/kilburn/gdlfiltering/pkg/observability"
)

// SparsityThreshold is the nogood ratio above which BuildFrom switches to a
// sparse backing.
const SparsityThreshold = 0.8

// Chooser picks a uniform index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	IntN(n int) int
}

type globalChooser struct{}

func (globalChooser) IntN(n int) int { return rand.IntN(n) }

// Factory builds cost functions under one operator policy. A Factory is
// immutable after construction and safe for concurrent use.
type Factory struct {
	policy  Policy
	sparse  Representation
	chooser Chooser
}

// Option configures a Factory.
type Option func(*Factory)

// WithSparseRepresentation selects the backing used whenever the factory
// builds a sparse function. RepresentationDense is ignored.
func WithSparseRepresentation(r Representation) Option {
	return func(f *Factory) {
		if r.IsSparse() {
			f.sparse = r
		}
	}
}

// WithChooser sets the random source used to break ties in
// OptimalConfiguration. Tests pass a seeded *rand.Rand for reproducibility.
func WithChooser(c Chooser) Option {
	return func(f *Factory) {
		if c != nil {
			f.chooser = c
		}
	}
}

// NewFactory returns a factory for the given policy. Sparse functions use
// the map backing unless WithSparseRepresentation says otherwise.
func NewFactory(p Policy, opts ...Option) *Factory {
	f := &Factory{
		policy:  p,
		sparse:  RepresentationMap,
		chooser: globalChooser{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Policy returns the factory's operator policy.
func (f *Factory) Policy() Policy { return f.policy }

// SparseRepresentation returns the backing used for sparse functions.
func (f *Factory) SparseRepresentation() Representation { return f.sparse }

// Null returns the null function: no variables, size 0. It is the identity
// of Combine.
func (f *Factory) Null() *Function {
	return &Function{set: VariableSet{}, factory: f}
}

// Build returns a dense function over vars filled with 0.
func (f *Factory) Build(vars ...*Variable) *Function {
	return f.BuildWithValue(0, vars...)
}

// BuildWithValue returns a dense function over vars filled with v.
func (f *Factory) BuildWithValue(v float64, vars ...*Variable) *Function {
	return f.buildStorage(RepresentationDense, v, dedupe(vars))
}

// BuildSparse returns a sparse function over vars whose every entry reads
// as the summarize nogood.
func (f *Factory) BuildSparse(vars ...*Variable) *Function {
	return f.BuildSparseWithValue(f.policy.Summarize.Nogood(), vars...)
}

// BuildSparseWithValue returns a sparse function over vars whose default
// is v.
func (f *Factory) BuildSparseWithValue(v float64, vars ...*Variable) *Function {
	return f.buildStorage(f.sparse, v, dedupe(vars))
}

// BuildFrom copies fn into the backing its contents call for: sparse when
// more than SparsityThreshold of its values are nogoods, dense otherwise.
func (f *Factory) BuildFrom(fn *Function) *Function {
	if fn.IsNull() || fn.Overflowed() {
		return f.rebind(fn)
	}
	if fn.NogoodRatio() > SparsityThreshold {
		return f.BuildSparseFrom(fn)
	}
	return f.BuildDenseFrom(fn)
}

// BuildSparseFrom copies fn into a sparse function with the nogood default.
func (f *Factory) BuildSparseFrom(fn *Function) *Function {
	if fn.IsNull() || fn.Overflowed() {
		return f.rebind(fn)
	}
	out := f.buildStorage(f.sparse, f.policy.Summarize.Nogood(), fn.vars)
	f.copyValues(out, fn)
	return out
}

// BuildDenseFrom copies fn into a dense function.
func (f *Factory) BuildDenseFrom(fn *Function) *Function {
	if fn.IsNull() || fn.Overflowed() {
		return f.rebind(fn)
	}
	out := f.buildStorage(RepresentationDense, 0, fn.vars)
	f.copyValues(out, fn)
	return out
}

// copyValues writes every value of src into dst. Only src's non-default
// entries need visiting when both share the same implicit default.
func (f *Factory) copyValues(dst, src *Function) {
	source := src.All()
	if def, ok := src.store.Default(); ok {
		if dd, dok := dst.store.Default(); !dok || dd != def {
			source = allIndices(src.size)
		}
	}
	for i := range source {
		dst.store.Set(i, src.store.Get(i))
	}
}

// rebind copies fn so that it belongs to f.
func (f *Factory) rebind(fn *Function) *Function {
	if fn == nil {
		return f.Null()
	}
	out := fn.Clone()
	out.factory = f
	return out
}

// buildStorage materializes a function over an already deduplicated scope.
// Overflowing scopes get no storage.
func (f *Factory) buildStorage(r Representation, def float64, vars []*Variable) *Function {
	fn := newFunction(f, vars, nil)
	if fn.Overflowed() {
		return fn
	}
	switch r {
	case RepresentationMap:
		fn.store = NewMapStorage(fn.size, def, f.policy.Combine.Neutral())
	case RepresentationSorted:
		fn.store = NewSortedStorage(fn.size, def)
	default:
		fn.store = NewDenseStorage(fn.size, def)
	}
	observability.Factory().OnBuild(r.String(), fn.size)
	return fn
}

// settle applies the sparsity rule to an algebra result when any operand
// was sparse. Results of purely dense operands stay dense.
func (f *Factory) settle(res *Function, operands ...*Function) *Function {
	for _, op := range operands {
		if op.Representation().IsSparse() {
			return f.BuildFrom(res)
		}
	}
	return res
}
