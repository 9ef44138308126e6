package costfn

import (
	"math"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// odometer walks the configurations of a scope in linear-index order (last
// variable fastest) while keeping, for every operand, the linear index of
// the operand's projection of the current configuration.
type odometer struct {
	domains []int
	state   []int
	strides [][]int
	index   []int
}

func newOdometer(scope []*Variable, operands ...*Function) *odometer {
	o := &odometer{
		domains: make([]int, len(scope)),
		state:   make([]int, len(scope)),
		strides: make([][]int, len(operands)),
		index:   make([]int, len(operands)),
	}
	for p, v := range scope {
		o.domains[p] = v.Domain()
	}
	for k, op := range operands {
		o.strides[k] = make([]int, len(scope))
		for p, v := range scope {
			for q, w := range op.vars {
				if w == v {
					o.strides[k][p] = op.stride(q)
					break
				}
			}
		}
	}
	return o
}

// next advances to the following configuration and reports false once the
// last one has been passed.
func (o *odometer) next() bool {
	for p := len(o.state) - 1; p >= 0; p-- {
		o.state[p]++
		for k := range o.index {
			o.index[k] += o.strides[k][p]
		}
		if o.state[p] < o.domains[p] {
			return true
		}
		for k := range o.index {
			o.index[k] -= o.strides[k][p] * o.domains[p]
		}
		o.state[p] = 0
	}
	return false
}

func overflowError(op string, vars []*Variable) error {
	return errors.New(errors.ErrCodeOverflow, "%s: configuration count of %d variables does not fit an int", op, len(vars))
}

// =============================================================================
// Combine
// =============================================================================

// Combine composes f and other pointwise with the policy's combine operator
// over the union of both scopes. Each operand is evaluated at its own
// projection of every joint configuration, so values broadcast over the
// variables an operand does not mention.
//
// Combining with a nil or zero-size function yields a copy of the other
// operand. The result uses dense storage unless an operand is sparse, in
// which case the factory's sparsity rule picks the backing.
func (f *Function) Combine(other *Function) (*Function, error) {
	if other.IsNull() {
		return f.Clone(), nil
	}
	if f.IsNull() {
		return other.Clone(), nil
	}
	if f.Overflowed() || other.Overflowed() {
		return nil, overflowError("combine", union(f.vars, other.vars))
	}

	op := f.factory.policy.Combine
	vars := union(f.vars, other.vars)
	res := f.factory.BuildWithValue(op.Neutral(), vars...)
	if res.Overflowed() {
		return nil, overflowError("combine", vars)
	}

	o := newOdometer(vars, f, other)
	for i := 0; ; i++ {
		res.store.Set(i, op.Eval(f.store.Get(o.index[0]), other.store.Get(o.index[1])))
		if !o.next() {
			break
		}
	}
	return f.factory.settle(res, f, other), nil
}

// CombineAll left-folds Combine over others.
func (f *Function) CombineAll(others ...*Function) (*Function, error) {
	acc := f
	for _, g := range others {
		next, err := acc.Combine(g)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	if acc == f {
		return f.Clone(), nil
	}
	return acc, nil
}

// =============================================================================
// Summarize
// =============================================================================

// Summarize projects f onto vars with the policy's summarize operator.
// Scope variables not in vars are eliminated; variables of vars not in
// scope are introduced and the value is broadcast across their states.
//
// The result starts at the operator's nogood and every source configuration
// is folded into each result index consistent with it.
func (f *Function) Summarize(vars ...*Variable) (*Function, error) {
	if f.IsNull() {
		return f.Clone(), nil
	}
	target := dedupe(vars)
	if f.Overflowed() {
		return nil, overflowError("summarize", f.vars)
	}

	op := f.factory.policy.Summarize
	nogood := op.Nogood()
	res := f.factory.BuildWithValue(nogood, target...)
	if res.Overflowed() {
		return nil, overflowError("summarize", target)
	}

	// Default entries equal to nogood cannot change the result, so sparse
	// sources only need their stored entries.
	source := f.All()
	if def, ok := f.store.Default(); ok && def != nogood {
		source = allIndices(f.size)
	}

	buf := NewAssignment(len(f.vars))
	var idxs []int
	for i := range source {
		v := f.store.Get(i)
		f.Mapping(i, buf)
		idxs = res.appendIndexes(idxs[:0], buf)
		for _, j := range idxs {
			res.store.Set(j, op.Eval(v, res.store.Get(j)))
		}
	}
	return f.factory.settle(res, f), nil
}

func allIndices(n int) func(func(int) bool) {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

// =============================================================================
// Reduce
// =============================================================================

// Reduce conditions f on the scope variables fixed by a and returns a
// function over the remaining scope variables.
//
// When a fixes the whole scope nothing is left to vary and Reduce returns
// nil; the scalar is then f.Value(f.Index(a)).
func (f *Function) Reduce(a Assignment) *Function {
	if f.IsNull() || f.Overflowed() {
		return f.Clone()
	}
	base := 0
	var rest []*Variable
	for p, v := range f.vars {
		if s, ok := a[v]; ok {
			base += s * f.stride(p)
		} else {
			rest = append(rest, v)
		}
	}
	if len(rest) == 0 {
		return nil
	}
	if len(rest) == len(f.vars) {
		return f.Clone()
	}

	var res *Function
	if def, ok := f.store.Default(); ok {
		res = f.factory.buildStorage(f.store.Representation(), def, rest)
	} else {
		res = f.factory.Build(rest...)
	}
	o := newOdometer(rest, f)
	for i := 0; ; i++ {
		res.store.Set(i, f.store.Get(base+o.index[0]))
		if !o.next() {
			break
		}
	}
	return res
}

// =============================================================================
// Negate & Normalize
// =============================================================================

// Negate applies the combine operator's inverse to every non-default entry.
// Sparse defaults stay as they are: a nogood remains a nogood.
func (f *Function) Negate() *Function {
	out := f.Clone()
	if f.IsNull() || f.Overflowed() {
		return out
	}
	op := f.factory.policy.Combine
	for i := range f.All() {
		out.store.Set(i, op.Invert(f.store.Get(i)))
	}
	return out
}

// Normalize rescales f according to the policy's normalize mode.
//
// SUM0 subtracts the mean of all Size() values, SUM1 divides by their
// total and falls back to the uniform 1/Size() when the total is exactly 0.
// Sparse defaults are rescaled like every other value.
func (f *Function) Normalize() *Function {
	mode := f.factory.policy.Normalize
	if mode == NormalizeNone || f.IsNull() || f.Overflowed() {
		return f.Clone()
	}

	total := f.total()
	def, _ := f.store.Default()

	var scale func(float64) float64
	switch mode {
	case NormalizeSum0:
		mean := total / float64(f.size)
		scale = func(v float64) float64 { return v - mean }
	case NormalizeSum1:
		if total == 0 {
			out := f.withStorage(f.store.Blank(1 / float64(f.size)))
			return out
		}
		scale = func(v float64) float64 { return v / total }
	}

	out := f.withStorage(f.store.Blank(scale(def)))
	for i := range f.All() {
		out.store.Set(i, scale(f.store.Get(i)))
	}
	return out
}

// total sums all Size() values, counting implicit defaults.
func (f *Function) total() float64 {
	sum := 0.0
	visited := 0
	for i := range f.All() {
		sum += f.store.Get(i)
		visited++
	}
	if def, ok := f.store.Default(); ok && visited < f.size {
		sum += def * float64(f.size-visited)
	}
	return sum
}

func (f *Function) withStorage(s Storage) *Function {
	return &Function{
		vars:    f.vars,
		set:     f.set,
		sizes:   f.sizes,
		size:    f.size,
		store:   s,
		factory: f.factory,
	}
}

// =============================================================================
// Optimal configuration & equality
// =============================================================================

// OptimalConfiguration scans every configuration for the best value under
// the summarize operator and returns partial merged with the scope
// assignment of that configuration. Ties are broken uniformly at random
// with the factory's Chooser. partial is not modified.
//
// SUM summarization has no preference order and reports ErrCodeUnsupported.
func (f *Function) OptimalConfiguration(partial Assignment) (Assignment, error) {
	out := partial.Clone()
	if f.IsNull() {
		return out, nil
	}
	if f.Overflowed() {
		return nil, overflowError("optimal configuration", f.vars)
	}
	op := f.factory.policy.Summarize
	if op == SummarizeSum {
		return nil, errors.New(errors.ErrCodeUnsupported, "optimal configuration needs min or max summarization")
	}

	best := op.Nogood()
	var ties []int
	for i := 0; i < f.size; i++ {
		v := f.store.Get(i)
		better, _ := op.IsBetter(v, best)
		switch {
		case better:
			best = v
			ties = append(ties[:0], i)
		case v == best:
			ties = append(ties, i)
		}
	}
	if len(ties) == 0 {
		// Only NaN values: nothing compares, keep the first configuration.
		ties = append(ties, 0)
	}

	choice := ties[0]
	if len(ties) > 1 {
		choice = ties[f.factory.chooser.IntN(len(ties))]
	}
	out.Merge(f.Mapping(choice, nil))
	return out, nil
}

// Equal reports whether f and other mention the same variables (by
// identity, in any order) and every configuration's values differ by at
// most delta. NaN only matches NaN; equal infinities match.
func (f *Function) Equal(other *Function, delta float64) bool {
	if f == nil || other == nil {
		return f == other
	}
	if !f.set.Equal(other.set) || f.size != other.size {
		return false
	}
	if f.size <= 0 {
		return true
	}
	o := newOdometer(f.vars, other)
	for i := 0; ; i++ {
		if !closeEnough(f.store.Get(i), other.store.Get(o.index[0]), delta) {
			return false
		}
		if !o.next() {
			return true
		}
	}
}

func closeEnough(a, b, delta float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= delta
}
