package costfn

import (
	"fmt"
	"iter"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// SizeOverflow is the Size of a function whose configuration count does not
// fit an int. Such functions carry no storage; callers are expected to check
// [Function.Overflowed] before asking for values.
const SizeOverflow = -1

// Function is a cost (or utility) function from the joint configurations of
// an ordered tuple of variables to real values.
//
// Configurations are linearized row-major: the last variable of the scope
// varies fastest. Algebraic operations return new functions and never modify
// their operands; only Initialize, SetValue and SetValueAt mutate.
//
// A Function is not safe for concurrent mutation. Distinct functions may be
// used from different goroutines freely.
type Function struct {
	vars    []*Variable
	set     VariableSet
	sizes   []int
	size    int
	store   Storage
	factory *Factory
}

// ScopeSize returns the number of configurations of vars, or SizeOverflow
// when the product does not fit an int. An empty scope has one configuration.
func ScopeSize(vars []*Variable) int {
	_, size := layout(vars)
	return size
}

// layout computes the stride table and total size of a scope.
// sizes[i] is the product of the domains of the variables after position
// n-1-i, so the stride of position p is sizes[n-1-p].
func layout(vars []*Variable) ([]int, int) {
	n := len(vars)
	sizes := make([]int, n)
	acc := 1
	overflow := false
	for i := 0; i < n; i++ {
		sizes[i] = acc
		if overflow {
			continue
		}
		d := vars[n-1-i].Domain()
		if acc > math.MaxInt/d {
			overflow = true
			continue
		}
		acc *= d
	}
	if overflow {
		return sizes, SizeOverflow
	}
	return sizes, acc
}

func newFunction(factory *Factory, vars []*Variable, store Storage) *Function {
	sizes, size := layout(vars)
	return &Function{
		vars:    vars,
		set:     NewVariableSet(vars...),
		sizes:   sizes,
		size:    size,
		store:   store,
		factory: factory,
	}
}

// =============================================================================
// Accessors
// =============================================================================

// Variables returns a copy of the ordered scope.
func (f *Function) Variables() []*Variable { return slices.Clone(f.vars) }

// Arity returns the number of variables in scope.
func (f *Function) Arity() int { return len(f.vars) }

// Contains reports whether v is in scope.
func (f *Function) Contains(v *Variable) bool { return f.set.Contains(v) }

// VariableSet returns a copy of the unordered scope.
func (f *Function) VariableSet() VariableSet { return NewVariableSet(f.vars...) }

// Size returns the number of configurations: 1 for a constant, 0 for the
// null function, SizeOverflow when the scope is too large to index.
func (f *Function) Size() int { return f.size }

// Sizes returns a copy of the stride table.
func (f *Function) Sizes() []int { return slices.Clone(f.sizes) }

// Overflowed reports whether the scope's configuration count overflowed.
func (f *Function) Overflowed() bool { return f.size == SizeOverflow }

// IsNull reports whether f is the null (absorbing, zero-size) function.
func (f *Function) IsNull() bool { return f == nil || f.size == 0 }

// Factory returns the factory whose policy drives f's algebra.
func (f *Function) Factory() *Factory { return f.factory }

// Storage returns the backing. Mutating it bypasses nothing: it is the same
// store SetValue writes to.
func (f *Function) Storage() Storage { return f.store }

// Representation returns the backing kind.
func (f *Function) Representation() Representation {
	if f.store == nil {
		return RepresentationDense
	}
	return f.store.Representation()
}

// stride returns the linear-index weight of scope position p.
func (f *Function) stride(p int) int {
	return f.sizes[len(f.vars)-1-p]
}

// =============================================================================
// Values
// =============================================================================

// Initialize sets every configuration to value.
func (f *Function) Initialize(value float64) {
	if f.store != nil {
		f.store.Fill(value)
	}
}

// Value returns the value at linear index i.
func (f *Function) Value(i int) float64 { return f.store.Get(i) }

// SetValue stores value at linear index i.
func (f *Function) SetValue(i int, value float64) { f.store.Set(i, value) }

// ValueAt returns the value at the configuration given as one state per
// scope position.
func (f *Function) ValueAt(sub []int) (float64, error) {
	i, err := f.subIndex(sub)
	if err != nil {
		return 0, err
	}
	return f.store.Get(i), nil
}

// SetValueAt stores value at the configuration given as one state per scope
// position.
func (f *Function) SetValueAt(sub []int, value float64) error {
	i, err := f.subIndex(sub)
	if err != nil {
		return err
	}
	f.store.Set(i, value)
	return nil
}

func (f *Function) subIndex(sub []int) (int, error) {
	if len(sub) != len(f.vars) {
		return 0, errors.New(errors.ErrCodeInvalidIndex,
			"sub-index has %d components, scope has %d variables", len(sub), len(f.vars))
	}
	idx := 0
	for p, s := range sub {
		if s < 0 || s >= f.vars[p].Domain() {
			return 0, errors.New(errors.ErrCodeInvalidIndex,
				"component %d of sub-index is %d, domain of %s is %d", p, s, f.vars[p].Name(), f.vars[p].Domain())
		}
		idx += s * f.stride(p)
	}
	return idx, nil
}

// =============================================================================
// Index arithmetic
// =============================================================================

// Index returns the linear index of the scope configuration fixed by a.
// Scope variables missing from a contribute state 0.
func (f *Function) Index(a Assignment) int {
	idx := 0
	for p, v := range f.vars {
		if s, ok := a[v]; ok {
			idx += s * f.stride(p)
		}
	}
	return idx
}

// Indexes returns, in ascending order, every linear index consistent with
// the scope variables fixed by a, enumerating all states of the unfixed ones.
func (f *Function) Indexes(a Assignment) []int {
	return f.appendIndexes(nil, a)
}

func (f *Function) appendIndexes(dst []int, a Assignment) []int {
	base := 0
	count := 1
	for p, v := range f.vars {
		if s, ok := a[v]; ok {
			base += s * f.stride(p)
		} else {
			count *= v.Domain()
		}
	}

	start := len(dst)
	dst = slices.Grow(dst, count)
	dst = append(dst, base)
	for p, v := range f.vars {
		if _, ok := a[v]; ok {
			continue
		}
		st := f.stride(p)
		end := len(dst)
		// Expand in place, slowest free variable first, so the result stays sorted.
		expanded := make([]int, 0, (end-start)*v.Domain())
		for _, x := range dst[start:end] {
			for s := 0; s < v.Domain(); s++ {
				expanded = append(expanded, x+s*st)
			}
		}
		dst = append(dst[:start], expanded...)
	}
	return dst
}

// Mapping decodes linear index i into an assignment over exactly the scope.
// When buf is non-nil it is cleared and reused.
func (f *Function) Mapping(i int, buf Assignment) Assignment {
	if buf == nil {
		buf = make(Assignment, len(f.vars))
	} else {
		clear(buf)
	}
	for p := len(f.vars) - 1; p >= 0; p-- {
		d := f.vars[p].Domain()
		buf[f.vars[p]] = i % d
		i /= d
	}
	return buf
}

// =============================================================================
// Iteration & statistics
// =============================================================================

// All yields the indices whose value is not the backing's implicit default.
// For dense functions that is every index. The sequence can be ranged over
// repeatedly.
func (f *Function) All() iter.Seq[int] {
	if f.store == nil {
		return func(func(int) bool) {}
	}
	return f.store.Indices()
}

// StoredCount returns the number of physically stored entries.
func (f *Function) StoredCount() int {
	if f.store == nil {
		return 0
	}
	return f.store.Stored()
}

// ByteSize estimates the memory held by f's values.
func (f *Function) ByteSize() int64 {
	if f.store == nil {
		return 0
	}
	return f.store.ByteSize()
}

// NogoodRatio returns the fraction of configurations whose value equals the
// summarize operator's nogood.
func (f *Function) NogoodRatio() float64 {
	if f.size <= 0 {
		return 0
	}
	nogood := f.factory.policy.Summarize.Nogood()
	count, visited := 0, 0
	for i := range f.All() {
		visited++
		if f.store.Get(i) == nogood {
			count++
		}
	}
	if def, ok := f.store.Default(); ok && def == nogood {
		count += f.size - visited
	}
	return float64(count) / float64(f.size)
}

// ZeroCount returns how many stored entries equal the combine neutral
// element. Only the map backing tracks this.
func (f *Function) ZeroCount() (int, error) {
	if m, ok := f.store.(*MapStorage); ok {
		return m.ZeroCount(), nil
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "zero count is not tracked by the %s representation", f.Representation())
}

// Compact physically drops stored entries that equal the default. Only the
// sorted backing defers removal.
func (f *Function) Compact() error {
	if s, ok := f.store.(*SortedStorage); ok {
		s.Compact()
		return nil
	}
	return errors.New(errors.ErrCodeUnsupported, "compaction is not supported by the %s representation", f.Representation())
}

// Clone returns an independent copy sharing variables and factory.
func (f *Function) Clone() *Function {
	if f == nil {
		return nil
	}
	out := &Function{
		vars:    f.vars,
		set:     f.set,
		sizes:   f.sizes,
		size:    f.size,
		factory: f.factory,
	}
	if f.store != nil {
		out.store = f.store.Clone()
	}
	return out
}

// maxStringValues caps how many values String prints.
const maxStringValues = 32

// String renders the scope, the representation and (up to a limit) the values.
func (f *Function) String() string {
	if f == nil {
		return "F<nil>"
	}
	var b strings.Builder
	b.WriteString("F(")
	for i, v := range f.vars {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.Name())
	}
	b.WriteString(")")
	switch {
	case f.size == 0:
		return b.String() + " null"
	case f.Overflowed():
		return b.String() + " overflow"
	}
	fmt.Fprintf(&b, "[%s] {", f.Representation())
	n := min(f.size, maxStringValues)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(f.store.Get(i), 'g', 6, 64))
	}
	if f.size > n {
		fmt.Fprintf(&b, ", ... (%d more)", f.size-n)
	}
	b.WriteByte('}')
	return b.String()
}
