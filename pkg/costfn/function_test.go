package costfn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

func newVars(domains ...int) []*Variable {
	names := []string{"a", "b", "c", "d", "e", "f"}
	vars := make([]*Variable, len(domains))
	for i, d := range domains {
		vars[i] = NewVariable(names[i], d)
	}
	return vars
}

func fill(f *Function, values ...float64) *Function {
	for i, v := range values {
		f.SetValue(i, v)
	}
	return f
}

func TestScopeSize(t *testing.T) {
	huge := NewVariable("huge", math.MaxInt/2)

	tests := []struct {
		name string
		vars []*Variable
		want int
	}{
		{"empty scope is a constant", nil, 1},
		{"single", newVars(3), 3},
		{"product", newVars(2, 3, 4), 24},
		{"overflow", []*Variable{huge, huge, huge}, SizeOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScopeSize(tt.vars); got != tt.want {
				t.Errorf("ScopeSize() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFunctionSizes(t *testing.T) {
	vars := newVars(2, 3, 4)
	f := NewFactory(DefaultPolicy()).Build(vars...)

	// Last variable varies fastest.
	assert.Equal(t, []int{1, 4, 12}, f.Sizes())
	assert.Equal(t, 24, f.Size())
	assert.Equal(t, 3, f.Arity())
}

func TestIndexRoundTrip(t *testing.T) {
	factory := NewFactory(DefaultPolicy())
	scopes := [][]int{{2}, {2, 2}, {3, 1, 4}, {2, 3, 2, 5}}

	for _, domains := range scopes {
		f := factory.Build(newVars(domains...)...)
		buf := NewAssignment(f.Arity())
		for i := 0; i < f.Size(); i++ {
			if got := f.Index(f.Mapping(i, buf)); got != i {
				t.Fatalf("Index(Mapping(%d)) = %d over domains %v", i, got, domains)
			}
		}
	}
}

func TestIndexMissingVariablesCountAsZero(t *testing.T) {
	vars := newVars(2, 3)
	f := NewFactory(DefaultPolicy()).Build(vars...)

	a := Assignment{vars[0]: 1}
	if got := f.Index(a); got != 3 {
		t.Errorf("Index() = %d, want 3", got)
	}
}

func TestIndexes(t *testing.T) {
	vars := newVars(2, 3, 2)
	f := NewFactory(DefaultPolicy()).Build(vars...)

	tests := []struct {
		name string
		a    Assignment
		want []int
	}{
		{"fully fixed", Assignment{vars[0]: 1, vars[1]: 2, vars[2]: 0}, []int{10}},
		{"middle free", Assignment{vars[0]: 1, vars[2]: 1}, []int{7, 9, 11}},
		{"first free", Assignment{vars[1]: 0, vars[2]: 0}, []int{0, 6}},
		{"foreign variables ignored", Assignment{NewVariable("x", 5): 4, vars[0]: 0, vars[1]: 1}, []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Indexes(tt.a))
		})
	}

	assert.Len(t, f.Indexes(Assignment{}), f.Size())
}

func TestMappingReusesBuffer(t *testing.T) {
	vars := newVars(2, 2)
	f := NewFactory(DefaultPolicy()).Build(vars...)

	stranger := NewVariable("x", 2)
	buf := Assignment{stranger: 1}
	got := f.Mapping(3, buf)

	assert.Len(t, got, 2)
	assert.NotContains(t, got, stranger)
	assert.Equal(t, 1, got[vars[0]])
	assert.Equal(t, 1, got[vars[1]])
}

func TestValueAtInvalidIndex(t *testing.T) {
	vars := newVars(2, 3)
	f := NewFactory(DefaultPolicy()).Build(vars...)

	tests := []struct {
		name string
		sub  []int
	}{
		{"too short", []int{1}},
		{"too long", []int{1, 1, 1}},
		{"out of domain", []int{0, 3}},
		{"negative", []int{-1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ValueAt(tt.sub)
			if !errors.Is(err, errors.ErrCodeInvalidIndex) {
				t.Errorf("ValueAt(%v) error = %v, want INVALID_INDEX", tt.sub, err)
			}
			if err := f.SetValueAt(tt.sub, 1); !errors.Is(err, errors.ErrCodeInvalidIndex) {
				t.Errorf("SetValueAt(%v) error = %v, want INVALID_INDEX", tt.sub, err)
			}
		})
	}

	require.NoError(t, f.SetValueAt([]int{1, 2}, 7))
	v, err := f.ValueAt([]int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
	assert.Equal(t, 7.0, f.Value(5))
}

func TestInitialize(t *testing.T) {
	vars := newVars(2, 2)
	for _, rep := range []Representation{RepresentationMap, RepresentationSorted} {
		t.Run(rep.String(), func(t *testing.T) {
			f := NewFactory(DefaultPolicy(), WithSparseRepresentation(rep)).BuildSparse(vars...)
			f.Initialize(2)
			for i := 0; i < f.Size(); i++ {
				assert.Equal(t, 2.0, f.Value(i))
			}
			f.Initialize(math.Inf(1))
			assert.Equal(t, 0, f.StoredCount())
		})
	}
}

func TestNogoodRatio(t *testing.T) {
	vars := newVars(4)
	inf := math.Inf(1)

	dense := fill(NewFactory(DefaultPolicy()).Build(vars...), inf, inf, inf, 1)
	assert.InDelta(t, 0.75, dense.NogoodRatio(), 1e-12)

	sparse := NewFactory(DefaultPolicy()).BuildSparse(vars...)
	sparse.SetValue(2, 5)
	assert.InDelta(t, 0.75, sparse.NogoodRatio(), 1e-12)
}

func TestZeroCountAndCompactSupport(t *testing.T) {
	vars := newVars(4)

	dense := NewFactory(DefaultPolicy()).Build(vars...)
	_, err := dense.ZeroCount()
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported))
	assert.True(t, errors.Is(dense.Compact(), errors.ErrCodeUnsupported))

	m := NewFactory(DefaultPolicy()).BuildSparse(vars...)
	m.SetValue(0, 0)
	m.SetValue(1, 0)
	m.SetValue(2, 3)
	n, err := m.ZeroCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	s := NewFactory(DefaultPolicy(), WithSparseRepresentation(RepresentationSorted)).BuildSparse(vars...)
	assert.NoError(t, s.Compact())
}

func TestCloneIsIndependent(t *testing.T) {
	vars := newVars(2)
	f := fill(NewFactory(DefaultPolicy()).Build(vars...), 1, 2)
	g := f.Clone()
	g.SetValue(0, 9)

	assert.Equal(t, 1.0, f.Value(0))
	assert.Equal(t, 9.0, g.Value(0))
}

func TestFunctionString(t *testing.T) {
	vars := newVars(2)
	f := fill(NewFactory(DefaultPolicy()).Build(vars...), 1, 2.5)

	if got, want := f.String(), "F(a)[dense] {1, 2.5}"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got := NewFactory(DefaultPolicy()).Null().String(); got != "F() null" {
		t.Errorf("String() = %q, want %q", got, "F() null")
	}
}
