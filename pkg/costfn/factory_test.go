package costfn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilburn/gdlfiltering/pkg/observability"
)

func TestBuildFromSparsityBoundary(t *testing.T) {
	v := NewVariable("v", 10)
	inf := math.Inf(1)

	tests := []struct {
		name    string
		nogoods int
		want    Representation
	}{
		{"no nogoods", 0, RepresentationDense},
		{"exactly at threshold", 8, RepresentationDense},
		{"above threshold", 9, RepresentationMap},
		{"all nogoods", 10, RepresentationMap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := NewFactory(DefaultPolicy())
			src := factory.Build(v)
			for i := 0; i < 10; i++ {
				if i < tt.nogoods {
					src.SetValue(i, inf)
				} else {
					src.SetValue(i, float64(i))
				}
			}

			got := factory.BuildFrom(src)
			if got.Representation() != tt.want {
				t.Errorf("BuildFrom() representation = %v, want %v", got.Representation(), tt.want)
			}
			assert.True(t, got.Equal(src, 0))
		})
	}
}

func TestBuildFromUsesConfiguredSparseBacking(t *testing.T) {
	factory := NewFactory(Policy{Summarize: SummarizeMax}, WithSparseRepresentation(RepresentationSorted))
	src := factory.BuildWithValue(math.Inf(-1), NewVariable("v", 20))
	src.SetValue(3, 1)

	got := factory.BuildFrom(src)
	assert.Equal(t, RepresentationSorted, got.Representation())
	assert.Equal(t, 1, got.StoredCount())
	assert.True(t, got.Equal(src, 0))
}

func TestBuildDenseFromSparse(t *testing.T) {
	factory := NewFactory(DefaultPolicy())
	src := factory.BuildSparseWithValue(2, NewVariable("v", 4))
	src.SetValue(1, 7)

	got := factory.BuildDenseFrom(src)
	assert.Equal(t, RepresentationDense, got.Representation())
	assert.Equal(t, []float64{2, 7, 2, 2}, got.Storage().(*DenseStorage).Values())
}

func TestBuildSparseFromMaterializesForeignDefault(t *testing.T) {
	factory := NewFactory(DefaultPolicy())
	src := factory.BuildSparseWithValue(2, NewVariable("v", 4))
	src.SetValue(1, math.Inf(1))

	got := factory.BuildSparseFrom(src)
	d, _ := got.Storage().Default()
	assert.True(t, math.IsInf(d, 1))
	assert.True(t, got.Equal(src, 0))
	assert.Equal(t, 3, got.StoredCount())
}

func TestSparseOperandResultsFollowSparsityRule(t *testing.T) {
	factory := NewFactory(DefaultPolicy())
	vars := newVars(4, 4)

	sparse := factory.BuildSparse(vars[0])
	sparse.SetValue(0, 1)
	dense := fill(factory.Build(vars[1]), 1, 2, 3, 4)

	h, err := sparse.Combine(dense)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	// 12 of 16 configurations are +Inf: 0.75 stays dense.
	assert.Equal(t, RepresentationDense, h.Representation())

	m, err := sparse.Summarize(vars[0])
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	assert.Equal(t, RepresentationDense, m.Representation())

	pure, err := dense.Combine(dense)
	if err != nil {
		t.Fatalf("Combine() error = %v", err)
	}
	assert.Equal(t, RepresentationDense, pure.Representation())
}

func TestBuildDeduplicatesScope(t *testing.T) {
	v := NewVariable("v", 3)
	f := NewFactory(DefaultPolicy()).Build(v, v)
	assert.Equal(t, 1, f.Arity())
	assert.Equal(t, 3, f.Size())
}

func TestNull(t *testing.T) {
	n := NewFactory(DefaultPolicy()).Null()
	assert.True(t, n.IsNull())
	assert.Equal(t, 0, n.Size())
	assert.Equal(t, 0, n.StoredCount())

	var nilFn *Function
	assert.True(t, nilFn.IsNull())
}

func TestOptionsIgnoreInvalidValues(t *testing.T) {
	f := NewFactory(DefaultPolicy(), WithSparseRepresentation(RepresentationDense), WithChooser(nil))
	assert.Equal(t, RepresentationMap, f.SparseRepresentation())
	assert.NotNil(t, f.chooser)
}

type countingFactoryHooks struct {
	observability.NoopFactoryHooks
	builds map[string]int
}

func (h *countingFactoryHooks) OnBuild(rep string, _ int) { h.builds[rep]++ }

func TestFactoryHooks(t *testing.T) {
	hooks := &countingFactoryHooks{builds: map[string]int{}}
	observability.SetFactoryHooks(hooks)
	defer observability.Reset()

	factory := NewFactory(DefaultPolicy(), WithSparseRepresentation(RepresentationSorted))
	factory.Build(NewVariable("a", 2))
	factory.BuildSparse(NewVariable("b", 2))

	assert.Equal(t, 1, hooks.builds["dense"])
	assert.Equal(t, 1, hooks.builds["sorted"])
}
