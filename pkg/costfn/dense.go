package costfn

import (
	"iter"
	"slices"
)

// DenseStorage is a flat slice holding one value per configuration.
// The linear index is the slice offset.
type DenseStorage struct {
	values []float64
}

// NewDenseStorage allocates size entries initialized to init.
func NewDenseStorage(size int, init float64) *DenseStorage {
	values := make([]float64, size)
	if init != 0 {
		for i := range values {
			values[i] = init
		}
	}
	return &DenseStorage{values: values}
}

func (s *DenseStorage) Representation() Representation { return RepresentationDense }
func (s *DenseStorage) Len() int                       { return len(s.values) }
func (s *DenseStorage) Get(i int) float64              { return s.values[i] }
func (s *DenseStorage) Set(i int, v float64)           { s.values[i] = v }
func (s *DenseStorage) Default() (float64, bool)       { return 0, false }
func (s *DenseStorage) Stored() int                    { return len(s.values) }
func (s *DenseStorage) ByteSize() int64                { return int64(len(s.values)) * 8 }

func (s *DenseStorage) Fill(v float64) {
	for i := range s.values {
		s.values[i] = v
	}
}

func (s *DenseStorage) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range s.values {
			if !yield(i) {
				return
			}
		}
	}
}

func (s *DenseStorage) Blank(def float64) Storage {
	return NewDenseStorage(len(s.values), def)
}

func (s *DenseStorage) Clone() Storage {
	return &DenseStorage{values: slices.Clone(s.values)}
}

// Values exposes the backing slice. Callers must not resize it.
func (s *DenseStorage) Values() []float64 { return s.values }

var _ Storage = (*DenseStorage)(nil)
