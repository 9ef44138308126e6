package costfn

import (
	"iter"
	"maps"
	"slices"
)

// MapStorage keeps non-default entries in a hash map keyed by linear index.
//
// Besides the default it tracks zero, the neutral element of the combine
// operator. Entries equal to zero are stored (zero is a real value, not the
// default) and counted so statistics can tell explicit zeros from nogoods.
type MapStorage struct {
	size   int
	values map[int]float64
	def    float64
	zero   float64
	zeros  int
}

// NewMapStorage creates an empty map storage of size configurations that
// reads def for absent entries.
func NewMapStorage(size int, def, zero float64) *MapStorage {
	return &MapStorage{
		size:   size,
		values: make(map[int]float64),
		def:    def,
		zero:   zero,
	}
}

func (s *MapStorage) Representation() Representation { return RepresentationMap }
func (s *MapStorage) Len() int                       { return s.size }
func (s *MapStorage) Default() (float64, bool)       { return s.def, true }
func (s *MapStorage) Stored() int                    { return len(s.values) }
func (s *MapStorage) ByteSize() int64                { return int64(len(s.values)) * 16 }

// ZeroCount returns how many stored entries equal the combine neutral zero.
func (s *MapStorage) ZeroCount() int { return s.zeros }

func (s *MapStorage) Get(i int) float64 {
	if v, ok := s.values[i]; ok {
		return v
	}
	return s.def
}

func (s *MapStorage) Set(i int, v float64) {
	if old, ok := s.values[i]; ok && old == s.zero {
		s.zeros--
	}
	if v == s.def {
		delete(s.values, i)
		return
	}
	s.values[i] = v
	if v == s.zero {
		s.zeros++
	}
}

func (s *MapStorage) Fill(v float64) {
	clear(s.values)
	s.zeros = 0
	if v == s.def {
		return
	}
	for i := 0; i < s.size; i++ {
		s.values[i] = v
	}
	if v == s.zero {
		s.zeros = s.size
	}
}

func (s *MapStorage) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for _, k := range slices.Sorted(maps.Keys(s.values)) {
			if !yield(k) {
				return
			}
		}
	}
}

func (s *MapStorage) Blank(def float64) Storage {
	return NewMapStorage(s.size, def, s.zero)
}

func (s *MapStorage) Clone() Storage {
	return &MapStorage{
		size:   s.size,
		values: maps.Clone(s.values),
		def:    s.def,
		zero:   s.zero,
		zeros:  s.zeros,
	}
}

var _ Storage = (*MapStorage)(nil)
