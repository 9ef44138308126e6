package costfn

import (
	"iter"
	"slices"
)

// initialSortedCapacity is the starting capacity of a sorted storage. The
// first overflow grows straight to the function size.
const initialSortedCapacity = 16

// SortedStorage keeps non-default entries in two parallel slices, keys in
// ascending order, located by binary search.
//
// Writes past the largest stored key append in O(1), which is the common
// case when a function is filled in index order. Writing the default over a
// stored entry does not remove it: the entry is kept and the storage is
// marked non-compact until [SortedStorage.Compact] runs.
type SortedStorage struct {
	size    int
	keys    []int
	values  []float64
	def     float64
	compact bool
	maxKey  int
}

// NewSortedStorage creates an empty sorted storage of size configurations
// that reads def for absent entries.
func NewSortedStorage(size int, def float64) *SortedStorage {
	c := min(size, initialSortedCapacity)
	return &SortedStorage{
		size:    size,
		keys:    make([]int, 0, c),
		values:  make([]float64, 0, c),
		def:     def,
		compact: true,
		maxKey:  -1,
	}
}

func (s *SortedStorage) Representation() Representation { return RepresentationSorted }
func (s *SortedStorage) Len() int                       { return s.size }
func (s *SortedStorage) Default() (float64, bool)       { return s.def, true }
func (s *SortedStorage) Stored() int                    { return len(s.keys) }
func (s *SortedStorage) ByteSize() int64                { return int64(cap(s.keys)) * 16 }

// IsCompact reports whether no stored entry currently equals the default.
func (s *SortedStorage) IsCompact() bool { return s.compact }

func (s *SortedStorage) Get(i int) float64 {
	if i > s.maxKey {
		return s.def
	}
	if pos, ok := slices.BinarySearch(s.keys, i); ok {
		return s.values[pos]
	}
	return s.def
}

func (s *SortedStorage) Set(i int, v float64) {
	if i > s.maxKey {
		if v == s.def {
			return
		}
		s.grow()
		s.keys = append(s.keys, i)
		s.values = append(s.values, v)
		s.maxKey = i
		return
	}

	pos, ok := slices.BinarySearch(s.keys, i)
	if ok {
		if v == s.def && s.values[pos] != s.def {
			s.compact = false
		}
		s.values[pos] = v
		return
	}
	if v == s.def {
		return
	}

	s.grow()
	s.keys = append(s.keys, 0)
	s.values = append(s.values, 0)
	copy(s.keys[pos+1:], s.keys[pos:])
	copy(s.values[pos+1:], s.values[pos:])
	s.keys[pos] = i
	s.values[pos] = v
}

// grow makes room for one more entry. Capacity jumps to the full size: the
// worst case is known up front, so there is nothing to gain from doubling.
func (s *SortedStorage) grow() {
	if len(s.keys) < cap(s.keys) {
		return
	}
	keys := make([]int, len(s.keys), s.size)
	values := make([]float64, len(s.values), s.size)
	copy(keys, s.keys)
	copy(values, s.values)
	s.keys, s.values = keys, values
}

// Compact physically removes stored entries equal to the default.
func (s *SortedStorage) Compact() {
	if s.compact {
		return
	}
	n := 0
	for pos, k := range s.keys {
		if s.values[pos] == s.def {
			continue
		}
		s.keys[n] = k
		s.values[n] = s.values[pos]
		n++
	}
	s.keys = s.keys[:n]
	s.values = s.values[:n]
	s.maxKey = -1
	if n > 0 {
		s.maxKey = s.keys[n-1]
	}
	s.compact = true
}

func (s *SortedStorage) Fill(v float64) {
	s.keys = s.keys[:0]
	s.values = s.values[:0]
	s.maxKey = -1
	s.compact = true
	if v == s.def {
		return
	}
	for i := 0; i < s.size; i++ {
		s.Set(i, v)
	}
}

func (s *SortedStorage) Indices() iter.Seq[int] {
	return func(yield func(int) bool) {
		for pos, k := range s.keys {
			if s.values[pos] == s.def {
				continue
			}
			if !yield(k) {
				return
			}
		}
	}
}

func (s *SortedStorage) Blank(def float64) Storage {
	return NewSortedStorage(s.size, def)
}

func (s *SortedStorage) Clone() Storage {
	return &SortedStorage{
		size:    s.size,
		keys:    slices.Clone(s.keys),
		values:  slices.Clone(s.values),
		def:     s.def,
		compact: s.compact,
		maxKey:  s.maxKey,
	}
}

var _ Storage = (*SortedStorage)(nil)
