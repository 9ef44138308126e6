package costfn

import (
	"iter"
	"strings"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// Representation identifies a storage backing.
type Representation int

const (
	// RepresentationDense materializes every configuration in a flat slice.
	RepresentationDense Representation = iota
	// RepresentationMap stores non-default entries in a hash map.
	RepresentationMap
	// RepresentationSorted stores non-default entries in parallel sorted slices.
	RepresentationSorted
)

// String returns the config/CLI spelling of the representation.
func (r Representation) String() string {
	switch r {
	case RepresentationMap:
		return "map"
	case RepresentationSorted:
		return "sorted"
	default:
		return "dense"
	}
}

// IsSparse reports whether the representation has an implicit default value.
func (r Representation) IsSparse() bool { return r != RepresentationDense }

// ParseRepresentation parses "dense", "map" or "sorted" (case-insensitive).
func ParseRepresentation(s string) (Representation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense":
		return RepresentationDense, nil
	case "map", "hash", "":
		return RepresentationMap, nil
	case "sorted", "list":
		return RepresentationSorted, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown representation %q (want dense|map|sorted)", s)
}

// Storage is the capability every backing provides: a mapping from linear
// index in [0, Len()) to a value.
//
// Sparse storages return their default for indices that hold no entry; a
// missing entry is never an error. Storages are not safe for concurrent
// mutation.
type Storage interface {
	// Representation identifies the backing.
	Representation() Representation

	// Len returns the number of configurations covered.
	Len() int

	// Get returns the value at index i.
	Get(i int) float64

	// Set stores v at index i.
	Set(i int, v float64)

	// Fill sets every index to v.
	Fill(v float64)

	// Default returns the implicit value of absent entries. The boolean is
	// false for storages that materialize every entry.
	Default() (float64, bool)

	// Stored returns the number of physically stored entries.
	Stored() int

	// Indices yields, in ascending order, the indices whose value is not
	// the implicit default. Dense storages yield every index.
	Indices() iter.Seq[int]

	// Blank returns an empty storage of the same kind and length whose
	// absent entries read as def. Dense storages are filled with def.
	Blank(def float64) Storage

	// Clone returns an independent copy.
	Clone() Storage

	// ByteSize estimates the memory held by the stored values.
	ByteSize() int64
}
