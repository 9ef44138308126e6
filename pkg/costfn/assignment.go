package costfn

import (
	"maps"
	"strconv"
	"strings"
)

// Assignment maps variables to states. It is used both as a (partial or
// complete) configuration and as a projection key into functions.
//
// States must satisfy 0 <= state < v.Domain() whenever the assignment is
// consumed by a function that mentions v; functions do not re-validate.
type Assignment map[*Variable]int

// NewAssignment returns an empty assignment with room for n variables.
func NewAssignment(n int) Assignment {
	return make(Assignment, n)
}

// Get returns the state of v and whether v is assigned.
func (a Assignment) Get(v *Variable) (int, bool) {
	s, ok := a[v]
	return s, ok
}

// Put assigns state to v.
func (a Assignment) Put(v *Variable, state int) {
	a[v] = state
}

// Clone returns an independent copy. A nil assignment clones to an empty one.
func (a Assignment) Clone() Assignment {
	out := make(Assignment, len(a))
	maps.Copy(out, a)
	return out
}

// Merge copies every entry of o into a, overwriting shared variables.
func (a Assignment) Merge(o Assignment) {
	maps.Copy(a, o)
}

// Variables returns the assigned variables ordered by identity.
func (a Assignment) Variables() []*Variable {
	vars := make([]*Variable, 0, len(a))
	for v := range a {
		vars = append(vars, v)
	}
	SortVariables(vars)
	return vars
}

// Equal reports whether both assignments fix the same variables to the same states.
func (a Assignment) Equal(o Assignment) bool {
	return maps.Equal(a, o)
}

// String renders the assignment sorted by variable identity, e.g. {a=0, b=1}.
func (a Assignment) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range a.Variables() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Name())
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(a[v]))
	}
	b.WriteByte('}')
	return b.String()
}
