package costfn

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
)

// lastVariableID is the process-wide identity counter for variables.
var lastVariableID atomic.Uint64

// Variable is a discrete variable with states 0..Domain()-1.
//
// Variables are immutable and shared by pointer among every function that
// mentions them. Two variables are the same variable if and only if they
// have the same ID; name and domain take no part in identity.
type Variable struct {
	id     uint64
	name   string
	domain int
}

// NewVariable creates a variable with a fresh identity.
// It panics if domain is not positive, which is a programming error: problem
// loaders validate domains before constructing variables.
func NewVariable(name string, domain int) *Variable {
	if domain <= 0 {
		panic(fmt.Sprintf("costfn: variable %q: domain must be positive, got %d", name, domain))
	}
	return &Variable{
		id:     lastVariableID.Add(1),
		name:   name,
		domain: domain,
	}
}

// ID returns the variable's unique identity.
func (v *Variable) ID() uint64 { return v.id }

// Name returns the display name.
func (v *Variable) Name() string { return v.name }

// Domain returns the number of states.
func (v *Variable) Domain() int { return v.domain }

// String formats the variable as name(domain).
func (v *Variable) String() string {
	return fmt.Sprintf("%s(%d)", v.name, v.domain)
}

// CompareVariables orders variables by identity.
func CompareVariables(a, b *Variable) int {
	return cmp.Compare(a.id, b.id)
}

// SortVariables sorts vars in place by identity.
func SortVariables(vars []*Variable) {
	slices.SortFunc(vars, CompareVariables)
}

// VariableSet is an unordered set of variables keyed by identity.
type VariableSet map[*Variable]struct{}

// NewVariableSet builds a set from vars.
func NewVariableSet(vars ...*Variable) VariableSet {
	s := make(VariableSet, len(vars))
	for _, v := range vars {
		s[v] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set.
func (s VariableSet) Contains(v *Variable) bool {
	_, ok := s[v]
	return ok
}

// Equal reports whether both sets hold exactly the same variables.
func (s VariableSet) Equal(o VariableSet) bool {
	if len(s) != len(o) {
		return false
	}
	for v := range s {
		if !o.Contains(v) {
			return false
		}
	}
	return true
}

// Sorted returns the members ordered by identity.
func (s VariableSet) Sorted() []*Variable {
	out := make([]*Variable, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	SortVariables(out)
	return out
}

// union returns a followed by the variables of b that are not in a,
// preserving both orders.
func union(a, b []*Variable) []*Variable {
	seen := NewVariableSet(a...)
	out := slices.Clone(a)
	for _, v := range b {
		if !seen.Contains(v) {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// dedupe drops repeated variables, keeping first occurrences.
func dedupe(vars []*Variable) []*Variable {
	return union(nil, vars)
}
