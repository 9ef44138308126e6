package problem

import (
	"encoding/json"
	"slices"
	"strconv"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// Problem is the serialized form of a cost network.
type Problem struct {
	Name      string         `json:"name,omitempty" yaml:"name,omitempty"`
	Variables []Variable     `json:"variables" yaml:"variables"`
	Factors   []Factor       `json:"factors" yaml:"factors"`
	Query     []string       `json:"query,omitempty" yaml:"query,omitempty"`
	Evidence  map[string]int `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// Variable declares a named variable with states 0..Domain-1.
type Variable struct {
	Name   string `json:"name" yaml:"name"`
	Domain int    `json:"domain" yaml:"domain"`
}

// Factor is one cost function. Exactly one of Values (dense, row-major
// with the last scope variable varying fastest) or Entries (sparse, with
// Default for the rest) is used.
type Factor struct {
	Name    string   `json:"name,omitempty" yaml:"name,omitempty"`
	Scope   []string `json:"scope" yaml:"scope"`
	Values  []Value  `json:"values,omitempty" yaml:"values,omitempty"`
	Entries []Entry  `json:"entries,omitempty" yaml:"entries,omitempty"`
	Default *Value   `json:"default,omitempty" yaml:"default,omitempty"`
}

// Entry is one explicit configuration of a sparse factor. States are given
// in scope order.
type Entry struct {
	States []int `json:"states" yaml:"states,flow"`
	Value  Value `json:"value" yaml:"value"`
}

// IsSparse reports whether the factor is given as entries.
func (f Factor) IsSparse() bool { return f.Values == nil }

// Validate checks names and references. Sizes are checked by Build, which
// knows the domains.
func (p *Problem) Validate() error {
	domains := make(map[string]int, len(p.Variables))
	for i, v := range p.Variables {
		if err := errors.ValidateVariableName(v.Name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "variable %d", i)
		}
		if _, dup := domains[v.Name]; dup {
			return errors.New(errors.ErrCodeInvalidInput, "variable %s: declared twice", v.Name)
		}
		if err := errors.ValidateDomain(v.Name, v.Domain); err != nil {
			return err
		}
		domains[v.Name] = v.Domain
	}
	if len(p.Factors) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "problem has no factors")
	}
	for i, f := range p.Factors {
		label := f.label(i)
		seen := make(map[string]bool, len(f.Scope))
		for _, name := range f.Scope {
			if _, ok := domains[name]; !ok {
				return errors.New(errors.ErrCodeInvalidInput, "%s: unknown variable %q", label, name)
			}
			if seen[name] {
				return errors.New(errors.ErrCodeInvalidInput, "%s: variable %q repeated in scope", label, name)
			}
			seen[name] = true
		}
		if f.Values != nil && (f.Entries != nil || f.Default != nil) {
			return errors.New(errors.ErrCodeInvalidInput, "%s: values and entries are exclusive", label)
		}
		for j, e := range f.Entries {
			if len(e.States) != len(f.Scope) {
				return errors.New(errors.ErrCodeInvalidInput, "%s: entry %d has %d states for %d variables", label, j, len(e.States), len(f.Scope))
			}
			for k, s := range e.States {
				if err := errors.ValidateState(f.Scope[k], s, domains[f.Scope[k]]); err != nil {
					return errors.Wrap(errors.ErrCodeInvalidIndex, err, "%s: entry %d", label, j)
				}
			}
		}
	}
	for _, q := range p.Query {
		if _, ok := domains[q]; !ok {
			return errors.New(errors.ErrCodeInvalidInput, "query: unknown variable %q", q)
		}
	}
	for name, s := range p.Evidence {
		d, ok := domains[name]
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "evidence: unknown variable %q", name)
		}
		if err := errors.ValidateState(name, s, d); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidIndex, err, "evidence")
		}
	}
	return nil
}

func (f Factor) label(i int) string {
	if f.Name != "" {
		return "factor " + f.Name
	}
	return "factor #" + strconv.Itoa(i)
}

// Canonical returns the compact JSON encoding used for hashing. Map keys
// are sorted by encoding/json, so equal problems give equal bytes.
func (p *Problem) Canonical() ([]byte, error) {
	return json.Marshal(p)
}

// =============================================================================
// Instance
// =============================================================================

// Instance is a problem materialized into cost functions.
type Instance struct {
	Variables []*costfn.Variable
	Factors   []*costfn.Function
	Names     []string // factor names, "f<i>" when unnamed

	byName map[string]*costfn.Variable
}

// Build creates the variables and factors of p with factory f. Each factor
// is passed through [costfn.Factory.BuildFrom], so the representation
// follows the factory's sparsity rule rather than the file layout.
func (p *Problem) Build(f *costfn.Factory) (*Instance, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	in := &Instance{byName: make(map[string]*costfn.Variable, len(p.Variables))}
	for _, v := range p.Variables {
		cv := costfn.NewVariable(v.Name, v.Domain)
		in.Variables = append(in.Variables, cv)
		in.byName[v.Name] = cv
	}

	for i, pf := range p.Factors {
		fn, err := in.function(f, pf, pf.label(i))
		if err != nil {
			return nil, err
		}
		name := pf.Name
		if name == "" {
			name = "f" + strconv.Itoa(i)
		}
		in.Factors = append(in.Factors, fn)
		in.Names = append(in.Names, name)
	}
	return in, nil
}

// Function materializes a factor over the instance's variables. It is the
// inverse of [FromFunction] for factors produced from this instance.
func (in *Instance) Function(f *costfn.Factory, pf Factor) (*costfn.Function, error) {
	for _, name := range pf.Scope {
		if _, ok := in.byName[name]; !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "unknown variable %q", name)
		}
	}
	label := "factor"
	if pf.Name != "" {
		label += " " + pf.Name
	}
	return in.function(f, pf, label)
}

func (in *Instance) function(f *costfn.Factory, pf Factor, label string) (*costfn.Function, error) {
	scope := make([]*costfn.Variable, len(pf.Scope))
	for k, name := range pf.Scope {
		scope[k] = in.byName[name]
	}
	size := costfn.ScopeSize(scope)
	if size == costfn.SizeOverflow {
		return nil, errors.New(errors.ErrCodeOverflow, "%s: scope size overflows", label)
	}

	var raw *costfn.Function
	if pf.IsSparse() {
		def := f.Policy().Summarize.Nogood()
		if pf.Default != nil {
			def = pf.Default.Float()
		}
		raw = f.BuildSparseWithValue(def, scope...)
		for _, e := range pf.Entries {
			if err := raw.SetValueAt(e.States, e.Value.Float()); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidIndex, err, "%s", label)
			}
		}
	} else {
		if len(pf.Values) != size {
			return nil, errors.New(errors.ErrCodeInvalidInput, "%s: %d values for %d configurations", label, len(pf.Values), size)
		}
		raw = f.Build(scope...)
		for j, v := range pf.Values {
			raw.SetValue(j, v.Float())
		}
	}
	return f.BuildFrom(raw), nil
}

// Variable looks up a variable by name.
func (in *Instance) Variable(name string) (*costfn.Variable, bool) {
	v, ok := in.byName[name]
	return v, ok
}

// Lookup resolves names in order.
func (in *Instance) Lookup(names []string) ([]*costfn.Variable, error) {
	out := make([]*costfn.Variable, 0, len(names))
	for _, n := range names {
		v, ok := in.byName[n]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "unknown variable %q", n)
		}
		out = append(out, v)
	}
	return out, nil
}

// Assignment converts named evidence into an assignment, checking domains.
func (in *Instance) Assignment(evidence map[string]int) (costfn.Assignment, error) {
	a := costfn.NewAssignment(len(evidence))
	for name, s := range evidence {
		v, ok := in.byName[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeNotFound, "unknown variable %q", name)
		}
		if s < 0 || s >= v.Domain() {
			return nil, errors.New(errors.ErrCodeInvalidIndex, "state %d out of domain %d of %s", s, v.Domain(), name)
		}
		a.Put(v, s)
	}
	return a, nil
}

// =============================================================================
// Encoding functions
// =============================================================================

// FromFunction encodes fn as a factor. Sparse functions keep their stored
// entries and default; dense functions list every value. The null function
// encodes with no scope and no values.
func FromFunction(name string, fn *costfn.Function) Factor {
	out := Factor{Name: name}
	if fn.IsNull() || fn.Overflowed() {
		return out
	}
	vars := fn.Variables()
	out.Scope = make([]string, len(vars))
	for i, v := range vars {
		out.Scope[i] = v.Name()
	}

	if def, sparse := fn.Storage().Default(); sparse {
		d := Value(def)
		out.Default = &d
		out.Entries = []Entry{}
		buf := costfn.NewAssignment(len(vars))
		for i := range fn.All() {
			a := fn.Mapping(i, buf)
			states := make([]int, len(vars))
			for k, v := range vars {
				states[k] = a[v]
			}
			out.Entries = append(out.Entries, Entry{States: states, Value: Value(fn.Value(i))})
		}
		slices.SortFunc(out.Entries, func(x, y Entry) int { return slices.Compare(x.States, y.States) })
		return out
	}

	if d, ok := fn.Storage().(*costfn.DenseStorage); ok {
		out.Values = values(d.Values())
		return out
	}
	out.Values = make([]Value, fn.Size())
	for i := range out.Values {
		out.Values[i] = Value(fn.Value(i))
	}
	return out
}
