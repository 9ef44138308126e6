package pipeline

import (
	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/msgpass"
	"github.com/kilburn/gdlfiltering/pkg/problem"
)

// Graph is the message-passing graph over cost functions.
type Graph = msgpass.Graph[*msgpass.CostMessage, *costfn.Function]

type graphNode = msgpass.Node[*msgpass.CostMessage, *costfn.Function]

// localCost is a node process holding the combination of the factors that
// mention only its variable. It sends nothing and is converged from the
// start, so running the graph reports the local costs as results.
type localCost struct {
	fn *costfn.Function
}

func (p *localCost) Init(*graphNode) error { return nil }

func (p *localCost) Run(*graphNode) (msgpass.Stats, error) {
	return msgpass.Stats{Cost: int64(p.fn.Size()), Memory: p.fn.ByteSize()}, nil
}

func (p *localCost) Converged(*graphNode) bool { return true }

func (p *localCost) Result(*graphNode) *costfn.Function { return p.fn }

// InteractionGraph returns the primal graph of the instance: one node per
// variable, with an edge between every pair of variables that share a
// factor. Each node's result is the combination of its unary factors.
func InteractionGraph(in *problem.Instance, mode msgpass.Mode, opts ...msgpass.Option) (*Graph, error) {
	g := msgpass.NewGraph[*msgpass.CostMessage, *costfn.Function](mode, opts...)

	unary := make(map[*costfn.Variable][]*costfn.Function)
	for _, fn := range in.Factors {
		if vars := fn.Variables(); len(vars) == 1 {
			unary[vars[0]] = append(unary[vars[0]], fn)
		}
	}

	factory := in.Factors[0].Factory()
	neutral := factory.Policy().Combine.Neutral()
	nodes := make(map[*costfn.Variable]*graphNode, len(in.Variables))
	for _, v := range in.Variables {
		local := factory.BuildWithValue(neutral, v)
		if fs := unary[v]; len(fs) > 0 {
			var err error
			if local, err = fs[0].CombineAll(fs[1:]...); err != nil {
				return nil, err
			}
		}
		n, err := g.AddNode(v.Name(), &localCost{fn: local})
		if err != nil {
			return nil, err
		}
		nodes[v] = n
	}

	type pair struct{ a, b *costfn.Variable }
	linked := make(map[pair]bool)
	for _, fn := range in.Factors {
		vars := fn.Variables()
		for i := range vars {
			for j := i + 1; j < len(vars); j++ {
				a, b := vars[i], vars[j]
				if costfn.CompareVariables(a, b) > 0 {
					a, b = b, a
				}
				if linked[pair{a, b}] {
					continue
				}
				linked[pair{a, b}] = true
				if _, err := g.Connect(nodes[a], nodes[b]); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}
