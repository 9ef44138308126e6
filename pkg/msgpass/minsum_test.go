package msgpass_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilburn/gdlfiltering/pkg/costfn"
	"github.com/kilburn/gdlfiltering/pkg/msgpass"
)

type (
	node = msgpass.Node[*msgpass.CostMessage, *costfn.Function]
	edge = msgpass.Edge[*msgpass.CostMessage, *costfn.Function]
)

// minSum is a variable node of a pairwise min-sum solver. Messages are
// functions over the receiver's variable.
type minSum struct {
	v        *costfn.Variable
	local    *costfn.Function
	pairwise map[string]*costfn.Function // keyed by neighbour name
	changed  bool
	belief   *costfn.Function
}

func (p *minSum) Init(*node) error {
	p.changed = true
	p.belief = p.local
	return nil
}

func (p *minSum) Run(n *node) (msgpass.Stats, error) {
	p.changed = false
	var cost int64

	belief, err := p.local.CombineAll(p.incoming(n, nil)...)
	if err != nil {
		return msgpass.Stats{}, err
	}
	p.belief = belief

	for _, e := range n.Edges() {
		if !n.ReadyToSend(e) {
			continue
		}
		other := e.Other(n)
		acc, err := p.local.CombineAll(append(p.incoming(n, e), p.pairwise[other.Name()])...)
		if err != nil {
			return msgpass.Stats{}, err
		}
		msg, err := acc.Summarize(other.Process().(*minSum).v)
		if err != nil {
			return msgpass.Stats{}, err
		}
		cost += int64(acc.Size())
		if n.Send(e, msgpass.NewCostMessage(msg)) {
			p.changed = true
		}
	}
	return msgpass.Stats{Cost: cost, Memory: belief.ByteSize()}, nil
}

// incoming returns the delivered messages on every edge except skip.
func (p *minSum) incoming(n *node, skip *edge) []*costfn.Function {
	var out []*costfn.Function
	for _, e := range n.Edges() {
		if e == skip {
			continue
		}
		if m, ok := n.Message(e); ok {
			out = append(out, m.Function)
		}
	}
	return out
}

func (p *minSum) Converged(*node) bool { return !p.changed }

func (p *minSum) Result(*node) *costfn.Function { return p.belief }

type chain struct {
	factory *costfn.Factory
	vars    []*costfn.Variable
	factors []*costfn.Function
	procs   []*minSum
}

// newChain builds the chain w - x - y - z with unary and pairwise costs.
func newChain() *chain {
	f := costfn.NewFactory(costfn.DefaultPolicy())
	c := &chain{factory: f}
	unary := [][]float64{{2, 0, 1}, {0, 3, 1}, {1, 1, 0}, {4, 0, 2}}
	for i, u := range unary {
		v := costfn.NewVariable(string(rune('w'+i)), 3)
		fn := f.Build(v)
		for s, x := range u {
			fn.SetValue(s, x)
		}
		c.vars = append(c.vars, v)
		c.factors = append(c.factors, fn)
		c.procs = append(c.procs, &minSum{v: v, local: fn, pairwise: map[string]*costfn.Function{}})
	}
	for i := 0; i+1 < len(c.vars); i++ {
		pw := f.Build(c.vars[i], c.vars[i+1])
		for s := 0; s < pw.Size(); s++ {
			a, b := s/3, s%3
			// Penalize equal neighbours, reward a step up.
			switch {
			case a == b:
				pw.SetValue(s, 3)
			case b == a+1:
				pw.SetValue(s, float64(i))
			default:
				pw.SetValue(s, 1)
			}
		}
		c.factors = append(c.factors, pw)
		c.procs[i].pairwise[c.vars[i+1].Name()] = pw
		c.procs[i+1].pairwise[c.vars[i].Name()] = pw
	}
	return c
}

func (c *chain) graph(t *testing.T, mode msgpass.Mode, opts ...msgpass.Option) *msgpass.Graph[*msgpass.CostMessage, *costfn.Function] {
	t.Helper()
	g := msgpass.NewGraph[*msgpass.CostMessage, *costfn.Function](mode, opts...)
	var prev *node
	for i, p := range c.procs {
		n, err := g.AddNode(c.vars[i].Name(), p)
		require.NoError(t, err)
		if prev != nil {
			_, err := g.Connect(prev, n)
			require.NoError(t, err)
		}
		prev = n
	}
	return g
}

// marginal is the brute-force min-marginal of v.
func (c *chain) marginal(t *testing.T, v *costfn.Variable) *costfn.Function {
	t.Helper()
	joint, err := c.factors[0].CombineAll(c.factors[1:]...)
	require.NoError(t, err)
	m, err := joint.Summarize(v)
	require.NoError(t, err)
	return m
}

func TestMinSumChainConverges(t *testing.T) {
	for _, tc := range []struct {
		name string
		mode msgpass.Mode
		opts []msgpass.Option
	}{
		{"graph", msgpass.ModeGraph, nil},
		{"graph parallel", msgpass.ModeGraph, []msgpass.Option{msgpass.WithWorkers(4)}},
		{"tree up", msgpass.ModeTreeUp, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newChain()
			g := c.graph(t, tc.mode, tc.opts...)

			res, err := g.Run(context.Background(), 50)
			require.NoError(t, err)
			assert.True(t, res.Converged)
			assert.Positive(t, res.TotalBytes)
			assert.GreaterOrEqual(t, res.TotalCost, res.MaxCost)

			beliefs := g.Result()
			for _, v := range c.vars {
				want := c.marginal(t, v)
				got := beliefs[v.Name()]
				assert.True(t, got.Equal(want, 1e-9), "belief of %s: got %v, want %v", v.Name(), got, want)
			}
		})
	}
}

func TestMinSumRunTreeRootBelief(t *testing.T) {
	c := newChain()
	g := c.graph(t, msgpass.ModeTreeUp)
	root, ok := g.Node(c.vars[2].Name())
	require.True(t, ok)

	res, err := g.RunTree(context.Background(), root)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, len(c.vars), res.Rounds[0].Updated)

	want := c.marginal(t, c.vars[2])
	assert.True(t, root.Result().Equal(want, 1e-9))
}

func TestCostMessageEquality(t *testing.T) {
	f := costfn.NewFactory(costfn.DefaultPolicy())
	v := costfn.NewVariable("v", 2)
	a := f.BuildWithValue(1, v)
	b := f.BuildWithValue(1+1e-9, v)
	c := f.BuildWithValue(2, v)

	assert.True(t, msgpass.NewCostMessage(a).Equal(msgpass.NewCostMessage(b)))
	assert.False(t, msgpass.NewCostMessage(a).Equal(msgpass.NewCostMessage(c)))
	assert.Equal(t, int64(16), msgpass.NewCostMessage(a).Bytes())

	var nilMsg *msgpass.CostMessage
	assert.True(t, nilMsg.Equal(nil))
	assert.Equal(t, int64(0), nilMsg.Bytes())
}
