package msgpass

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/observability"
)

// Option configures a Graph.
type Option func(*options)

type options struct {
	workers int
	logger  *log.Logger
}

// WithWorkers runs up to n updated nodes of a round concurrently. Values
// below 2 run nodes one after another in insertion order.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLogger sets the logger used for run progress and warnings.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Graph owns the nodes and edges of one message-passing run.
// A Graph is not safe for concurrent use.
type Graph[M Message[M], R any] struct {
	mode   Mode
	nodes  []*Node[M, R]
	byName map[string]*Node[M, R]
	edges  []*Edge[M, R]
	opts   options
}

// NewGraph returns an empty graph whose nodes operate in mode.
func NewGraph[M Message[M], R any](mode Mode, opts ...Option) *Graph[M, R] {
	o := options{workers: 1, logger: log.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[M, R]{
		mode:   mode,
		byName: make(map[string]*Node[M, R]),
		opts:   o,
	}
}

// Mode returns the operating mode of the graph's nodes.
func (g *Graph[M, R]) Mode() Mode { return g.mode }

// Nodes returns the nodes in insertion order.
func (g *Graph[M, R]) Nodes() []*Node[M, R] { return g.nodes }

// Edges returns the edges in insertion order.
func (g *Graph[M, R]) Edges() []*Edge[M, R] { return g.edges }

// Node returns the node called name.
func (g *Graph[M, R]) Node(name string) (*Node[M, R], bool) {
	n, ok := g.byName[name]
	return n, ok
}

// AddNode creates a node driven by proc.
func (g *Graph[M, R]) AddNode(name string, proc Process[M, R]) (*Node[M, R], error) {
	if name == "" {
		return nil, ErrInvalidNodeName
	}
	if proc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoProcess, name)
	}
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	n := &Node[M, R]{name: name, mode: g.mode, proc: proc}
	g.nodes = append(g.nodes, n)
	g.byName[name] = n
	return n, nil
}

// Connect adds an edge between a and b.
func (g *Graph[M, R]) Connect(a, b *Node[M, R]) (*Edge[M, R], error) {
	for _, n := range []*Node[M, R]{a, b} {
		if n == nil || g.byName[n.name] != n {
			return nil, ErrNodeNotInGraph
		}
	}
	if a == b {
		return nil, fmt.Errorf("%w: %s", ErrSelfLoop, a.name)
	}
	for _, e := range a.edges {
		if e.Other(a) == b {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicateEdge, a.name, b.name)
		}
	}
	e := &Edge[M, R]{a: a, b: b}
	a.edges = append(a.edges, e)
	b.edges = append(b.edges, e)
	g.edges = append(g.edges, e)
	return e, nil
}

// IsTree reports whether the graph is connected and acyclic.
func (g *Graph[M, R]) IsTree() bool {
	if len(g.nodes) == 0 || len(g.edges) != len(g.nodes)-1 {
		return false
	}
	seen := map[*Node[M, R]]bool{g.nodes[0]: true}
	stack := []*Node[M, R]{g.nodes[0]}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, m := range n.Neighbors() {
			if !seen[m] {
				seen[m] = true
				stack = append(stack, m)
			}
		}
	}
	return len(seen) == len(g.nodes)
}

// =============================================================================
// Round-based runner
// =============================================================================

// Run initializes every node and executes rounds until all nodes are
// finished or maxRounds rounds have run. Reaching the cap is not an error:
// the results report Converged false and a warning is logged.
//
// A node error aborts the run at the end of its round and is returned
// wrapped with the node name.
func (g *Graph[M, R]) Run(ctx context.Context, maxRounds int) (res *Results, err error) {
	res = newResults(g.mode)
	start := time.Now()
	hooks := observability.Runtime()
	hooks.OnRunStart(ctx, res.ID, g.mode.String(), len(g.nodes))
	defer func() {
		res.Duration = time.Since(start)
		hooks.OnRunComplete(ctx, res.ID, res.Iterations, res.Converged, res.Duration, err)
	}()

	for _, n := range g.nodes {
		if err := n.Initialize(); err != nil {
			return res, errors.Wrap(errors.ErrCodeInternal, err, "initialize node %s", n.name)
		}
	}

	logger := g.opts.logger
	logger.Debug("run started", "id", res.ID, "mode", g.mode, "nodes", len(g.nodes), "edges", len(g.edges))

	for round := 1; round <= maxRounds; round++ {
		for _, e := range g.edges {
			e.Tick()
		}

		var ready []*Node[M, R]
		for _, n := range g.nodes {
			if n.IsUpdated() {
				ready = append(ready, n)
			}
		}

		stats, err := g.runNodes(ready)
		rs := RoundStats{Round: round}
		for _, s := range stats {
			rs.add(s)
		}
		res.addRound(rs)
		hooks.OnRoundComplete(ctx, res.ID, round, rs.Updated, rs.TotalCost, rs.TotalBytes)
		if err != nil {
			return res, err
		}
		logger.Debug("round complete", "round", round, "updated", rs.Updated, "cost", rs.TotalCost, "bytes", rs.TotalBytes)

		if g.allFinished() {
			res.Converged = true
			logger.Debug("run converged", "id", res.ID, "rounds", round)
			return res, nil
		}
	}

	logger.Warn("round cap reached without convergence", "id", res.ID, "rounds", maxRounds)
	return res, nil
}

// runNodes runs the nodes of one round and returns their stats in the same
// order. Every node of the round runs even if one fails; the first error
// in node order is returned.
func (g *Graph[M, R]) runNodes(nodes []*Node[M, R]) ([]Stats, error) {
	stats := make([]Stats, len(nodes))
	errs := make([]error, len(nodes))

	if g.opts.workers < 2 || len(nodes) < 2 {
		for i, n := range nodes {
			stats[i], errs[i] = n.Run()
		}
	} else {
		var eg errgroup.Group
		eg.SetLimit(g.opts.workers)
		for i, n := range nodes {
			eg.Go(func() error {
				stats[i], errs[i] = n.Run()
				return errs[i]
			})
		}
		// A plain Group does not cancel on error, so every node still runs.
		// Wait reports whichever error finished first; errs keeps node order.
		if eg.Wait() == nil {
			return stats, nil
		}
	}

	for i, err := range errs {
		if err != nil {
			return stats, errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "node %s", nodes[i].name)
		}
	}
	return stats, nil
}

func (g *Graph[M, R]) allFinished() bool {
	for _, n := range g.nodes {
		if !n.IsFinished() {
			return false
		}
	}
	return true
}

// Result returns the result of every node keyed by name.
func (g *Graph[M, R]) Result() map[string]R {
	out := make(map[string]R, len(g.nodes))
	for _, n := range g.nodes {
		out[n.name] = n.Result()
	}
	return out
}
