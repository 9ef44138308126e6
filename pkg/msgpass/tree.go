package msgpass

import (
	"context"
	"time"

	"github.com/kilburn/gdlfiltering/pkg/errors"
	"github.com/kilburn/gdlfiltering/pkg/observability"
)

// RunTree runs every node exactly once in depth-first post-order from root.
// After a child's subtree completes, the edge toward its parent is ticked,
// so each node runs with the messages of all its children delivered. One
// upward pass over a finite tree needs no iteration, and the results report
// a single converged round.
//
// The graph must satisfy IsTree; otherwise ErrNotTree is returned before any
// node runs.
func (g *Graph[M, R]) RunTree(ctx context.Context, root *Node[M, R]) (res *Results, err error) {
	if root == nil || g.byName[root.name] != root {
		return nil, ErrNodeNotInGraph
	}
	if !g.IsTree() {
		return nil, ErrNotTree
	}

	res = newResults(g.mode)
	start := time.Now()
	hooks := observability.Runtime()
	hooks.OnRunStart(ctx, res.ID, "tree", len(g.nodes))
	defer func() {
		res.Duration = time.Since(start)
		hooks.OnRunComplete(ctx, res.ID, res.Iterations, res.Converged, res.Duration, err)
	}()

	for _, n := range g.nodes {
		n.SetRoot(n == root)
		if err := n.Initialize(); err != nil {
			return res, errors.Wrap(errors.ErrCodeInternal, err, "initialize node %s", n.name)
		}
	}

	rs := RoundStats{Round: 1}
	var visit func(n *Node[M, R], up *Edge[M, R]) error
	visit = func(n *Node[M, R], up *Edge[M, R]) error {
		for _, e := range n.edges {
			if e == up {
				continue
			}
			if err := visit(e.Other(n), e); err != nil {
				return err
			}
			e.Tick()
		}
		st, err := n.Run()
		if err != nil {
			return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "node %s", n.name)
		}
		rs.add(st)
		return nil
	}

	err = visit(root, nil)
	res.addRound(rs)
	hooks.OnRoundComplete(ctx, res.ID, 1, rs.Updated, rs.TotalCost, rs.TotalBytes)
	if err != nil {
		return res, err
	}
	res.Converged = true
	g.opts.logger.Debug("tree pass complete", "id", res.ID, "root", root.name, "nodes", rs.Updated)
	return res, nil
}
