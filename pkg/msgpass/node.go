package msgpass

import (
	"strings"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// Mode selects when nodes fire and when they count as finished.
type Mode int

const (
	// ModeGraph re-runs every node every round until all converge.
	ModeGraph Mode = iota
	// ModeTreeUp collects toward the root and distributes back down.
	ModeTreeUp
	// ModeTreeDown propagates outward from the root.
	ModeTreeDown
)

// String returns the CLI spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeTreeUp:
		return "tree-up"
	case ModeTreeDown:
		return "tree-down"
	default:
		return "graph"
	}
}

// ParseMode parses "graph", "tree-up" or "tree-down".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "graph", "":
		return ModeGraph, nil
	case "tree-up", "treeup", "up":
		return ModeTreeUp, nil
	case "tree-down", "treedown", "down":
		return ModeTreeDown, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown mode %q (want graph|tree-up|tree-down)", s)
}

// Stats is the resource usage a process reports for one run of its node.
type Stats struct {
	// Cost counts computation steps, e.g. configurations visited.
	Cost int64
	// Memory is the size of the node's working state in bytes.
	Memory int64
	// Bytes is filled by the runtime with what the node sent during the run.
	Bytes int64
}

// Process is the algorithm-specific behaviour of a node.
//
// Run is called once per round in which the node is updated. It reads
// incoming messages with [Node.Message] and sends with [Node.Send], usually
// only on edges where [Node.ReadyToSend] holds. Within a round the
// processes of different nodes may run concurrently; a process must only
// touch its own node.
type Process[M Message[M], R any] interface {
	Init(n *Node[M, R]) error
	Run(n *Node[M, R]) (Stats, error)
	// Converged reports whether the node is done in ModeGraph.
	Converged(n *Node[M, R]) bool
	Result(n *Node[M, R]) R
}

// Node is a vertex of a message-passing graph.
type Node[M Message[M], R any] struct {
	name      string
	mode      Mode
	proc      Process[M, R]
	edges     []*Edge[M, R]
	updated   bool
	finished  bool
	root      bool
	sentBytes int64
}

// Name returns the node's unique name within its graph.
func (n *Node[M, R]) Name() string { return n.name }

// Mode returns the operating mode inherited from the graph.
func (n *Node[M, R]) Mode() Mode { return n.mode }

// Edges returns the incident edges in connection order.
func (n *Node[M, R]) Edges() []*Edge[M, R] { return n.edges }

// Neighbors returns the nodes across the incident edges.
func (n *Node[M, R]) Neighbors() []*Node[M, R] {
	out := make([]*Node[M, R], len(n.edges))
	for i, e := range n.edges {
		out[i] = e.Other(n)
	}
	return out
}

// IsRoot reports whether n is the designated tree root.
func (n *Node[M, R]) IsRoot() bool { return n.root }

// SetRoot marks n as the tree root.
func (n *Node[M, R]) SetRoot(root bool) { n.root = root }

// SentBytes returns the bytes n has sent over its lifetime.
func (n *Node[M, R]) SentBytes() int64 { return n.sentBytes }

// Process returns the node's algorithm.
func (n *Node[M, R]) Process() Process[M, R] { return n.proc }

// Initialize resets the runtime flags and calls the process's Init.
func (n *Node[M, R]) Initialize() error {
	n.updated = true
	n.finished = false
	n.sentBytes = 0
	return n.proc.Init(n)
}

// Run executes the process once and refreshes the finished flag.
func (n *Node[M, R]) Run() (Stats, error) {
	before := n.sentBytes
	st, err := n.proc.Run(n)
	st.Bytes = n.sentBytes - before
	n.updated = false
	if err != nil {
		return st, err
	}
	n.finished = n.computeFinished()
	return st, nil
}

// Result returns the process's result.
func (n *Node[M, R]) Result() R { return n.proc.Result(n) }

// IsUpdated reports whether n should run this round. In ModeGraph it is
// always true. In tree modes n must have received something new since its
// last run and be ready to send on at least one edge, or (for nodes with
// nothing left to send) hold a delivery that completes it.
func (n *Node[M, R]) IsUpdated() bool {
	if n.mode == ModeGraph {
		return true
	}
	if !n.updated || n.finished {
		return false
	}
	switch n.mode {
	case ModeTreeUp:
		need := len(n.edges) - 1
		if n.root {
			need = len(n.edges)
		}
		return n.receivedCount() >= max(need, 0)
	default:
		return n.root || n.receivedCount() > 0
	}
}

// IsFinished reports whether n is done.
func (n *Node[M, R]) IsFinished() bool { return n.finished }

func (n *Node[M, R]) computeFinished() bool {
	switch n.mode {
	case ModeTreeUp:
		for _, e := range n.edges {
			if !e.hasSent(n) || !e.hasReceived(n) {
				return false
			}
		}
		return true
	case ModeTreeDown:
		if len(n.edges) == 0 {
			return true
		}
		for _, e := range n.edges {
			if e.hasSent(n) || e.hasReceived(n) {
				return true
			}
		}
		return false
	default:
		return n.proc.Converged(n)
	}
}

// ReadyToSend reports whether n may send on e under its mode.
//
// ModeGraph is always ready. ModeTreeUp is ready on e once nothing was sent
// on it yet and n has heard from every other edge (the root: from every
// edge). ModeTreeDown is ready on every edge nothing was received from.
func (n *Node[M, R]) ReadyToSend(e *Edge[M, R]) bool {
	switch n.mode {
	case ModeTreeUp:
		if e.hasSent(n) {
			return false
		}
		for _, o := range n.edges {
			if o == e && !n.root {
				continue
			}
			if !o.hasReceived(n) {
				return false
			}
		}
		return true
	case ModeTreeDown:
		return !e.hasReceived(n)
	default:
		return true
	}
}

// Send queues m on e. It reports whether anything was queued.
func (n *Node[M, R]) Send(e *Edge[M, R], m M) bool { return e.Send(n, m) }

// Message returns the current message on e addressed to n.
func (n *Node[M, R]) Message(e *Edge[M, R]) (M, bool) { return e.Message(n) }

func (n *Node[M, R]) receivedCount() int {
	c := 0
	for _, e := range n.edges {
		if e.hasReceived(n) {
			c++
		}
	}
	return c
}

func (n *Node[M, R]) String() string { return n.name }
