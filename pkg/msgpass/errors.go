package msgpass

import "errors"

var (
	// ErrDuplicateNode is returned by [Graph.AddNode] when the name is taken.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrInvalidNodeName is returned by [Graph.AddNode] for empty names.
	ErrInvalidNodeName = errors.New("node name must not be empty")

	// ErrNodeNotInGraph is returned when a node belongs to another graph.
	ErrNodeNotInGraph = errors.New("node not in graph")

	// ErrSelfLoop is returned by [Graph.Connect] when both endpoints are the
	// same node.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrDuplicateEdge is returned by [Graph.Connect] when the nodes are
	// already connected.
	ErrDuplicateEdge = errors.New("nodes already connected")

	// ErrNotTree is returned by [Graph.RunTree] when the graph is not a
	// connected acyclic graph.
	ErrNotTree = errors.New("graph is not a tree")

	// ErrNoProcess is returned by [Graph.AddNode] for a nil process.
	ErrNoProcess = errors.New("node process must not be nil")
)
