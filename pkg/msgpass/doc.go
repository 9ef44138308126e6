// Package msgpass provides a generic bulk-synchronous message-passing runtime
// for graphical inference and optimization algorithms.
//
// # Overview
//
// A [Graph] connects [Node] values through undirected [Edge] values. Each
// node delegates its computation to a [Process], the algorithm-specific part
// (GDL, max-sum, and so on), which reads the messages its neighbours sent in
// the previous round and sends new ones:
//
//	g := msgpass.NewGraph[*msgpass.CostMessage, costfn.Assignment](msgpass.ModeGraph)
//	a, _ := g.AddNode("a", procA)
//	b, _ := g.AddNode("b", procB)
//	_, _ = g.Connect(a, b)
//	res, err := g.Run(ctx, 100)
//
// # Rounds
//
// Every edge keeps a current and a pending message per direction. A round
// first ticks every edge, promoting pending messages to current, and then
// runs every node whose [Node.IsUpdated] is true. Messages sent during the
// round land in pending slots, so no node can observe a message produced in
// the same round. This makes the result independent of the order, or the
// parallelism, in which the nodes of a round run.
//
// The run stops when every node reports [Node.IsFinished] or when the round
// cap is reached, in which case a warning is logged.
//
// # Modes
//
//   - [ModeGraph]: every node runs every round; finishing is decided by
//     [Process.Converged].
//   - [ModeTreeUp]: a node fires once it has heard from all neighbours but
//     one, collecting toward the root and distributing back down.
//   - [ModeTreeDown]: the root fires first and messages flow outward.
//
// [Graph.RunTree] performs a single post-order traversal instead of rounds,
// which is enough for an upward pass over a tree.
//
// # Statistics
//
// Each run returns [Results] with per-round maxima and totals of the
// computation cost and memory reported by the processes and of the bytes
// they sent. [Results.LoadFactor] relates the per-round maxima to the
// totals, a measure of how evenly the work is spread across nodes.
package msgpass
