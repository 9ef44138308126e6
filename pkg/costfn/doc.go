// Package costfn implements the cost-function algebra used by message-passing
// solvers for Distributed Constraint Optimization Problems.
//
// # Overview
//
// A cost function maps every joint configuration of a tuple of discrete
// variables to a real value. Solvers build local functions, send them to
// neighbours as messages, and fold incoming messages into their own
// knowledge with a handful of algebraic operations:
//
//   - [Function.Combine]: pointwise composition over the union of scopes
//   - [Function.Summarize]: eliminate (or introduce) variables
//   - [Function.Reduce]: condition on observed variable values
//   - [Function.Normalize] and [Function.Negate]: rescaling and inversion
//   - [Function.OptimalConfiguration]: pick the best configuration
//
// # Operator Policy
//
// Which operators those names stand for is decided once per session by a
// [Policy] held inside a [Factory]:
//
//	f := costfn.NewFactory(costfn.Policy{
//	    Combine:   costfn.CombineSum,
//	    Summarize: costfn.SummarizeMin,
//	})
//
// Cost minimization uses SUM/MIN, utility maximization SUM/MAX, and
// probabilistic inference PRODUCT/SUM. The summarize operator also fixes the
// nogood value: +Inf for MIN, -Inf for MAX, 0 for SUM. Every function carries
// the factory that built it, so the policy never has to be passed around.
//
// # Indexing
//
// Configurations are linearized row-major, the last variable of the scope
// varying fastest. For variables (a, b) with domains 2 and 3 the index of
// (a=1, b=2) is 1*3 + 2 = 5. [Function.Index], [Function.Indexes] and
// [Function.Mapping] convert between assignments and linear indices.
//
// A function with no variables is a constant of size 1. The function
// returned by [Factory.Null] has size 0 and is the identity of Combine. When
// the product of the domains does not fit an int the size is [SizeOverflow]
// and the function cannot be materialized.
//
// # Representations
//
// Three backings implement the [Storage] capability:
//
//   - [DenseStorage]: a flat slice holding every value
//   - [MapStorage]: a hash map of non-default entries
//   - [SortedStorage]: parallel sorted slices of non-default entries
//
// Sparse backings return their default for absent entries. [Factory.BuildFrom]
// chooses a sparse copy when more than [SparsityThreshold] of the values are
// nogoods, and algebra results with a sparse operand go through the same
// rule.
//
// # Concurrency
//
// A [Factory] is immutable and safe to share. Functions are not safe for
// concurrent mutation; algebra methods never mutate their operands, so
// read-only functions may be combined from several goroutines at once.
package costfn
