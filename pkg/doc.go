// Package pkg provides the libraries behind the gdlf cost-network tool.
//
// # Overview
//
// A cost network is a set of discrete variables and cost functions over
// subsets of them. The pkg directory is organized into these areas:
//
//  1. [costfn] - Cost functions with dense and sparse storage and their algebra
//  2. [msgpass] - Synchronous message-passing runtime over a graph of nodes
//  3. [problem] - JSON/YAML problem files and their conversion to functions
//  4. [pipeline] - Orchestration (build → condition → combine → summarize)
//  5. [cache], [config], [observability], [errors] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through gdlf:
//
//	problem file (JSON/YAML)
//	         ↓
//	    [problem] package (validate + build functions)
//	         ↓
//	    [costfn] package (reduce, combine, summarize, normalize)
//	         ↓
//	    [pipeline] package (cached evaluation, interaction graph)
//	         ↓
//	    marginal + optimal configuration
//
// # Quick Start
//
//	import (
//	    "github.com/kilburn/gdlfiltering/pkg/costfn"
//	)
//
//	f := costfn.NewFactory(costfn.DefaultPolicy())
//	x := costfn.NewVariable("x", 2)
//	y := costfn.NewVariable("y", 3)
//
//	a := f.Build(x, y)
//	b := f.BuildWithValue(1, y)
//	joint, _ := a.Combine(b)
//	marginal, _ := joint.Summarize(y)
//
// [costfn]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/costfn
// [msgpass]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/msgpass
// [problem]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/problem
// [pipeline]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/cache
// [config]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/config
// [observability]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/observability
// [errors]: https://pkg.go.dev/github.com/kilburn/gdlfiltering/pkg/errors
package pkg
