// Package problem reads and writes cost networks as JSON or YAML and turns
// them into [costfn] functions.
//
// # Format
//
// A problem declares its variables and a list of factors over them:
//
//	{
//	  "name": "chain",
//	  "variables": [
//	    {"name": "x", "domain": 2},
//	    {"name": "y", "domain": 3}
//	  ],
//	  "factors": [
//	    {"name": "ux", "scope": ["x"], "values": [0, 1.5]},
//	    {"name": "xy", "scope": ["x", "y"],
//	     "entries": [{"states": [0, 2], "value": 3}],
//	     "default": "inf"}
//	  ],
//	  "query": ["y"],
//	  "evidence": {"x": 1}
//	}
//
// A dense factor lists every value in row-major order: the last scope
// variable varies fastest. A sparse factor lists explicit entries by state
// tuple; every other configuration takes the default, which is the
// summarize operator's nogood when omitted.
//
// Costs are JSON numbers, except infinities and NaN, which are written as
// the strings "inf", "-inf" and "nan". YAML files may use either those
// strings or the native .inf and .nan.
//
// The optional query and evidence are defaults for evaluation; command
// line flags override them.
//
// # Building
//
// [Problem.Build] validates the problem and materializes each factor
// through the factory's sparsity rule, so a dense file with mostly nogood
// values still yields a sparse function. [FromFunction] goes the other way
// and is used to write results.
package problem
