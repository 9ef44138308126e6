package costfn

import (
	"math"
	"strings"

	"github.com/kilburn/gdlfiltering/pkg/errors"
)

// =============================================================================
// Combine
// =============================================================================

// CombineOp is the pointwise operator used to compose functions.
type CombineOp int

const (
	// CombineSum adds values; its neutral element is 0 and its inverse is -v.
	CombineSum CombineOp = iota
	// CombineProduct multiplies values; its neutral element is 1 and its inverse is 1/v.
	CombineProduct
)

// Eval combines two values.
func (c CombineOp) Eval(a, b float64) float64 {
	if c == CombineProduct {
		return a * b
	}
	return a + b
}

// Neutral returns the operator's identity element.
func (c CombineOp) Neutral() float64 {
	if c == CombineProduct {
		return 1
	}
	return 0
}

// Invert returns the algebraic inverse of v under the operator.
func (c CombineOp) Invert(v float64) float64 {
	if c == CombineProduct {
		return 1 / v
	}
	return -v
}

// String returns the config/CLI spelling of the operator.
func (c CombineOp) String() string {
	if c == CombineProduct {
		return "product"
	}
	return "sum"
}

// ParseCombine parses "sum" or "product" (case-insensitive).
func ParseCombine(s string) (CombineOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "":
		return CombineSum, nil
	case "product", "prod":
		return CombineProduct, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown combine operator %q (want sum|product)", s)
}

// =============================================================================
// Summarize
// =============================================================================

// SummarizeOp is the aggregation used to eliminate variables.
type SummarizeOp int

const (
	// SummarizeMin keeps the minimum; nogood is +Inf.
	SummarizeMin SummarizeOp = iota
	// SummarizeMax keeps the maximum; nogood is -Inf.
	SummarizeMax
	// SummarizeSum accumulates; nogood is 0. It has no ordering.
	SummarizeSum
)

// Eval aggregates a new value into the current one.
func (s SummarizeOp) Eval(value, current float64) float64 {
	switch s {
	case SummarizeMin:
		if value < current {
			return value
		}
		return current
	case SummarizeMax:
		if value > current {
			return value
		}
		return current
	default:
		return value + current
	}
}

// Nogood returns the sentinel for infeasible or absent values.
func (s SummarizeOp) Nogood() float64 {
	switch s {
	case SummarizeMin:
		return math.Inf(1)
	case SummarizeMax:
		return math.Inf(-1)
	default:
		return 0
	}
}

// IsBetter reports whether a is strictly preferred over b.
// SUM summarization has no ordering and reports ErrCodeUnsupported.
func (s SummarizeOp) IsBetter(a, b float64) (bool, error) {
	switch s {
	case SummarizeMin:
		return a < b, nil
	case SummarizeMax:
		return a > b, nil
	default:
		return false, errors.New(errors.ErrCodeUnsupported, "sum summarization has no preference order")
	}
}

// String returns the config/CLI spelling of the operator.
func (s SummarizeOp) String() string {
	switch s {
	case SummarizeMin:
		return "min"
	case SummarizeMax:
		return "max"
	default:
		return "sum"
	}
}

// ParseSummarize parses "min", "max" or "sum" (case-insensitive).
func ParseSummarize(s string) (SummarizeOp, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "":
		return SummarizeMin, nil
	case "max":
		return SummarizeMax, nil
	case "sum":
		return SummarizeSum, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown summarize operator %q (want min|max|sum)", s)
}

// =============================================================================
// Normalize
// =============================================================================

// NormalizeMode selects how Normalize rescales a function.
type NormalizeMode int

const (
	// NormalizeNone leaves values untouched.
	NormalizeNone NormalizeMode = iota
	// NormalizeSum0 subtracts the mean so values sum to zero.
	NormalizeSum0
	// NormalizeSum1 divides by the total so values sum to one.
	NormalizeSum1
)

// String returns the config/CLI spelling of the mode.
func (n NormalizeMode) String() string {
	switch n {
	case NormalizeSum0:
		return "sum0"
	case NormalizeSum1:
		return "sum1"
	default:
		return "none"
	}
}

// ParseNormalize parses "none", "sum0" or "sum1" (case-insensitive).
func ParseNormalize(s string) (NormalizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return NormalizeNone, nil
	case "sum0":
		return NormalizeSum0, nil
	case "sum1":
		return NormalizeSum1, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown normalize mode %q (want none|sum0|sum1)", s)
}

// =============================================================================
// Policy
// =============================================================================

// Policy is the immutable operator configuration of a solving session.
type Policy struct {
	Combine   CombineOp
	Summarize SummarizeOp
	Normalize NormalizeMode
}

// DefaultPolicy is the cost-minimization setting: SUM combine, MIN summarize,
// no normalization.
func DefaultPolicy() Policy {
	return Policy{Combine: CombineSum, Summarize: SummarizeMin, Normalize: NormalizeNone}
}

// String formats the policy as combine/summarize/normalize.
func (p Policy) String() string {
	return p.Combine.String() + "/" + p.Summarize.String() + "/" + p.Normalize.String()
}
