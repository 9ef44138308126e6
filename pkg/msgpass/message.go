package msgpass

import (
	"github.com/kilburn/gdlfiltering/pkg/costfn"
)

// Message is the constraint on values carried by edges. Bytes feeds the
// sent-bytes statistics; Equal decides whether a resend changes anything.
type Message[M any] interface {
	Bytes() int64
	Equal(other M) bool
}

// DefaultTolerance is the value tolerance CostMessage uses when none is set.
const DefaultTolerance = 1e-6

// CostMessage carries a cost function between nodes.
type CostMessage struct {
	Function  *costfn.Function
	Tolerance float64
}

// NewCostMessage wraps fn with the default tolerance.
func NewCostMessage(fn *costfn.Function) *CostMessage {
	return &CostMessage{Function: fn, Tolerance: DefaultTolerance}
}

// Bytes returns the memory held by the wrapped function's values.
func (m *CostMessage) Bytes() int64 {
	if m == nil {
		return 0
	}
	return m.Function.ByteSize()
}

// Equal reports whether both messages carry functions over the same
// variables whose values are within m's tolerance.
func (m *CostMessage) Equal(other *CostMessage) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.Function.Equal(other.Function, m.Tolerance)
}
