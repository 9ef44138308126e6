package msgpass

import (
	"time"

	"github.com/google/uuid"
)

// RoundStats aggregates the node runs of one round.
type RoundStats struct {
	Round      int   `json:"round"`
	Updated    int   `json:"updated"`
	MaxCost    int64 `json:"max_cost"`
	TotalCost  int64 `json:"total_cost"`
	MaxBytes   int64 `json:"max_bytes"`
	TotalBytes int64 `json:"total_bytes"`
	MaxMemory  int64 `json:"max_memory"`
}

func (r *RoundStats) add(s Stats) {
	r.Updated++
	r.MaxCost = max(r.MaxCost, s.Cost)
	r.TotalCost += s.Cost
	r.MaxBytes = max(r.MaxBytes, s.Bytes)
	r.TotalBytes += s.Bytes
	r.MaxMemory = max(r.MaxMemory, s.Memory)
}

// Results describes a finished run.
//
// The cumulative Max* fields sum the per-round maxima: with one worker per
// node they approximate the parallel critical path, while the Total* fields
// are the sequential work.
type Results struct {
	ID         string        `json:"id"`
	Mode       string        `json:"mode"`
	Iterations int           `json:"iterations"`
	Converged  bool          `json:"converged"`
	Rounds     []RoundStats  `json:"rounds,omitempty"`
	MaxCost    int64         `json:"max_cost"`
	TotalCost  int64         `json:"total_cost"`
	MaxBytes   int64         `json:"max_bytes"`
	TotalBytes int64         `json:"total_bytes"`
	MaxMemory  int64         `json:"max_memory"`
	Duration   time.Duration `json:"duration"`
}

func newResults(mode Mode) *Results {
	return &Results{ID: uuid.NewString(), Mode: mode.String()}
}

// addRound appends r and folds it into the cumulative counters.
func (res *Results) addRound(r RoundStats) {
	res.Rounds = append(res.Rounds, r)
	res.Iterations = len(res.Rounds)
	res.MaxCost += r.MaxCost
	res.TotalCost += r.TotalCost
	res.MaxBytes += r.MaxBytes
	res.TotalBytes += r.TotalBytes
	res.MaxMemory = max(res.MaxMemory, r.MaxMemory)
}

// LoadFactor returns MaxCost/TotalCost, or 0 when no cost was reported.
// It is 1 when each round's work sits on a single node and approaches
// 1/nodes when work is spread evenly.
func (res *Results) LoadFactor() float64 {
	if res.TotalCost == 0 {
		return 0
	}
	return float64(res.MaxCost) / float64(res.TotalCost)
}

// ByteLoadFactor is LoadFactor for sent bytes.
func (res *Results) ByteLoadFactor() float64 {
	if res.TotalBytes == 0 {
		return 0
	}
	return float64(res.MaxBytes) / float64(res.TotalBytes)
}
