// Package promhooks implements the observability hook interfaces with
// Prometheus collectors.
//
// The collectors live on their own registry rather than the global default,
// so the CLI can dump exactly the metrics of one invocation with
// [Metrics.WriteText].
package promhooks

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"

	"github.com/kilburn/gdlfiltering/pkg/observability"
)

const namespace = "gdlf"

// Metrics holds every collector and implements all observability hooks.
type Metrics struct {
	registry *prometheus.Registry
	modes    sync.Map // run ID -> mode

	RunsTotal       *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	RoundsTotal     *prometheus.CounterVec
	RoundUpdated    prometheus.Histogram
	RoundCost       prometheus.Counter
	RoundBytes      prometheus.Counter
	FunctionsBuilt  *prometheus.CounterVec
	FunctionSize    *prometheus.HistogramVec
	Evaluations     *prometheus.CounterVec
	EvaluateSeconds prometheus.Histogram
	CacheRequests   *prometheus.CounterVec
	CacheBytes      *prometheus.CounterVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "runs_total",
			Help:      "Message-passing runs by mode and outcome",
		}, []string{"mode", "outcome"}),
		RunDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "run_duration_seconds",
			Help:      "Wall time of message-passing runs",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"outcome"}),
		RoundsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "rounds_total",
			Help:      "Synchronous rounds executed",
		}, []string{"mode"}),
		RoundUpdated: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "round_updated_nodes",
			Help:      "Nodes that ran in a round",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		RoundCost: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "cost_total",
			Help:      "Computational cost reported by nodes",
		}),
		RoundBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "sent_bytes_total",
			Help:      "Message bytes sent by nodes",
		}),
		FunctionsBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "costfn",
			Name:      "functions_built_total",
			Help:      "Cost functions materialized by representation",
		}, []string{"representation"}),
		FunctionSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "costfn",
			Name:      "function_size",
			Help:      "Configuration count of built cost functions",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}, []string{"representation"}),
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "evaluations_total",
			Help:      "Problem evaluations by outcome",
		}, []string{"outcome"}),
		EvaluateSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "evaluate_duration_seconds",
			Help:      "Wall time of problem evaluations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by backend and result",
		}, []string{"backend", "result"}),
		CacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "stored_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"backend"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Install registers m as the process-wide hooks.
func (m *Metrics) Install() {
	observability.SetRuntimeHooks(m)
	observability.SetFactoryHooks(m)
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
}

// WriteText writes all collected metrics in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// OnRunStart implements observability.RuntimeHooks.
func (m *Metrics) OnRunStart(_ context.Context, runID, mode string, _ int) {
	m.modes.Store(runID, mode)
}

// OnRoundComplete implements observability.RuntimeHooks.
func (m *Metrics) OnRoundComplete(_ context.Context, _ string, _, updated int, cost, bytes int64) {
	m.RoundUpdated.Observe(float64(updated))
	m.RoundCost.Add(float64(cost))
	m.RoundBytes.Add(float64(bytes))
}

// OnRunComplete implements observability.RuntimeHooks.
func (m *Metrics) OnRunComplete(_ context.Context, runID string, rounds int, converged bool, d time.Duration, err error) {
	out := outcome(err)
	if err == nil && !converged {
		out = "capped"
	}
	mode := "unknown"
	if v, ok := m.modes.LoadAndDelete(runID); ok {
		mode = v.(string)
	}
	m.RunsTotal.WithLabelValues(mode, out).Inc()
	m.RunDuration.WithLabelValues(out).Observe(d.Seconds())
	m.RoundsTotal.WithLabelValues(mode).Add(float64(rounds))
}

// OnBuild implements observability.FactoryHooks.
func (m *Metrics) OnBuild(representation string, size int) {
	m.FunctionsBuilt.WithLabelValues(representation).Inc()
	m.FunctionSize.WithLabelValues(representation).Observe(float64(size))
}

// OnEvaluateStart implements observability.PipelineHooks.
func (m *Metrics) OnEvaluateStart(context.Context, int, int) {}

// OnEvaluateComplete implements observability.PipelineHooks.
func (m *Metrics) OnEvaluateComplete(_ context.Context, d time.Duration, err error) {
	m.Evaluations.WithLabelValues(outcome(err)).Inc()
	m.EvaluateSeconds.Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, backend string) {
	m.CacheRequests.WithLabelValues(backend, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, backend string) {
	m.CacheRequests.WithLabelValues(backend, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, backend string, size int) {
	m.CacheBytes.WithLabelValues(backend).Add(float64(size))
}

var (
	_ observability.RuntimeHooks  = (*Metrics)(nil)
	_ observability.FactoryHooks  = (*Metrics)(nil)
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)
