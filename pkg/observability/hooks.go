// Package observability provides hooks for metrics, tracing, and logging.
//
// This package defines interfaces for observability without depending
// on specific observability backends. Consumers can register hooks at startup
// to receive events from the message-passing runtime, the cost-function
// factory, the evaluation pipeline, and the result cache.
//
// # Design
//
// The hooks pattern:
//   - Allows the CLI to plug in Prometheus (see the promhooks subpackage)
//   - Keeps the algebra and runtime packages free of metrics frameworks
//   - Costs one interface call per event when no hooks are registered
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRuntimeHooks(&myRuntimeHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Emitters call the registered hooks:
//
//	observability.Runtime().OnRunStart(ctx, runID, "graph", len(nodes))
//	// ... rounds ...
//	observability.Runtime().OnRunComplete(ctx, runID, rounds, converged, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Runtime Hooks
// =============================================================================

// RuntimeHooks receives events from message-passing runs.
type RuntimeHooks interface {
	// OnRunStart is called before the first round of a run.
	OnRunStart(ctx context.Context, runID, mode string, nodes int)
	// OnRoundComplete is called after every round with the number of nodes
	// that ran and the round's summed cost and sent bytes.
	OnRoundComplete(ctx context.Context, runID string, round, updated int, cost, bytes int64)
	// OnRunComplete is called once when the run ends, successfully or not.
	OnRunComplete(ctx context.Context, runID string, rounds int, converged bool, duration time.Duration, err error)
}

// =============================================================================
// Factory Hooks
// =============================================================================

// FactoryHooks receives events from cost-function factories.
type FactoryHooks interface {
	// OnBuild is called for every function a factory materializes.
	OnBuild(representation string, size int)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the evaluation pipeline.
type PipelineHooks interface {
	OnEvaluateStart(ctx context.Context, factors, variables int)
	OnEvaluateComplete(ctx context.Context, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit is called when a cache lookup succeeds.
	OnCacheHit(ctx context.Context, backend string)
	// OnCacheMiss is called when a cache lookup fails.
	OnCacheMiss(ctx context.Context, backend string)
	// OnCacheSet is called when data is stored in cache.
	OnCacheSet(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRuntimeHooks is a no-op implementation of RuntimeHooks.
type NoopRuntimeHooks struct{}

func (NoopRuntimeHooks) OnRunStart(context.Context, string, string, int)                 {}
func (NoopRuntimeHooks) OnRoundComplete(context.Context, string, int, int, int64, int64) {}
func (NoopRuntimeHooks) OnRunComplete(context.Context, string, int, bool, time.Duration, error) {
}

// NoopFactoryHooks is a no-op implementation of FactoryHooks.
type NoopFactoryHooks struct{}

func (NoopFactoryHooks) OnBuild(string, int) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnEvaluateStart(context.Context, int, int)                {}
func (NoopPipelineHooks) OnEvaluateComplete(context.Context, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runtimeHooks  RuntimeHooks  = NoopRuntimeHooks{}
	factoryHooks  FactoryHooks  = NoopFactoryHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetRuntimeHooks registers custom runtime hooks.
// This should be called once at application startup before any run.
func SetRuntimeHooks(h RuntimeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runtimeHooks = h
	}
}

// SetFactoryHooks registers custom factory hooks.
func SetFactoryHooks(h FactoryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		factoryHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Runtime returns the registered runtime hooks.
func Runtime() RuntimeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runtimeHooks
}

// Factory returns the registered factory hooks.
func Factory() FactoryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return factoryHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runtimeHooks = NoopRuntimeHooks{}
	factoryHooks = NoopFactoryHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
