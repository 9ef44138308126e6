package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRuntimeHooks{}
	r.OnRunStart(ctx, "run-1", "graph", 4)
	r.OnRoundComplete(ctx, "run-1", 1, 4, 64, 512)
	r.OnRunComplete(ctx, "run-1", 3, true, time.Second, nil)

	f := NoopFactoryHooks{}
	f.OnBuild("dense", 8)

	p := NoopPipelineHooks{}
	p.OnEvaluateStart(ctx, 3, 5)
	p.OnEvaluateComplete(ctx, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "file")
	c.OnCacheMiss(ctx, "redis")
	c.OnCacheSet(ctx, "file", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Runtime().(NoopRuntimeHooks); !ok {
		t.Error("Runtime() should return NoopRuntimeHooks by default")
	}
	if _, ok := Factory().(NoopFactoryHooks); !ok {
		t.Error("Factory() should return NoopFactoryHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customRuntime := &testRuntimeHooks{}
	SetRuntimeHooks(customRuntime)
	if Runtime() != customRuntime {
		t.Error("SetRuntimeHooks should set custom hooks")
	}

	customFactory := &testFactoryHooks{}
	SetFactoryHooks(customFactory)
	if Factory() != customFactory {
		t.Error("SetFactoryHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Runtime().(NoopRuntimeHooks); !ok {
		t.Error("Reset() should restore NoopRuntimeHooks")
	}
	if _, ok := Factory().(NoopFactoryHooks); !ok {
		t.Error("Reset() should restore NoopFactoryHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRuntimeHooks{}
	SetRuntimeHooks(custom)
	SetRuntimeHooks(nil)

	if Runtime() != custom {
		t.Error("SetRuntimeHooks(nil) should be ignored")
	}

	Reset()
}

type testRuntimeHooks struct{ NoopRuntimeHooks }
type testFactoryHooks struct{ NoopFactoryHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
