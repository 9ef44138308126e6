package cache

import (
	"context"
	"time"

	"github.com/kilburn/gdlfiltering/pkg/observability"
)

const nullBackend = "none"

// NullCache stores nothing. Every Get is a miss, reported to the cache
// hooks under the "none" backend so disabled caching shows up in metrics.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache {
	return NullCache{}
}

func (NullCache) Get(ctx context.Context, _ string) ([]byte, bool, error) {
	observability.Cache().OnCacheMiss(ctx, nullBackend)
	return nil, false, nil
}

func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

func (NullCache) Close() error { return nil }

var _ Cache = NullCache{}
