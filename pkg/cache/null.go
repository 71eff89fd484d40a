package cache

import (
	"context"
	"time"
)

// NullCache stores nothing, so every matrix, plan and artifact lookup
// misses and the pipeline recomputes each stage. It backs --no-cache,
// "cache = none" in the config file and servers started without a cache.
type NullCache struct{}

var _ Cache = (*NullCache)(nil)

// NewNullCache returns a cache that never hits.
func NewNullCache() Cache { return &NullCache{} }

// Get reports a miss for every key.
func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards data.
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete is a no-op; there is nothing to remove.
func (*NullCache) Delete(context.Context, string) error { return nil }

func (*NullCache) Close() error { return nil }
