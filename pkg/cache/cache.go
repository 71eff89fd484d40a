// Package cache provides key/value caching for the mosaic pipeline stages.
//
// Each stage of a mosaic build (cost matrix, plan, rendered artifact) is
// cached under a key derived from the content hashes of its inputs and the
// options that affect its output. A [Keyer] builds those keys; a [Cache]
// backend stores the bytes.
//
// Backends:
//   - [FileCache]: JSON entries under a directory, used by the CLI
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: disables caching
package cache

import (
	"context"
	"time"
)

// Default TTLs per stage.
const (
	TTLMatrix   = 7 * 24 * time.Hour
	TTLPlan     = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte values by key.
//
// Get reports a miss with (nil, false, nil). Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
