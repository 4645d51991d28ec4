// Package cache stores rendered chart artifacts.
//
// Rendering a large chart to PDF or PNG shells out to rsvg-convert, and the
// Graphviz DOT export runs a WebAssembly Graphviz build. Both are slow
// compared to the canvas itself, so the CLI and the HTTP server keep their
// results in a [Cache] keyed by a hash of the chart content and the render
// options.
//
// # Backends
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a Redis server shared by several server instances
//
// [Open] wraps the selected backend so that every lookup reports hits and
// misses to the registered [observability.CacheHooks].
//
// # Keys
//
// A [Keyer] derives keys from [ChartHash] and the render options:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.ArtifactKey(cache.ChartHash(c), cache.ArtifactKeyOpts{Format: "pdf"})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"

	"github.com/matzehuels/organigram/pkg/errors"
	"github.com/matzehuels/organigram/pkg/observability"
)

// DefaultTTL is the lifetime of an artifact when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A non-positive ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// File backend
	Dir string

	// Redis backend
	RedisAddr string
	RedisDB   int
}

// Open creates the configured cache with observability hooks attached.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone:
		return Observed(NewNullCache(), BackendNone), nil
	case BackendFile, "":
		fc, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCache, err, "open file cache")
		}
		return Observed(fc, BackendFile), nil
	case BackendRedis:
		rc, err := NewRedisCache(ctx, RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		return Observed(rc, BackendRedis), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (none, file, redis)", cfg.Backend)
}

// observed reports cache traffic to the registered hooks.
type observed struct {
	Cache
	backend string
}

// Observed wraps c so that lookups and writes are reported to
// observability.Cache() under the given backend name.
func Observed(c Cache, backend string) Cache {
	return &observed{Cache: c, backend: backend}
}

func (o *observed) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := o.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, o.backend)
		} else {
			observability.Cache().OnCacheMiss(ctx, o.backend)
		}
	}
	return data, hit, err
}

func (o *observed) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := o.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, o.backend, len(data))
	return nil
}

// Unwrap returns the wrapped backend.
func (o *observed) Unwrap() Cache { return o.Cache }
