// Package cache stores provider responses as opaque bytes with a TTL.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/vzahanych/weather-advisor/internal/config"
)

// Cache is a byte-oriented TTL store. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// New returns the backend selected by cfg.Backend.
func New(cfg config.CacheConfig) (Cache, error) {
	switch cfg.Backend {
	case "", config.CacheMemory:
		return NewMemory(), nil
	case config.CacheMemcached:
		return NewMemcached(cfg.Memcached), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
