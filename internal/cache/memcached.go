package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/vzahanych/weather-advisor/internal/config"
)

const (
	keyPrefix      = "wa:"
	maxRelativeExp = 30 * 24 * 60 * 60
)

type Memcached struct {
	client *memcache.Client
}

func NewMemcached(cfg config.MemcachedConfig) *Memcached {
	servers := cfg.Addrs
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if cfg.TimeoutMS > 0 {
		client.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	if cfg.MaxIdleConns > 0 {
		client.MaxIdleConns = cfg.MaxIdleConns
	}
	return &Memcached{client: client}
}

func (c *Memcached) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	item, err := c.client.Get(keyPrefix + key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return item.Value, true, nil
}

func (c *Memcached) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	exp := int32(ttl.Seconds())
	if exp < 1 {
		exp = 1
	}
	if exp > maxRelativeExp {
		exp = maxRelativeExp
	}
	return c.client.Set(&memcache.Item{
		Key:        keyPrefix + key,
		Value:      value,
		Expiration: exp,
	})
}

func (c *Memcached) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.client.Ping()
}

func (c *Memcached) Close() error {
	return c.client.Close()
}
