package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

const sweepInterval = time.Minute

// Memory is an in-process cache. Expired entries are dropped on read, and
// Set sweeps the whole map at most once per sweepInterval.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expiresAt) {
		m.mu.Lock()
		if cur, still := m.entries[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value. A non-positive ttl stores nothing.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}

	buf := make([]byte, len(value))
	copy(buf, value)

	now := m.now()
	m.mu.Lock()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweepLocked(now)
	}
	m.entries[key] = entry{value: buf, expiresAt: now.Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) sweepLocked(now time.Time) {
	for k, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.lastSweep = now
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
