package cache

import (
	"context"
	"sync"
	"time"
)

// Mirror stores serialized snapshots for external readers. The poller only
// writes; Get exists for inspection and tests and is never used to seed state.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// InMemoryMirror implements Mirror using a mutex-guarded map with TTL-based expiration.
// Expired entries are removed on access. A ttl <= 0 never expires.
type InMemoryMirror struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

// NewInMemoryMirror creates an empty in-memory mirror.
func NewInMemoryMirror() *InMemoryMirror {
	return &InMemoryMirror{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns (value, true, nil) on hit and (nil, false, nil) on miss or expiration.
func (c *InMemoryMirror) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.data, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a copy of value under key.
func (c *InMemoryMirror) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.data[key] = e
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryMirror) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
