package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront/pkg/clock"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache. Values are stored encoded so callers
// never share mutable state with the cache. Expired items are dropped on read.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	clock clock.Clock
}

func NewMemoryCache(clk clock.Clock) *MemoryCache {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &MemoryCache{
		items: make(map[string]memoryItem),
		clock: clk,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return ErrCacheMiss
	}
	if c.expired(item) {
		c.evictExpired(key)
		return ErrCacheMiss
	}

	if err := json.Unmarshal(item.data, dest); err != nil {
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	return nil
}

func (c *MemoryCache) expired(item memoryItem) bool {
	return !item.expiresAt.IsZero() && !c.clock.Now().Before(item.expiresAt)
}

// evictExpired re-reads key under the write lock, so a Set that landed after
// the expired read survives.
func (c *MemoryCache) evictExpired(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, ok := c.items[key]; ok && c.expired(item) {
		delete(c.items, key)
	}
}

// Set stores value under key. A ttl <= 0 never expires.
func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}

	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = c.clock.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *MemoryCache) Ping(context.Context) error {
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
