package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nulzo/model-registry-api/internal/cache"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

// Cache is a process-local cache.Cache for single-instance deployments
// where Redis is not configured.
type Cache struct {
	items map[string]item
	mu    sync.RWMutex
}

func New() *Cache {
	return &Cache{
		items: make(map[string]item),
	}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	it, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || time.Now().After(it.expiresAt) {
		return cache.ErrMiss
	}
	return json.Unmarshal(it.value, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items[key] = item{value: data, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}
