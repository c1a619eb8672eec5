package layoutcache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/reportlane/reportlane/internal/layout"
)

// Memory is an in-process cache.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a cache whose entries expire after defaultTTL.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

func (m *Memory) Get(_ context.Context, key string) (*layout.Result, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	res, ok := v.(*layout.Result)
	return res, ok
}

// Set stores res. A zero ttl uses the cache default.
func (m *Memory) Set(_ context.Context, key string, res *layout.Result, ttl time.Duration) {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	m.cache.Set(key, res, ttl)
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.cache.Delete(k)
	}
	return nil
}

func (m *Memory) Flush(context.Context) error {
	m.cache.Flush()
	return nil
}

// Len is the number of live entries.
func (m *Memory) Len() int { return m.cache.ItemCount() }
