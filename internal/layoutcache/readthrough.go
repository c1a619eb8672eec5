package layoutcache

import (
	"context"
	"time"

	"github.com/reportlane/reportlane/internal/layout"
)

// ComputeFunc produces a layout on a cache miss.
type ComputeFunc func(ctx context.Context) (*layout.Result, error)

// ReadThrough fronts a compute function with a Cache.
type ReadThrough struct {
	cache Cache
	ttl   time.Duration
}

// NewReadThrough returns a read-through wrapper. A nil cache disables caching.
func NewReadThrough(cache Cache, ttl time.Duration) *ReadThrough {
	if cache == nil {
		cache = Nop{}
	}
	return &ReadThrough{cache: cache, ttl: ttl}
}

// Get returns the cached result for key or computes and stores it. hit
// reports whether the result came from the cache. Errors are not cached.
func (r *ReadThrough) Get(ctx context.Context, key string, compute ComputeFunc) (res *layout.Result, hit bool, err error) {
	if res, ok := r.cache.Get(ctx, key); ok {
		return res, true, nil
	}
	res, err = compute(ctx)
	if err != nil {
		return nil, false, err
	}
	r.cache.Set(ctx, key, res, r.ttl)
	return res, false, nil
}

// Cache is the backing store.
func (r *ReadThrough) Cache() Cache { return r.cache }
