package layoutcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reportlane/reportlane/internal/layout"
)

// DefaultPrefix namespaces layout keys in a shared Redis.
const DefaultPrefix = "reportlane:layout:"

// Redis stores JSON-encoded results in Redis.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, prefix string, logger *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("layoutcache: ping redis %s: %w", addr, err)
	}
	return NewRedis(client, prefix, logger), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, logger *slog.Logger) *Redis {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) key(k string) string { return r.prefix + k }

func (r *Redis) Get(ctx context.Context, key string) (*layout.Result, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("layout cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		r.logger.Warn("layout cache entry corrupt", "key", key, "error", err)
		return nil, false
	}
	return &res, true
}

// Set stores res. A zero ttl uses DefaultTTL.
func (r *Redis) Set(ctx context.Context, key string, res *layout.Result, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(res)
	if err != nil {
		r.logger.Warn("layout cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		r.logger.Warn("layout cache set failed", "key", key, "error", err)
	}
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// Flush removes every key under the prefix.
func (r *Redis) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

// Close releases the client.
func (r *Redis) Close() error { return r.client.Close() }
