package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProductCache holds persisted product records for the detail view. Entries
// never carry per-viewer fields.
type ProductCache interface {
	Get(ctx context.Context, id string) (Product, bool, error)
	Set(ctx context.Context, p Product) error
	Invalidate(ctx context.Context, id string) error
}

const defaultCacheTTL = 5 * time.Minute

type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{
		client: client,
		prefix: "listing:product:",
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, id string) (Product, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("cache get %s: %w", id, err)
	}

	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, false, fmt.Errorf("cache decode %s: %w", id, err)
	}
	return p, true, nil
}

func (c *RedisCache) Set(ctx context.Context, p Product) error {
	data, err := json.Marshal(stored(p))
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", p.ID, err)
	}
	return c.client.Set(ctx, c.prefix+p.ID, data, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.prefix+id).Err()
}
