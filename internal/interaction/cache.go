package interaction

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/rxguard/rxguard/internal/drug"
)

// ResolveCache caches drug-name→identifier resolutions so repeated
// validations of the same medication list do not re-hit the graph service.
// Implementations are best-effort: a cache failure is never an error.
type ResolveCache interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name string, id string)
}

// RedisResolveCache stores resolutions in Redis keyed by normalized name.
type RedisResolveCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisResolveCache wraps a Redis client. A zero ttl defaults to 24h;
// resolved identifiers are stable reference data, not patient state.
func NewRedisResolveCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisResolveCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisResolveCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(name string) string {
	return "rxguard:resolve:" + drug.Normalize(name)
}

func (c *RedisResolveCache) Get(ctx context.Context, name string) (string, bool) {
	val, err := c.client.Get(ctx, cacheKey(name)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("resolve cache read failed")
		}
		return "", false
	}
	return val, true
}

func (c *RedisResolveCache) Set(ctx context.Context, name, id string) {
	if err := c.client.Set(ctx, cacheKey(name), id, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("resolve cache write failed")
	}
}
