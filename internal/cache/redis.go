package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Redis is a Redis-backed cache, used when multiple instances should share
// quote and backfill freshness state.
type Redis struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedis creates a Redis cache from a redis:// URL.
func NewRedis(url string, log zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	return &Redis{
		rdb: redis.NewClient(opts),
		log: log.With().Str("component", "redis_cache").Logger(),
	}, nil
}

// Get returns the value for key if present.
func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return "", false
	}
	return value, true
}

// Set stores value under key with the given TTL.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
