package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisCache is an optional second-level cache shared across process
// restarts. It degrades gracefully: when Redis is unreachable every
// operation is a no-op miss and callers fall back to the producer.
type RedisCache struct {
	client  *redis.Client
	enabled bool
	logger  zerolog.Logger
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL     string
	Enabled bool
}

// NewRedisCache connects to Redis. A failed initial ping leaves the cache
// in degraded mode rather than failing startup.
func NewRedisCache(cfg RedisConfig, logger zerolog.Logger) *RedisCache {
	log := logger.With().Str("component", "redis-cache").Logger()

	rc := &RedisCache{logger: log}
	if !cfg.Enabled || cfg.URL == "" {
		return rc
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid redis url, cache disabled")
		return rc
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rc.client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable, running in degraded mode")
		return rc
	}

	rc.enabled = true
	log.Info().Msg("redis cache connected")
	return rc
}

// Enabled reports whether the Redis layer is usable.
func (rc *RedisCache) Enabled() bool {
	return rc.enabled
}

// GetJSON fetches and unmarshals a cached value into out.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if !rc.enabled {
		return false
	}
	raw, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			rc.logger.Debug().Err(err).Str("key", key).Msg("redis get failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		rc.logger.Debug().Err(err).Str("key", key).Msg("stale cache entry dropped")
		return false
	}
	return true
}

// SetJSON marshals and stores a value with a TTL. Failures are logged only.
func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !rc.enabled {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		rc.logger.Debug().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := rc.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		rc.logger.Debug().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Close releases the underlying connection.
func (rc *RedisCache) Close() error {
	if rc.client == nil {
		return nil
	}
	return rc.client.Close()
}
