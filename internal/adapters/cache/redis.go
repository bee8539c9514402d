package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nicnocquee/spanduck/internal/domain"
	"github.com/nicnocquee/spanduck/pkg/log"
)

const redisKeyPrefix = "meta:"

// RedisConfig holds the connection settings of RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps keys without expiry
}

// RedisCache stores metadata as JSON strings in Redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.GlobalDebugCtx(ctx, "redis metadata cache connected", "addr", cfg.Addr, "db", cfg.DB)
	return &RedisCache{rdb: rdb, ttl: cfg.TTL}, nil
}

// Get retrieves metadata for id. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, id domain.Identity) (*domain.Metadata, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var m domain.Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, fmt.Errorf("decode cached metadata %s: %w", Key(id), err)
	}
	return &m, true, nil
}

// Put stores metadata for id, replacing any previous value.
func (c *RedisCache) Put(ctx context.Context, id domain.Identity, m domain.Metadata) error {
	m.Touch(time.Now().UTC())
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metadata %s: %w", Key(id), err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+Key(id), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
