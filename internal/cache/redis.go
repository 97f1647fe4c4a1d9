package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"todoboard/pkg/config"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisCache shares rendered pages between server instances, so an
// invalidation on one instance is seen by all of them. Pages live under
// page:<path>:<gen>; Invalidate INCRs page:gen:<path>, which orphans every
// page stored for an older generation until its TTL removes it.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisCache) Generation(ctx context.Context, path string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(path)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		c.logger.Warn("Page generation read failed", zap.String("path", path), zap.Error(err))
		return 0, err
	}
	return gen, nil
}

func (c *RedisCache) Get(ctx context.Context, path string) ([]byte, bool, error) {
	gen, err := c.Generation(ctx, path)
	if err != nil {
		return nil, false, err
	}
	body, err := c.rdb.Get(ctx, pageKey(path, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		c.logger.Warn("Page cache read failed", zap.String("path", path), zap.Error(err))
		return nil, false, err
	}
	return body, true, nil
}

func (c *RedisCache) Set(ctx context.Context, path string, gen int64, body []byte) error {
	if err := c.rdb.Set(ctx, pageKey(path, gen), body, c.ttl).Err(); err != nil {
		c.logger.Warn("Page cache write failed", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, path string) error {
	gen, err := c.rdb.Incr(ctx, genKey(path)).Result()
	if err != nil {
		c.logger.Warn("Page cache invalidation failed", zap.String("path", path), zap.Error(err))
		return err
	}
	c.logger.Debug("Page cache invalidated", zap.String("path", path), zap.Int64("generation", gen))
	return nil
}
