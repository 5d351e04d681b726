// Package cache 提供整页缓存使用的键值存储，支持过期时间和显式清空。
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"yatube/config"
)

// Store 进程级键值缓存。Get 未命中时返回 (nil, false, nil)。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// New 根据配置创建缓存后端
func New(cfg config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return NewRedisStore(client, DefaultPrefix), nil
	default:
		return nil, fmt.Errorf("不支持的缓存后端: %s", cfg.CacheBackend)
	}
}
