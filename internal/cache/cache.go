package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores rendered sitemap documents between requests.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

const keyPrefix = "sitemap:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(address string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: address,
	})

	_, err := client.Ping(context.Background()).Result()
	if err != nil {
		return nil, err
	}

	return NewRedisCacheFromClient(client, ttl), nil
}

func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (rc *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	content, err := rc.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, err
	}
	return content, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key, value string) error {
	return rc.client.Set(ctx, keyPrefix+key, value, rc.ttl).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// Noop never stores anything, so every request regenerates.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Noop) Set(context.Context, string, string) error         { return nil }
func (Noop) Close() error                                      { return nil }
