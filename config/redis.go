package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tiannys/buffet-restaurant/utils"
)

// NewRedisClient connects to Redis when REDIS_ADDR is set. It returns nil when
// Redis is not configured or unreachable, and callers run without the cache.
func NewRedisClient(c Config) *redis.Client {
	if c.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		utils.ErrorLogger.Printf("Redis unavailable at %s, catalog cache disabled: %v", c.RedisAddr, err)
		_ = client.Close()
		return nil
	}
	return client
}
