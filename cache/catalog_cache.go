package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

const keyPrefix = "package_menus:"

// CatalogCache keeps resolved package catalogs in Redis. Redis failures fall
// through to the wrapped resolver.
type CatalogCache struct {
	realResolver services.MenuResolver
	redis        *redis.Client
	ttl          time.Duration
}

func NewCatalogCache(realResolver services.MenuResolver, redis *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CatalogCache{
		realResolver: realResolver,
		redis:        redis,
		ttl:          ttl,
	}
}

func key(packageID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, packageID)
}

func (c *CatalogCache) ResolveMenuIDs(ctx context.Context, packageID uint) ([]uint, error) {
	k := key(packageID)

	data, err := c.redis.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		var ids []uint
		if err := json.Unmarshal(data, &ids); err != nil {
			utils.ErrorLogger.Printf("Failed to unmarshal cached catalog (continuing with DB): %v", err)
			break
		}
		return ids, nil

	case errors.Is(err, redis.Nil):

	default:
		utils.ErrorLogger.Printf("Redis error (continuing with DB): %v", err)
	}

	ids, err := c.realResolver.ResolveMenuIDs(ctx, packageID)
	if err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(ids)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to marshal catalog: %v", err)
		return ids, nil
	}
	if err := c.redis.Set(ctx, k, jsonData, c.ttl).Err(); err != nil {
		utils.ErrorLogger.Printf("Failed to cache catalog: %v", err)
	}
	return ids, nil
}

// Invalidate drops every cached catalog. A package change affects all of its
// descendants, so entries are not evicted one by one.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan catalog cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete catalog cache: %w", err)
	}
	return nil
}
