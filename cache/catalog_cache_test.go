package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiannys/buffet-restaurant/services"
)

type countingResolver struct {
	calls int
	ids   map[uint][]uint
}

func (r *countingResolver) ResolveMenuIDs(ctx context.Context, packageID uint) ([]uint, error) {
	r.calls++
	ids, ok := r.ids[packageID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return ids, nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingResolver, *CatalogCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	backing := &countingResolver{ids: map[uint][]uint{1: {1, 2}, 2: {1, 2, 3}}}
	return mr, backing, NewCatalogCache(backing, client, time.Minute)
}

func TestCatalogCacheHit(t *testing.T) {
	ctx := context.Background()
	mr, backing, c := setup(t)

	ids, err := c.ResolveMenuIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)
	assert.True(t, mr.Exists("package_menus:2"))

	ids, err = c.ResolveMenuIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 3}, ids)
	assert.Equal(t, 1, backing.calls)

	mr.FastForward(2 * time.Minute)
	_, err = c.ResolveMenuIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, backing.calls)
}

func TestCatalogCacheDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	mr, backing, c := setup(t)

	_, err := c.ResolveMenuIDs(ctx, 99)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.False(t, mr.Exists("package_menus:99"))
	assert.Equal(t, 1, backing.calls)
}

func TestCatalogCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	mr, backing, c := setup(t)

	_, _ = c.ResolveMenuIDs(ctx, 1)
	_, _ = c.ResolveMenuIDs(ctx, 2)
	require.NoError(t, mr.Set("unrelated", "keep"))

	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists("package_menus:1"))
	assert.False(t, mr.Exists("package_menus:2"))
	assert.True(t, mr.Exists("unrelated"))

	_, _ = c.ResolveMenuIDs(ctx, 1)
	assert.Equal(t, 3, backing.calls)
}

func TestCatalogCacheFallsBackWhenRedisDown(t *testing.T) {
	ctx := context.Background()
	mr, backing, c := setup(t)
	mr.Close()

	ids, err := c.ResolveMenuIDs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, ids)
	assert.Equal(t, 1, backing.calls)
}
