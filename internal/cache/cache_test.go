package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"todoboard/pkg/config"
)

// runCacheSuite checks the PageCache contract against any implementation.
func runCacheSuite(t *testing.T, c PageCache) {
	ctx := context.Background()

	t.Run("set get invalidate", func(t *testing.T) {
		_, ok, err := c.Get(ctx, "/a")
		require.NoError(t, err)
		assert.False(t, ok)

		gen, err := c.Generation(ctx, "/a")
		require.NoError(t, err)
		require.NoError(t, c.Set(ctx, "/a", gen, []byte("<html>")))
		body, ok, err := c.Get(ctx, "/a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "<html>", string(body))

		require.NoError(t, c.Invalidate(ctx, "/a"))
		_, ok, _ = c.Get(ctx, "/a")
		assert.False(t, ok)
	})

	t.Run("render started before invalidate is never served", func(t *testing.T) {
		before, err := c.Generation(ctx, "/b")
		require.NoError(t, err)

		// 写入发生在渲染期间
		require.NoError(t, c.Invalidate(ctx, "/b"))
		require.NoError(t, c.Set(ctx, "/b", before, []byte("stale")))

		_, ok, err := c.Get(ctx, "/b")
		require.NoError(t, err)
		assert.False(t, ok)

		after, err := c.Generation(ctx, "/b")
		require.NoError(t, err)
		assert.Greater(t, after, before)
		require.NoError(t, c.Set(ctx, "/b", after, []byte("fresh")))
		body, ok, _ := c.Get(ctx, "/b")
		assert.True(t, ok)
		assert.Equal(t, "fresh", string(body))
	})

	t.Run("paths are independent", func(t *testing.T) {
		gen, _ := c.Generation(ctx, "/c")
		require.NoError(t, c.Set(ctx, "/c", gen, []byte("c")))
		require.NoError(t, c.Invalidate(ctx, "/d"))
		_, ok, _ := c.Get(ctx, "/c")
		assert.True(t, ok)
	})
}

func TestMemoryCache(t *testing.T) {
	runCacheSuite(t, NewMemoryCache(time.Minute))
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TODOBOARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TODOBOARD_TEST_REDIS_ADDR not set")
	}
	rdb := NewRedisClient(config.RedisConfig{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())
	for _, p := range []string{"/a", "/b", "/c", "/d"} {
		require.NoError(t, rdb.Del(ctx, genKey(p), pageKey(p, 0)).Err())
	}
	runCacheSuite(t, NewRedisCache(rdb, time.Minute, zap.NewNop()))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Second)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "/", 0, []byte("x")))
	now = now.Add(2 * time.Second)
	_, ok, _ := c.Get(ctx, "/")
	assert.False(t, ok)
}

func TestMemoryCache_CopiesBody(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute)
	body := []byte("abc")
	require.NoError(t, c.Set(ctx, "/", 0, body))
	body[0] = 'z'

	got, _, _ := c.Get(ctx, "/")
	assert.Equal(t, "abc", string(got))
}
