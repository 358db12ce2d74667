package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCache(client), mr
}

func TestRedisCache_MissIsNotAnError(t *testing.T) {
	c, _ := newTestCache(t)

	value, found, err := c.Get(context.Background(), "catalog:products:all")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, value)
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte(`[1,2]`), time.Minute))
	require.NoError(t, c.Set(ctx, "k2", []byte(`[3]`), time.Minute))

	value, found, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[1,2]`, string(value))

	require.NoError(t, c.Delete(ctx, "k1", "k2", "never-set"))

	_, found, err = c.Get(ctx, "k2")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, c.Delete(ctx))
}

func TestRedisCache_EntryExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	ttl := 30 * time.Second

	require.NoError(t, c.Set(ctx, "catalog:products:all", []byte(`[]`), ttl))

	mr.FastForward(ttl - time.Second)
	_, found, err := c.Get(ctx, "catalog:products:all")
	require.NoError(t, err)
	assert.True(t, found, "entry should still be live before its TTL")

	mr.FastForward(time.Second + time.Millisecond)
	_, found, err = c.Get(ctx, "catalog:products:all")
	require.NoError(t, err)
	assert.False(t, found, "entry should be gone after its TTL without explicit invalidation")
}

func TestRedisCache_UnreachableReturnsError(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	_, found, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, c.Ping(context.Background()))
}

func TestJSONHelpers(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	type row struct {
		Name string `json:"name"`
	}
	in := []row{{Name: "b"}, {Name: "a"}}
	require.NoError(t, SetJSON(ctx, c, "rows", in, time.Minute))

	var out []row
	found, err := GetJSON(ctx, c, "rows", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, in, out)

	require.NoError(t, mr.Set("rows", "{not json"))
	found, err = GetJSON(ctx, c, "rows", &out)
	assert.Error(t, err)
	assert.False(t, found)
}
