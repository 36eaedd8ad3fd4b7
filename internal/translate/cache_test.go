package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, inner Translator, ttl time.Duration) (*Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCached(inner, client, ttl, nil), mr
}

func TestCached_HitSkipsInner(t *testing.T) {
	inner := &stubTranslator{name: "inner", out: "Condo"}
	cache, mr := newCache(t, inner, time.Hour)
	ctx := context.Background()

	for range 3 {
		out, err := cache.Translate(ctx, "คอนโด", English)
		require.NoError(t, err)
		assert.Equal(t, "Condo", out)
	}
	assert.Equal(t, 1, inner.calls)

	key := cacheKey("คอนโด", English)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestCached_UntranslatedIsNotStored(t *testing.T) {
	inner := &stubTranslator{name: "inner", out: "คอนโด"}
	cache, mr := newCache(t, inner, 0)

	_, err := cache.Translate(context.Background(), "คอนโด", English)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cacheKey("คอนโด", English)))
}

func TestCached_InnerErrorPropagates(t *testing.T) {
	inner := &stubTranslator{name: "inner", err: errors.New("down")}
	cache, _ := newCache(t, inner, 0)

	_, err := cache.Translate(context.Background(), "คอนโด", English)
	assert.Error(t, err)
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	inner := &stubTranslator{name: "inner", out: "Condo"}
	cache, mr := newCache(t, inner, 0)
	mr.Close()

	out, err := cache.Translate(context.Background(), "คอนโด", English)
	require.NoError(t, err)
	assert.Equal(t, "Condo", out)
}

func TestCacheKey_SeparatesTargets(t *testing.T) {
	assert.NotEqual(t, cacheKey("a", "en"), cacheKey("a", "ja"))
	assert.Contains(t, cacheKey("a", "en"), "sniper:translate:en:")
}
