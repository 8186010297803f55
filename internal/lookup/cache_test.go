package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/lookup"
)

type countingSource struct {
	aliases []string
	err     error
	calls   int
}

func (c *countingSource) Aliases(context.Context) ([]string, error) {
	c.calls++
	return c.aliases, c.err
}

func newCache(t *testing.T, next lookup.Source) (*lookup.CachedSource, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return lookup.NewCachedSource(next, client, "field", time.Minute, infralogger.NewNop(), nil), mr
}

func TestCachedSource_MissThenHit(t *testing.T) {
	t.Parallel()

	next := &countingSource{aliases: []string{"foo", "bar"}}
	cache, mr := newCache(t, next)
	ctx := context.Background()

	first, err := cache.Aliases(ctx)
	require.NoError(t, err)
	second, err := cache.Aliases(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"foo", "bar"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	stored, err := mr.Get(lookup.CacheKey("field"))
	require.NoError(t, err)
	assert.JSONEq(t, `["foo","bar"]`, stored)
	assert.Equal(t, time.Minute, mr.TTL(lookup.CacheKey("field")))
}

func TestCachedSource_CachesEmptySet(t *testing.T) {
	t.Parallel()

	next := &countingSource{}
	cache, mr := newCache(t, next)

	aliases, err := cache.Aliases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, aliases)

	stored, err := mr.Get(lookup.CacheKey("field"))
	require.NoError(t, err)
	assert.Equal(t, "[]", stored)
}

func TestCachedSource_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	next := &countingSource{aliases: []string{"foo"}}
	cache, mr := newCache(t, next)
	ctx := context.Background()

	_, _ = cache.Aliases(ctx)
	mr.FastForward(2 * time.Minute)
	_, _ = cache.Aliases(ctx)

	assert.Equal(t, 2, next.calls)
}

func TestCachedSource_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	next := &countingSource{err: errors.New("db down")}
	cache, mr := newCache(t, next)

	_, err := cache.Aliases(context.Background())
	require.Error(t, err)
	assert.False(t, mr.Exists(lookup.CacheKey("field")))
}

func TestCachedSource_RedisDownFallsBack(t *testing.T) {
	t.Parallel()

	next := &countingSource{aliases: []string{"foo"}}
	cache, mr := newCache(t, next)
	mr.Close()

	aliases, err := cache.Aliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, aliases)
}

func TestCachedSource_MalformedEntryIsReplaced(t *testing.T) {
	t.Parallel()

	next := &countingSource{aliases: []string{"foo"}}
	cache, mr := newCache(t, next)
	require.NoError(t, mr.Set(lookup.CacheKey("field"), "{not-json"))

	aliases, err := cache.Aliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"foo"}, aliases)

	stored, _ := mr.Get(lookup.CacheKey("field"))
	assert.JSONEq(t, `["foo"]`, stored)
}

func TestCachedSource_Invalidate(t *testing.T) {
	t.Parallel()

	next := &countingSource{aliases: []string{"foo"}}
	cache, mr := newCache(t, next)
	ctx := context.Background()

	_, _ = cache.Aliases(ctx)
	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(lookup.CacheKey("field")))

	_, _ = cache.Aliases(ctx)
	assert.Equal(t, 2, next.calls)
}
