package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
)

const cacheKeyPrefix = "sponsored-articles:aliases:"

// Cache results.
const (
	cacheHit   = "hit"
	cacheMiss  = "miss"
	cacheError = "error"
)

// CacheKey returns the Redis key for a lookup mode.
func CacheKey(mode string) string {
	return cacheKeyPrefix + mode
}

// CachedSource serves aliases from Redis and falls back to next on a miss
// or any Redis failure.
type CachedSource struct {
	next    Source
	client  *redis.Client
	key     string
	ttl     time.Duration
	logger  infralogger.Logger
	metrics *metrics.Metrics
}

// NewCachedSource wraps next with a Redis cache for mode.
func NewCachedSource(
	next Source,
	client *redis.Client,
	mode string,
	ttl time.Duration,
	log infralogger.Logger,
	m *metrics.Metrics,
) *CachedSource {
	return &CachedSource{
		next:    next,
		client:  client,
		key:     CacheKey(mode),
		ttl:     ttl,
		logger:  log,
		metrics: m,
	}
}

// Aliases implements Source.
func (c *CachedSource) Aliases(ctx context.Context) ([]string, error) {
	start := time.Now()
	cached, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var aliases []string
		if jsonErr := json.Unmarshal(cached, &aliases); jsonErr == nil {
			c.metrics.Cache(cacheHit)
			c.metrics.Lookup(metrics.SourceCache, time.Since(start), nil)
			return aliases, nil
		}
		c.logger.Warn("Discarding malformed alias cache entry", infralogger.String("key", c.key))
		c.metrics.Cache(cacheError)
	case errors.Is(err, redis.Nil):
		c.metrics.Cache(cacheMiss)
	default:
		c.metrics.Cache(cacheError)
		c.metrics.Lookup(metrics.SourceCache, time.Since(start), err)
		c.logger.Warn("Alias cache read failed, using database",
			infralogger.String("key", c.key),
			infralogger.Error(err),
		)
	}

	aliases, err := c.next.Aliases(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, aliases)
	return aliases, nil
}

func (c *CachedSource) store(ctx context.Context, aliases []string) {
	if aliases == nil {
		aliases = []string{}
	}
	payload, err := json.Marshal(aliases)
	if err != nil {
		return
	}
	if err = c.client.Set(ctx, c.key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Alias cache write failed",
			infralogger.String("key", c.key),
			infralogger.Error(err),
		)
	}
}

// Invalidate drops the cached alias set.
func (c *CachedSource) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
