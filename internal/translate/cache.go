package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonathan/npa-sniper/internal/logging"
)

const cacheKeyPrefix = "sniper:translate:"

// Cached memoizes another translator in Redis. Cache faults are logged and bypassed.
type Cached struct {
	inner  Translator
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewCached wraps inner with a Redis cache. A non-positive ttl keeps entries forever.
func NewCached(inner Translator, client *redis.Client, ttl time.Duration, logger logging.Logger) *Cached {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cached{inner: inner, client: client, ttl: max(0, ttl), logger: logger}
}

// Translate implements Translator. Only translations that differ from the input are cached.
func (c *Cached) Translate(ctx context.Context, text, target string) (string, error) {
	key := cacheKey(text, target)

	hit, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return hit, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("translation cache read failed", logging.Error(err))
	}

	out, err := c.inner.Translate(ctx, text, target)
	if err != nil {
		return out, err
	}
	if out != "" && out != text {
		if err := c.client.Set(ctx, key, out, c.ttl).Err(); err != nil {
			c.logger.Warn("translation cache write failed", logging.Error(err))
		}
	}
	return out, nil
}

func cacheKey(text, target string) string {
	sum := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + target + ":" + hex.EncodeToString(sum[:])
}
