package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RedisCache serves readings from Redis and falls through to the wrapped
// provider on a miss. Redis being down never fails a fetch; the inner
// provider is asked instead.
type RedisCache struct {
	client *redis.Client
	inner  Provider
	ttl    time.Duration
	prefix string
	log    zerolog.Logger
}

func NewRedisCache(client *redis.Client, inner Provider, ttl time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		prefix: "sentiment",
		log:    log,
	}
}

func (c *RedisCache) key(symbol string, src Source) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, symbol, src)
}

func (c *RedisCache) Fetch(ctx context.Context, symbol string, src Source) (Reading, error) {
	key := c.key(symbol, src)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var r Reading
		if jerr := json.Unmarshal([]byte(raw), &r); jerr == nil {
			return r, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cached reading")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Str("key", key).Msg("sentiment cache read failed")
	}

	r, err := c.inner.Fetch(ctx, symbol, src)
	if err != nil {
		return Reading{}, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return r, nil
	}
	if err := c.client.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("sentiment cache write failed")
	}
	return r, nil
}
