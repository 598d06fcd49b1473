// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// response.go caches serialized public GET responses per collection. Keys
// carry the collection's write generation; a write bumps the generation and
// drops the entries of older ones. Cache failures are logged and treated as
// misses; they never fail a request.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// keyPrefix is the Valkey key prefix for cached responses.
	keyPrefix = "content:"

	// genPrefix holds per-collection write counters. It sits outside
	// keyPrefix so invalidation never deletes a counter.
	genPrefix = "content-gen:"

	// DefaultTTL is how long a response stays cached.
	DefaultTTL = 5 * time.Minute
)

// Responses is a Valkey-backed response cache.
type Responses struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResponses creates a response cache backed by the given Valkey client.
func NewResponses(client *redis.Client, ttl time.Duration) *Responses {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Responses{client: client, ttl: ttl}
}

// ListKey is the cache key for a collection listing at generation gen.
func ListKey(collection string, gen int64) string {
	return keyPrefix + collection + ":g" + strconv.FormatInt(gen, 10) + ":list"
}

// ItemKey is the cache key for one record looked up by slug at generation gen.
func ItemKey(collection string, gen int64, slug string) string {
	return keyPrefix + collection + ":g" + strconv.FormatInt(gen, 10) + ":item:" + slug
}

// Generation returns the write generation of collection. It must be read
// before the store so that a response built from a pre-write read is stored
// under a retired key. ok is false when the counter cannot be read.
func (c *Responses) Generation(ctx context.Context, collection string) (int64, bool) {
	gen, err := c.client.Get(ctx, genPrefix+collection).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		slog.Warn("response cache generation error", "collection", collection, "error", err)
		return 0, false
	}
	return gen, true
}

// Get returns the cached body for key. A miss or error returns false.
func (c *Responses) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		slog.Warn("response cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("response cache hit", "key", key)
	return val, true
}

// Set stores body under key with the configured TTL.
func (c *Responses) Set(ctx context.Context, key string, body []byte) {
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		slog.Warn("response cache set error", "key", key, "error", err)
	}
}

// Invalidate bumps the generation of collection and removes its cached
// responses.
func (c *Responses) Invalidate(ctx context.Context, collection string) {
	if err := c.client.Incr(ctx, genPrefix+collection).Err(); err != nil {
		slog.Warn("response cache generation bump error", "collection", collection, "error", err)
	}

	pattern := keyPrefix + collection + ":*"
	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			slog.Warn("response cache scan error", "collection", collection, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("response cache delete error", "collection", collection, "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	slog.Debug("response cache invalidated", "collection", collection, "deleted", deleted)
}
