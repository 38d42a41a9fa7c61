// Package cache holds the short-TTL counters backing UI badges. Unread counts
// are polled every few seconds by every active client, so they are served
// from Redis and recomputed from the store only on miss.
package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key prefixes for the cached badge counters.
const (
	KeyUnreadMessages      = "unread:messages"
	KeyUnreadNotifications = "unread:notifications"
)

// CountFunc computes the authoritative count from the store.
type CountFunc func(ctx context.Context, userID int) (int, error)

// CountCache caches per-user counters. A nil cache, or one built without a
// Redis client, passes every read straight through to the store.
type CountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCountCache constructs a CountCache. client may be nil.
func NewCountCache(client *redis.Client, ttl time.Duration) *CountCache {
	return &CountCache{client: client, ttl: ttl}
}

// Get returns the cached count, falling back to count on miss. Cache errors
// degrade to the store; they are never surfaced to the caller.
func (c *CountCache) Get(ctx context.Context, prefix string, userID int, count CountFunc) (int, error) {
	if c == nil || c.client == nil {
		return count(ctx, userID)
	}

	key := fmt.Sprintf("%s:%d", prefix, userID)
	if cached, err := c.client.Get(ctx, key).Int(); err == nil {
		return cached, nil
	}

	n, err := count(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, n, c.ttl).Err(); err != nil {
		log.Printf("unread cache set failed: %v", err)
	}
	return n, nil
}

// Invalidate drops the cached counters for a user after a write that changes
// their unread state.
func (c *CountCache) Invalidate(ctx context.Context, userID int, prefixes ...string) {
	if c == nil || c.client == nil {
		return
	}
	keys := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		keys = append(keys, fmt.Sprintf("%s:%d", prefix, userID))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("unread cache invalidate failed: %v", err)
	}
}
