// Package rediscache caches executed-order responses in Redis so replayed
// deliveries and checkouts can be answered without a database transaction.
// The SQL store stays authoritative: a miss falls through to it.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	orderKeyPrefix = "potion-shop:order:"
	defaultTTL     = 24 * time.Hour
)

// Cache implements shop.OrderCache.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a Cache. ttl <= 0 uses 24h.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached response for orderID executed as kind. ok is false
// on a miss.
func (c *Cache) Get(ctx context.Context, kind, orderID string) ([]byte, bool, error) {
	resp, err := c.client.Get(ctx, orderKey(kind, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(resp) == 0 {
		resp = nil
	}
	return resp, true, nil
}

// Put stores response for orderID executed as kind. The first write wins.
func (c *Cache) Put(ctx context.Context, kind, orderID string, response []byte) error {
	return c.client.SetNX(ctx, orderKey(kind, orderID), response, c.ttl).Err()
}

func orderKey(kind, orderID string) string {
	return orderKeyPrefix + kind + ":" + orderID
}

// Ping checks the Redis connection.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
