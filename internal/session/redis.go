// Package session holds the redis-backed pending-attempt markers used when
// REDIS_ADDR is configured.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPending maps (session, provider) to an order id with a TTL so
// abandoned attempts expire on their own.
type RedisPending struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPending(client *redis.Client, ttl time.Duration) *RedisPending {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisPending{client: client, ttl: ttl}
}

func (r *RedisPending) Put(ctx context.Context, sessionID, provider, orderID string) error {
	key := markerKey(sessionID, provider)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, orderID, r.ttl)
	pipe.SAdd(ctx, orderKey(orderID), key)
	pipe.Expire(ctx, orderKey(orderID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put marker failed: %w", err)
	}
	return nil
}

// Get returns "" when no marker exists.
func (r *RedisPending) Get(ctx context.Context, sessionID, provider string) (string, error) {
	id, err := r.client.Get(ctx, markerKey(sessionID, provider)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get marker failed: %w", err)
	}
	return id, nil
}

// ClearOrder drops every marker that points at orderID.
func (r *RedisPending) ClearOrder(ctx context.Context, orderID string) error {
	keys, err := r.client.SMembers(ctx, orderKey(orderID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis list markers failed: %w", err)
	}
	var stale []string
	for _, k := range keys {
		// a newer attempt from the same session may own the key now
		if cur, err := r.client.Get(ctx, k).Result(); err == nil && cur == orderID {
			stale = append(stale, k)
		}
	}
	stale = append(stale, orderKey(orderID))
	if err := r.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("redis delete markers failed: %w", err)
	}
	return nil
}

func markerKey(sessionID, provider string) string {
	return fmt.Sprintf("pending:%s:%s", sessionID, provider)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("pending-order:%s", orderID)
}
