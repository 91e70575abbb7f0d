package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	pendingValue = "pending"
	defaultTTL   = 24 * time.Hour
)

// RedisGuard keeps one key per checkout so an order is submitted at most once.
type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Acquire claims checkoutID. It returns false when the checkout is already in flight or placed.
func (g *RedisGuard) Acquire(ctx context.Context, checkoutID string) (bool, error) {
	ok, err := g.client.SetNX(ctx, key(checkoutID), pendingValue, g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

// Release drops a pending claim so the checkout can be retried. Placed checkouts stay claimed.
func (g *RedisGuard) Release(ctx context.Context, checkoutID string) error {
	k := key(checkoutID)
	v, err := g.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}
	if v != pendingValue {
		return nil
	}
	if err := g.client.Del(ctx, k).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// MarkPlaced records the order id for checkoutID.
func (g *RedisGuard) MarkPlaced(ctx context.Context, checkoutID, orderID string) error {
	if err := g.client.Set(ctx, key(checkoutID), "order:"+orderID, g.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// PlacedOrder returns the order id recorded for checkoutID, if any.
func (g *RedisGuard) PlacedOrder(ctx context.Context, checkoutID string) (string, bool, error) {
	v, err := g.client.Get(ctx, key(checkoutID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	id, ok := strings.CutPrefix(v, "order:")
	return id, ok, nil
}

func key(checkoutID string) string {
	return fmt.Sprintf("checkout:submit:%s", checkoutID)
}
