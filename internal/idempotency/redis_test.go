package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisGuard(client, time.Hour), mr
}

func TestAcquireOnce(t *testing.T) {
	g, mr := setupGuard(t)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Acquire(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists(key("c1")))
	assert.Equal(t, time.Hour, mr.TTL(key("c1")))
}

func TestReleaseAllowsRetry(t *testing.T) {
	g, _ := setupGuard(t)
	ctx := context.Background()

	_, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, g.Release(ctx, "c1"))

	ok, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, g.Release(ctx, "unknown"))
}

func TestPlacedStaysClaimed(t *testing.T) {
	g, _ := setupGuard(t)
	ctx := context.Background()

	_, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	require.NoError(t, g.MarkPlaced(ctx, "c1", "ord-9"))
	require.NoError(t, g.Release(ctx, "c1"))

	ok, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	id, placed, err := g.PlacedOrder(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, placed)
	assert.Equal(t, "ord-9", id)
}

func TestTTLExpiry(t *testing.T) {
	g, mr := setupGuard(t)
	ctx := context.Background()

	_, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	ok, err := g.Acquire(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisDown(t *testing.T) {
	g, mr := setupGuard(t)
	mr.Close()
	_, err := g.Acquire(context.Background(), "c1")
	assert.Error(t, err)
}
