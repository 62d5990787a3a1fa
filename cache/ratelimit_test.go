package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRateLimiter_AllowsUnderLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRateLimiter(rdb, zap.NewNop())

	for i := 1; i <= 3; i++ {
		allowed, count := rl.Allow(context.Background(), "user1", 60, 5)
		require.True(t, allowed)
		require.Equal(t, i, count)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRateLimiter(rdb, zap.NewNop())

	var lastAllowed bool
	var lastCount int
	for i := 0; i < 5; i++ {
		lastAllowed, lastCount = rl.Allow(context.Background(), "user1", 60, 3)
	}
	require.False(t, lastAllowed)
	require.Equal(t, 3, lastCount)
}

func TestRateLimiter_FailsOpenOnStoreError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	rl := NewRateLimiter(rdb, zap.NewNop())
	allowed, count := rl.Allow(context.Background(), "user1", 60, 1)
	require.True(t, allowed)
	require.Equal(t, 0, count)
}

func TestRateLimiter_SeparateUsersIndependent(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rl := NewRateLimiter(rdb, zap.NewNop())

	allowed1, _ := rl.Allow(context.Background(), "user1", 60, 1)
	allowed2, _ := rl.Allow(context.Background(), "user2", 60, 1)
	require.True(t, allowed1)
	require.True(t, allowed2)
}
