package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, zap.NewNop()), mr
}

func TestStore_SetAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	type payload struct {
		Value int `json:"value"`
	}

	ok := store.Set(ctx, NamespaceSuggestions, time.Minute, payload{Value: 42}, "user1")
	require.True(t, ok)

	var out payload
	found := store.Get(ctx, NamespaceSuggestions, &out, "user1")
	require.True(t, found)
	require.Equal(t, 42, out.Value)
}

func TestStore_GetMissReturnsFalse(t *testing.T) {
	store, _ := newTestStore(t)
	var out map[string]any
	found := store.Get(context.Background(), NamespaceAnomalies, &out, "nobody")
	require.False(t, found)
}

func TestStore_ExpiredEntryIsMiss(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	store.Set(ctx, NamespaceUserContext, time.Second, "v", "u1")
	mr.FastForward(2 * time.Second)

	var out string
	require.False(t, store.Get(ctx, NamespaceUserContext, &out, "u1"))
}

func TestStore_BackingStoreErrorIsMissNotPanic(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close() // force every subsequent call to fail

	store := New(rdb, zap.NewNop())
	var out string
	require.False(t, store.Get(context.Background(), NamespaceSuggestions, &out, "u1"))
	require.False(t, store.Set(context.Background(), NamespaceSuggestions, time.Minute, "v", "u1"))
}

func TestFingerprint_OrderIndependent(t *testing.T) {
	a := Fingerprint(map[string]any{"b": 2, "a": 1})
	b := Fingerprint(map[string]any{"a": 1, "b": 2})
	require.Equal(t, a, b)
	require.Len(t, a, 12)
}

func TestFingerprint_DifferentValuesDiffer(t *testing.T) {
	a := Fingerprint(map[string]any{"a": 1})
	b := Fingerprint(map[string]any{"a": 2})
	require.NotEqual(t, a, b)
}
