package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RefreshStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRefreshStore(client), mr
}

func TestRefreshStoreAddHasRemove(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Add(ctx, "tok-1", time.Now().Add(time.Hour)))

	ok, err := store.Has(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	digest := Digest("tok-1")
	assert.True(t, mr.Exists(RefreshKey(digest)))
	assert.False(t, mr.Exists(KeyPrefixRefresh+"tok-1"), "raw token must not be used as key")
	members, err := mr.SMembers(AllRefreshKey())
	require.NoError(t, err)
	assert.Equal(t, []string{digest}, members)

	require.NoError(t, store.Remove(ctx, "tok-1"))
	ok, err = store.Has(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRefreshStoreRemoveAbsent(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Remove(context.Background(), "never-added"))
}

func TestRefreshStoreTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Add(ctx, "short", time.Now().Add(10*time.Second)))
	require.NoError(t, store.Add(ctx, "already-expired", time.Now().Add(-time.Hour)))

	assert.InDelta(t, 10*time.Second, mr.TTL(RefreshKey(Digest("short"))), float64(2*time.Second))
	assert.Equal(t, minTTL, mr.TTL(RefreshKey(Digest("already-expired"))))

	mr.FastForward(11 * time.Second)

	ok, err := store.Has(ctx, "short")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshStoreIteratePrunesExpired(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Add(ctx, "long", time.Now().Add(time.Hour)))
	require.NoError(t, store.Add(ctx, "short", time.Now().Add(2*time.Second)))
	mr.FastForward(3 * time.Second)

	var seen []string
	require.NoError(t, store.Iterate(ctx, func(token string) bool {
		seen = append(seen, token)
		return true
	}))

	assert.Equal(t, []string{"long"}, seen)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRefreshStoreIterateRemoveDuringWalk(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	for _, tok := range []string{"a", "b", "c"} {
		require.NoError(t, store.Add(ctx, tok, time.Now().Add(time.Hour)))
	}

	require.NoError(t, store.Iterate(ctx, func(token string) bool {
		require.NoError(t, store.Remove(ctx, token))
		return true
	}))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
