package guauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, defaultConfig().Session)

	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	require.NoError(t, store.Save(ctx, Session{Token: "tok", UserID: "u1"}))

	// Keys are prefix-scoped.
	assert.True(t, mr.Exists("guauth:authToken"))
	assert.True(t, mr.Exists("guauth:currentUserId"))

	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Session{Token: "tok", UserID: "u1"}, s)

	require.NoError(t, store.Clear(ctx))
	s, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}

func TestRedisSessionStorePartialPair(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, defaultConfig().Session)

	// A token without its user ID is not a session.
	mr.Set("guauth:authToken", "tok")
	s, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, s.Authenticated())
}
