package kv

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client)
}

func TestRedisGetMissing(t *testing.T) {
	store := newTestRedis(t)

	value, ok, err := store.Get(context.Background(), "system/pagePermissions")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestRedisSetThenGet(t *testing.T) {
	ctx := context.Background()
	store := newTestRedis(t)

	require.NoError(t, store.Set(ctx, "system/initialized", []byte(`{"initialized":true}`)))

	value, ok, err := store.Get(ctx, "system/initialized")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"initialized":true}`, string(value))
}

func TestRedisWatchReceivesPublishedValue(t *testing.T) {
	ctx := context.Background()
	store := newTestRedis(t)

	received := make(chan string, 1)
	cancel, err := store.Watch(ctx, "system/pagePermissions", func(value []byte, exists bool, err error) {
		assert.NoError(t, err)
		assert.True(t, exists)
		received <- string(value)
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, store.Set(ctx, "system/pagePermissions", []byte(`{"users":{"path":"/users","roles":["admin"]}}`)))

	select {
	case got := <-received:
		assert.JSONEq(t, `{"users":{"path":"/users","roles":["admin"]}}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch delivery")
	}
}

func TestRedisWatchCancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := newTestRedis(t)

	calls := make(chan struct{}, 4)
	cancel, err := store.Watch(ctx, "k", func([]byte, bool, error) {
		calls <- struct{}{}
	})
	require.NoError(t, err)
	cancel()
	cancel()

	require.NoError(t, store.Set(ctx, "k", []byte(`1`)))
	select {
	case <-calls:
		t.Fatal("watcher called after cancel")
	case <-time.After(100 * time.Millisecond):
	}
}
