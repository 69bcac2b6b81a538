package statestore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisStore creates a test Redis store with miniredis
func setupRedisStore(t *testing.T, opts ...RedisOption) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisStore(client, opts...)
	return store, mr
}

func TestRedisStore_LoadNotFound(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, err := store.LoadSettings(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_InvalidProvider(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.LoadSettings(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidProvider)
	assert.ErrorIs(t, store.SaveSettings(ctx, "", nil), ErrInvalidProvider)
	assert.ErrorIs(t, store.DeleteSettings(ctx, ""), ErrInvalidProvider)
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSettings(ctx, "cosyvoice", map[string]any{
		"provider_endpoint": "http://tts:9880",
		"format":            "mp3",
		"streaming":         true,
	}))

	values, err := store.LoadSettings(ctx, "cosyvoice")
	require.NoError(t, err)
	assert.Equal(t, "http://tts:9880", values["provider_endpoint"])
	assert.Equal(t, "mp3", values["format"])
	assert.Equal(t, true, values["streaming"])

	assert.True(t, mr.Exists("cosyvoice:settings:cosyvoice"))
	members, err := mr.SMembers("cosyvoice:providers")
	require.NoError(t, err)
	assert.Equal(t, []string{"cosyvoice"}, members)
}

func TestRedisStore_CustomPrefix(t *testing.T) {
	store, mr := setupRedisStore(t, WithPrefix("bridge"))

	require.NoError(t, store.SaveSettings(context.Background(), "cosyvoice", map[string]any{"format": "wav"}))
	assert.True(t, mr.Exists("bridge:settings:cosyvoice"))
}

func TestRedisStore_TTL(t *testing.T) {
	store, mr := setupRedisStore(t, WithTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, store.SaveSettings(ctx, "cosyvoice", map[string]any{"format": "wav"}))
	assert.Equal(t, time.Hour, mr.TTL("cosyvoice:settings:cosyvoice"))

	mr.FastForward(2 * time.Hour)

	_, err := store.LoadSettings(ctx, "cosyvoice")
	assert.ErrorIs(t, err, ErrNotFound)

	providers, err := store.ListProviders(ctx)
	require.NoError(t, err)
	assert.Empty(t, providers)
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSettings(ctx, "cosyvoice", map[string]any{"format": "wav"}))
	require.NoError(t, store.DeleteSettings(ctx, "cosyvoice"))

	_, err := store.LoadSettings(ctx, "cosyvoice")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSettings(ctx, "cosyvoice"), ErrNotFound)
}

func TestRedisStore_ListProviders(t *testing.T) {
	store, _ := setupRedisStore(t)
	ctx := context.Background()

	for _, p := range []string{"zeta", "cosyvoice", "alpha"} {
		require.NoError(t, store.SaveSettings(ctx, p, map[string]any{}))
	}

	providers, err := store.ListProviders(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "cosyvoice", "zeta"}, providers)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("cosyvoice:settings:cosyvoice", "{not json"))

	_, err := store.LoadSettings(context.Background(), "cosyvoice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectionFailure(t *testing.T) {
	store, mr := setupRedisStore(t)
	mr.Close()

	err := store.SaveSettings(context.Background(), "cosyvoice", map[string]any{"format": "wav"})
	assert.Error(t, err)
}
