package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/integration/database/redis"
)

func TestConnect_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost:6379"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)

	_, err = redis.Connect(context.Background(), redis.Config{ConnectionURL: "redis://localhost:6379/not-a-db"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}

func TestConnect_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://127.0.0.1:1/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}

func connect(t *testing.T) redis.Config {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL is not set")
	}
	return redis.Config{
		ConnectionURL:  url,
		RetryAttempts:  1,
		RetryInterval:  time.Second,
		ConnectTimeout: 5 * time.Second,
		KeyPrefix:      "voyager:test:" + uuid.NewString() + ":",
		TTL:            time.Minute,
	}
}

func TestCredentialStore(t *testing.T) {
	t.Parallel()
	cfg := connect(t)

	ctx := context.Background()
	client, err := redis.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, redis.Healthcheck(client)(ctx))

	store := redis.NewCredentialStore(client, cfg)
	t.Cleanup(func() { _ = store.Delete(context.Background(), "alice") })

	empty, err := store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	set := credential.New(map[string]credential.Entry{
		credential.SessionMarker: {Value: `"ajax:1"`, ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second)},
	})
	require.NoError(t, store.Write(ctx, "alice", set))

	got, err := store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.Equal(set))

	ttl, err := client.TTL(ctx, store.Key("alice")).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, store.Delete(ctx, "alice"))
	got, err = store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCredentialStore_Key(t *testing.T) {
	t.Parallel()

	store := redis.NewCredentialStore(nil, redis.Config{KeyPrefix: "p:"})
	assert.Equal(t, "p:"+credential.Filename("alice"), store.Key("alice"))
}
