package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/integration/database/mongo"
)

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestCredentialStore(t *testing.T) {
	t.Parallel()

	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL is not set")
	}

	ctx := context.Background()
	cfg := mongo.Config{
		ConnectionURL:        url,
		ConnectTimeout:       5 * time.Second,
		RetryAttempts:        1,
		RetryInterval:        time.Second,
		Database:             "voyager_test",
		CredentialCollection: "credentials_" + uuid.NewString(),
	}
	db, err := mongo.NewWithDatabase(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Collection(cfg.CredentialCollection).Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})
	require.NoError(t, mongo.Healthcheck(db.Client())(ctx))

	store := mongo.NewCredentialStore(db, cfg)

	empty, err := store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	set := credential.New(map[string]credential.Entry{
		credential.SessionMarker: {Value: `"ajax:1"`},
	})
	require.NoError(t, store.Write(ctx, "alice", set))
	require.NoError(t, store.Write(ctx, "alice", set))

	got, err := store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.Equal(set))

	require.NoError(t, store.Delete(ctx, "alice"))
	got, err = store.Read(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}
