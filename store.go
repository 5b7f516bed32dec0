package voyagerkit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/integration/database/mongo"
	"github.com/dmitrymomot/voyagerkit/integration/database/opensearch"
	"github.com/dmitrymomot/voyagerkit/integration/database/pg"
	"github.com/dmitrymomot/voyagerkit/integration/database/redis"
	"github.com/dmitrymomot/voyagerkit/integration/storage/s3"
)

// Closer releases a store backend connection.
type Closer func(ctx context.Context) error

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

func nop(context.Context) error { return nil }

// Backend is an opened credential store with the lifecycle of its connection.
type Backend struct {
	Store       credential.Store
	Close       Closer
	Healthcheck Check
}

// OpenBackend builds the credential store selected by cfg.Store, connecting
// to its database or bucket when it has one. A configured CredentialKey
// switches the store to the sealed codec.
func OpenBackend(ctx context.Context, cfg Config, log *slog.Logger) (Backend, error) {
	opts := []credential.StoreOption{credential.WithStoreLogger(log)}

	key, err := cfg.MasterKey()
	if err != nil {
		return Backend{}, err
	}
	if key != nil {
		codec, err := credential.NewSealedCodec(key)
		if err != nil {
			return Backend{}, err
		}
		opts = append(opts, credential.WithCodec(codec))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Store)) {
	case StoreNone:
		return Backend{Store: credential.EphemeralStore{}, Close: nop, Healthcheck: nop}, nil

	case StoreMemory, "":
		return Backend{Store: credential.NewMemoryStore(), Close: nop, Healthcheck: nop}, nil

	case StoreFile:
		store, err := credential.NewFileStore(cfg.CredentialDir, opts...)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: store, Close: nop, Healthcheck: nop}, nil

	case StoreRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return Backend{}, err
		}
		return Backend{
			Store:       redis.NewCredentialStore(client, cfg.Redis, opts...),
			Close:       func(context.Context) error { return client.Close() },
			Healthcheck: redis.Healthcheck(client),
		}, nil

	case StorePostgres:
		pool, err := pg.Connect(ctx, cfg.Postgres)
		if err != nil {
			return Backend{}, err
		}
		if err := pg.Migrate(ctx, pool, cfg.Postgres, log); err != nil {
			pool.Close()
			return Backend{}, err
		}
		return Backend{
			Store: pg.NewCredentialStore(pool, opts...),
			Close: func(context.Context) error {
				pool.Close()
				return nil
			},
			Healthcheck: pg.Healthcheck(pool),
		}, nil

	case StoreMongo:
		db, err := mongo.NewWithDatabase(ctx, cfg.Mongo)
		if err != nil {
			return Backend{}, err
		}
		return Backend{
			Store:       mongo.NewCredentialStore(db, cfg.Mongo, opts...),
			Close:       func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
			Healthcheck: mongo.Healthcheck(db.Client()),
		}, nil

	case StoreS3:
		store, err := s3.New(ctx, cfg.S3, s3.WithStoreOptions(opts...))
		if err != nil {
			return Backend{}, err
		}
		return Backend{Store: store, Close: nop, Healthcheck: nop}, nil

	case StoreOpenSearch:
		client, err := opensearch.New(ctx, cfg.OpenSearch)
		if err != nil {
			return Backend{}, err
		}
		return Backend{
			Store:       opensearch.NewCredentialStore(client, cfg.OpenSearch, opts...),
			Close:       nop,
			Healthcheck: opensearch.Healthcheck(client),
		}, nil

	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
	}
}
