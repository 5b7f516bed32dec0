// Package pg connects to PostgreSQL through a pgx pool and stores credential
// sets in a single table.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	jar := credential.NewJar(pg.NewCredentialStore(pool))
//
// # Migrations
//
// Migrate applies the SQL files embedded under migrations/ with goose. The
// pgx pool is wrapped as a database/sql handle for goose, and applied versions
// are recorded in their own table (PG_MIGRATIONS_TABLE) so the application's
// goose history is left alone. Migrations() exposes the files for tools that
// run them separately. The table holds one row per principal:
//
//	CREATE TABLE voyager_credentials (
//		principal  TEXT PRIMARY KEY,
//		data       BYTEA NOT NULL,
//		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	)
//
// data is the codec output, JSON by default or sealed with
// credential.SealedCodec. Writes are upserts.
//
// # Transactions
//
// A pgx.Tx stored in the context with WithTx is used instead of the pool, so
// credential writes can commit together with application data:
//
//	tx, err := pool.Begin(ctx)
//	...
//	err = store.Write(pg.WithTx(ctx, tx), "alice", set)
//
// # Configuration
//
//	PG_CONN_URL              (required by Connect)
//	PG_MAX_OPEN_CONNS        (default: 10)
//	PG_MAX_IDLE_CONNS        (default: 5)
//	PG_HEALTHCHECK_PERIOD    (default: 1m)
//	PG_MAX_CONN_IDLE_TIME    (default: 10m)
//	PG_MAX_CONN_LIFETIME     (default: 30m)
//	PG_RETRY_ATTEMPTS        (default: 3)
//	PG_RETRY_INTERVAL        (default: 5s)
//	PG_MIGRATIONS_TABLE      (default: voyager_schema_migrations)
//
// Connect retries with exponential backoff so a service can start before the
// database accepts connections. Healthcheck pings the pool.
package pg
