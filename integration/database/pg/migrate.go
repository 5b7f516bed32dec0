package pg

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dmitrymomot/voyagerkit/core/logger"
)

// CredentialTable is the table created by the bundled migrations.
const CredentialTable = "voyager_credentials"

// DefaultMigrationsTable keeps the migration versions of this package apart
// from the application's own goose history.
const DefaultMigrationsTable = "voyager_schema_migrations"

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the bundled SQL migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migrate applies the bundled migrations with goose. Versions are recorded in
// cfg.MigrationsTable. goose works on database/sql, so the pool is wrapped
// rather than opening a second set of connections.
func Migrate(ctx context.Context, pool *pgxpool.Pool, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	table := cfg.MigrationsTable
	if table == "" {
		table = DefaultMigrationsTable
	}

	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider("", db, Migrations(), goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			logger.Component("pg"),
			slog.String("source", r.Source.Path),
			logger.Duration(r.Duration),
		)
	}
	return nil
}
