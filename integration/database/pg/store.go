package pg

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

var _ credential.Store = (*CredentialStore)(nil)

const (
	selectCredentials = `SELECT data FROM ` + CredentialTable + ` WHERE principal = $1`
	upsertCredentials = `INSERT INTO ` + CredentialTable + ` (principal, data, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (principal) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	deleteCredentials = `DELETE FROM ` + CredentialTable + ` WHERE principal = $1`
)

// DB is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CredentialStore keeps one row per principal. Statements run in the
// transaction carried by the context (see WithTx) when there is one.
type CredentialStore struct {
	db     DB
	codec  credential.Codec
	logger *slog.Logger
}

// NewCredentialStore creates a store over db. The table must exist; run
// Migrate first.
func NewCredentialStore(db DB, opts ...credential.StoreOption) *CredentialStore {
	o := credential.ApplyStoreOptions(opts...)
	return &CredentialStore{
		db:     db,
		codec:  o.Codec,
		logger: o.Logger.With(logger.Component("pg-credential-store")),
	}
}

func (s *CredentialStore) Read(ctx context.Context, principal string) (credential.Set, error) {
	var data []byte
	err := s.conn(ctx).QueryRow(ctx, selectCredentials, principal).Scan(&data)
	if IsNotFoundError(err) {
		return credential.Set{}, nil
	}
	if err != nil {
		return credential.Set{}, err
	}
	return s.codec.Decode(data)
}

func (s *CredentialStore) Write(ctx context.Context, principal string, set credential.Set) error {
	data, err := s.codec.Encode(set)
	if err != nil {
		return err
	}
	_, err = s.conn(ctx).Exec(ctx, upsertCredentials, principal, data)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "credentials stored", logger.Principal(principal))
	return nil
}

// Delete removes principal's row.
func (s *CredentialStore) Delete(ctx context.Context, principal string) error {
	_, err := s.conn(ctx).Exec(ctx, deleteCredentials, principal)
	return err
}

func (s *CredentialStore) conn(ctx context.Context) DB {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return s.db
}
