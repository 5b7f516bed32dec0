package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

var _ credential.Store = (*CredentialStore)(nil)

// CredentialStore keeps each principal's set under one string key.
type CredentialStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	codec  credential.Codec
	logger *slog.Logger
}

// NewCredentialStore creates a store on client using cfg.KeyPrefix and cfg.TTL.
func NewCredentialStore(client redis.UniversalClient, cfg Config, opts ...credential.StoreOption) *CredentialStore {
	o := credential.ApplyStoreOptions(opts...)
	return &CredentialStore{
		client: client,
		prefix: cfg.KeyPrefix,
		ttl:    cfg.TTL,
		codec:  o.Codec,
		logger: o.Logger.With(logger.Component("redis-credential-store")),
	}
}

// Key returns the key holding principal's set.
func (s *CredentialStore) Key(principal string) string {
	return s.prefix + credential.Filename(principal)
}

func (s *CredentialStore) Read(ctx context.Context, principal string) (credential.Set, error) {
	data, err := s.client.Get(ctx, s.Key(principal)).Bytes()
	if errors.Is(err, redis.Nil) {
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
	if err := s.client.Set(ctx, s.Key(principal), data, s.ttl).Err(); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "credentials stored", logger.Principal(principal))
	return nil
}

// Delete removes principal's key.
func (s *CredentialStore) Delete(ctx context.Context, principal string) error {
	return s.client.Del(ctx, s.Key(principal)).Err()
}
