package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

var _ credential.Store = (*CredentialStore)(nil)

type document struct {
	Principal string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// CredentialStore keeps one document per principal, keyed by principal.
type CredentialStore struct {
	coll   *mongo.Collection
	codec  credential.Codec
	now    func() time.Time
	logger *slog.Logger
}

// NewCredentialStore creates a store on cfg.CredentialCollection of db.
func NewCredentialStore(db *mongo.Database, cfg Config, opts ...credential.StoreOption) *CredentialStore {
	name := cfg.CredentialCollection
	if name == "" {
		name = "credentials"
	}
	o := credential.ApplyStoreOptions(opts...)
	return &CredentialStore{
		coll:   db.Collection(name),
		codec:  o.Codec,
		now:    time.Now,
		logger: o.Logger.With(logger.Component("mongo-credential-store")),
	}
}

func (s *CredentialStore) Read(ctx context.Context, principal string) (credential.Set, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: principal}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return credential.Set{}, nil
	}
	if err != nil {
		return credential.Set{}, err
	}
	return s.codec.Decode(doc.Data)
}

func (s *CredentialStore) Write(ctx context.Context, principal string, set credential.Set) error {
	data, err := s.codec.Encode(set)
	if err != nil {
		return err
	}
	doc := document{Principal: principal, Data: data, UpdatedAt: s.now().UTC()}
	_, err = s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: principal}},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "credentials stored", logger.Principal(principal))
	return nil
}

// Delete removes principal's document.
func (s *CredentialStore) Delete(ctx context.Context, principal string) error {
	_, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: principal}})
	return err
}
