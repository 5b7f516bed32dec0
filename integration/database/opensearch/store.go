package opensearch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
)

var _ credential.Store = (*CredentialStore)(nil)

type document struct {
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CredentialStore keeps one document per principal in a single index. The
// document ID is the path-escaped principal.
type CredentialStore struct {
	transport opensearchapi.Transport
	index     string
	codec     credential.Codec
	now       func() time.Time
	logger    *slog.Logger
}

// NewCredentialStore creates a store on cfg.CredentialIndex. transport is
// usually the *opensearch.Client returned by New.
func NewCredentialStore(transport opensearchapi.Transport, cfg Config, opts ...credential.StoreOption) *CredentialStore {
	index := cfg.CredentialIndex
	if index == "" {
		index = "voyager-credentials"
	}
	o := credential.ApplyStoreOptions(opts...)
	return &CredentialStore{
		transport: transport,
		index:     index,
		codec:     o.Codec,
		now:       time.Now,
		logger:    o.Logger.With(logger.Component("opensearch-credential-store")),
	}
}

// Read returns an empty set when the document or the index does not exist.
func (s *CredentialStore) Read(ctx context.Context, principal string) (credential.Set, error) {
	res, err := opensearchapi.GetRequest{
		Index:      s.index,
		DocumentID: docID(principal),
	}.Do(ctx, s.transport)
	if err != nil {
		return credential.Set{}, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return credential.Set{}, nil
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return credential.Set{}, err
	}
	if res.IsError() {
		return credential.Set{}, responseError("get", res.Status(), body)
	}
	if !gjson.GetBytes(body, "found").Bool() {
		return credential.Set{}, nil
	}

	data, err := base64.StdEncoding.DecodeString(gjson.GetBytes(body, "_source.data").String())
	if err != nil {
		return credential.Set{}, fmt.Errorf("decode credential document: %w", err)
	}
	return s.codec.Decode(data)
}

func (s *CredentialStore) Write(ctx context.Context, principal string, set credential.Set) error {
	data, err := s.codec.Encode(set)
	if err != nil {
		return err
	}
	doc, err := json.Marshal(document{Data: data, UpdatedAt: s.now().UTC()})
	if err != nil {
		return err
	}

	res, err := opensearchapi.IndexRequest{
		Index:      s.index,
		DocumentID: docID(principal),
		Body:       bytes.NewReader(doc),
	}.Do(ctx, s.transport)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return responseError("index", res.Status(), body)
	}

	s.logger.DebugContext(ctx, "credentials stored", logger.Principal(principal))
	return nil
}

// Delete removes principal's document. A missing document is not an error.
func (s *CredentialStore) Delete(ctx context.Context, principal string) error {
	res, err := opensearchapi.DeleteRequest{
		Index:      s.index,
		DocumentID: docID(principal),
	}.Do(ctx, s.transport)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(res.Body)
		return responseError("delete", res.Status(), body)
	}
	return nil
}

func docID(principal string) string {
	return url.PathEscape(principal)
}

func responseError(op, status string, body []byte) error {
	if reason := gjson.GetBytes(body, "error.reason").String(); reason != "" {
		return fmt.Errorf("opensearch %s: %s: %s", op, status, reason)
	}
	return fmt.Errorf("opensearch %s: %s", op, status)
}
