// Package opensearch creates an OpenSearch client and stores credential sets
// as documents in one index.
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	jar := credential.NewJar(opensearch.NewCredentialStore(client, cfg))
//
// New checks the cluster before returning, so a broken client is never handed
// out. Healthcheck requests the cluster info and fits the same readiness list
// as the other stores.
//
// Documents are {data: <codec output>, updated_at} with the path-escaped
// principal as ID. Reads use the realtime get API, so a write is visible to
// the next read without a refresh. A missing index or document reads as an
// empty set.
//
// The store takes an opensearchapi.Transport rather than the client itself;
// *opensearch.Client satisfies it.
//
// # Configuration
//
//	OPENSEARCH_ADDRESSES          (required by New, comma separated)
//	OPENSEARCH_USERNAME
//	OPENSEARCH_PASSWORD
//	OPENSEARCH_MAX_RETRIES        (default: 3)
//	OPENSEARCH_DISABLE_RETRY      (default: false)
//	OPENSEARCH_CREDENTIAL_INDEX   (default: voyager-credentials)
//
// # Error Handling
//
//	ErrEmptyAddresses    - no addresses configured
//	ErrConnectionFailed  - the client could not be created from the config
//	ErrHealthcheckFailed - the cluster is unreachable or answered with an error
package opensearch
