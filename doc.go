// Package voyagerkit is a client-side session layer for a remote messaging
// service that is reachable only through cookie authentication and one
// shared server-push event stream.
//
// # Package Organization
//
// The library is organized into three categories:
//
//   - Core: the credential cache, the connection registry and the session built on them
//   - Utilities: standalone concurrency and encryption helpers
//   - Integrations: durable credential stores backed by databases and object storage
//
// # Core Packages
//
//	github.com/dmitrymomot/voyagerkit/core/auth       - Password login procedure returning a credential set
//	github.com/dmitrymomot/voyagerkit/core/cache      - LRU cache and per-key single-flight cache of async loads
//	github.com/dmitrymomot/voyagerkit/core/config     - Type-safe environment variable loading
//	github.com/dmitrymomot/voyagerkit/core/credential - Credential sets, the per-principal Jar, stores and codecs
//	github.com/dmitrymomot/voyagerkit/core/logger     - Structured logging built on slog
//	github.com/dmitrymomot/voyagerkit/core/realtime   - Shared push connection with listener fan-out and health checks
//	github.com/dmitrymomot/voyagerkit/core/session    - Authenticated requests, profile lookup and event subscriptions
//	github.com/dmitrymomot/voyagerkit/core/transport  - HTTP transport with SSE and WebSocket push streams
//
// # Utility Packages
//
//	github.com/dmitrymomot/voyagerkit/pkg/async   - Futures, promises and a serial executor
//	github.com/dmitrymomot/voyagerkit/pkg/secrets - Authenticated encryption with derived keys
//
// # Integration Packages
//
//	github.com/dmitrymomot/voyagerkit/integration/database/mongo      - MongoDB credential store
//	github.com/dmitrymomot/voyagerkit/integration/database/opensearch - OpenSearch credential store
//	github.com/dmitrymomot/voyagerkit/integration/database/pg         - PostgreSQL credential store with goose migrations
//	github.com/dmitrymomot/voyagerkit/integration/database/redis      - Redis credential store with retry logic
//	github.com/dmitrymomot/voyagerkit/integration/storage/s3          - S3-compatible credential store
//
// # Example Usage
//
//	client, err := voyagerkit.NewFromEnv(ctx, "alice@example.com",
//		voyagerkit.WithPassword(os.Getenv("VOYAGER_PASSWORD")),
//		voyagerkit.WithLogger(logger.New(logger.WithDevelopment("voyager"))),
//	)
//	if err != nil {
//		return err
//	}
//	defer client.Close(ctx)
//
//	me, err := client.Me(ctx)
//	if err != nil {
//		return err
//	}
//	log.Printf("logged in as %s", me.FullName())
//
//	unsubscribe, err := client.OnEvent(ctx, session.KindDecoratedEvent, func(ev realtime.Event) {
//		log.Println(ev.Get("com\\.linkedin\\.realtimefrontend\\.DecoratedEvent.topic"))
//	})
//	if err != nil {
//		return err
//	}
//	defer unsubscribe()
//
// Every credential set is cached per account: concurrent callers share one
// login, and a rejected session (HTTP 302) clears the cache and logs in again
// once. All listeners of an account share a single push connection, opened
// by the first listener and closed with the last.
package voyagerkit
