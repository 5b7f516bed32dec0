// Package redis connects to Redis and stores credential sets in it.
//
// Connect validates the URL (redis:// or rediss://), then pings the server
// with exponential backoff until it answers, so services can start while
// Redis is still coming up:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewCredentialStore(client, cfg)
//	jar := credential.NewJar(store)
//
// Each principal's set lives under KeyPrefix followed by the md5 digest of the
// principal. A non-zero TTL lets stale sets expire when nothing rewrites them;
// the jar rewrites a set on every login.
//
// # Configuration
//
//	REDIS_URL                 (default: redis://localhost:6379/0)
//	REDIS_RETRY_ATTEMPTS      (default: 3)
//	REDIS_RETRY_INTERVAL      (default: 5s)
//	REDIS_CONNECT_TIMEOUT     (default: 30s)
//	REDIS_CREDENTIAL_PREFIX   (default: voyager:credentials:)
//	REDIS_CREDENTIAL_TTL      (default: 0, no expiry)
//
// # Health Checking
//
// Healthcheck returns a check suitable for readiness checks:
//
//	check := redis.Healthcheck(client)
//	if err := check(ctx); err != nil {
//		// errors.Is(err, redis.ErrHealthcheckFailed)
//	}
//
// Errors from Connect and the check wrap ErrEmptyConnectionURL,
// ErrFailedToParseRedisConnString, ErrRedisNotReady or ErrHealthcheckFailed.
package redis
