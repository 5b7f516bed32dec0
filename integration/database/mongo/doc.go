// Package mongo connects to MongoDB and stores credential sets in a
// collection.
//
// New and NewWithDatabase retry the initial connection with exponential
// backoff, which covers MongoDB Atlas cold starts (5-8 seconds) and brief
// network interruptions during startup:
//
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	store := mongo.NewCredentialStore(db, cfg)
//	jar := credential.NewJar(store)
//
// Documents have the shape {_id: principal, data: <codec output>, updated_at}
// and are written with an upserting replace.
//
// # Configuration
//
//	MONGODB_URL                     (required by New)
//	MONGODB_CONNECT_TIMEOUT         (default: 10s)
//	MONGODB_MAX_POOL_SIZE           (default: 100)
//	MONGODB_MIN_POOL_SIZE           (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME      (default: 300s)
//	MONGODB_RETRY_WRITES            (default: true)
//	MONGODB_RETRY_READS             (default: true)
//	MONGODB_RETRY_ATTEMPTS          (default: 3)
//	MONGODB_RETRY_INTERVAL          (default: 5s)
//	MONGODB_DATABASE                (default: voyager)
//	MONGODB_CREDENTIAL_COLLECTION   (default: credentials)
//
// # Error Handling
//
//	ErrEmptyConnectionURL     - no URL configured
//	ErrFailedToConnectToMongo - all retry attempts are exhausted
//	ErrHealthcheckFailed      - the health check ping failed
package mongo
