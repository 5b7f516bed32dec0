package redis

import "time"

// Config holds the connection and store settings.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"REDIS_CREDENTIAL_PREFIX" envDefault:"voyager:credentials:"`
	// TTL bounds how long a stored set survives without being rewritten. Zero keeps it forever.
	TTL time.Duration `env:"REDIS_CREDENTIAL_TTL" envDefault:"0"`
}
