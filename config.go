package voyagerkit

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/voyagerkit/core/config"
	"github.com/dmitrymomot/voyagerkit/integration/database/mongo"
	"github.com/dmitrymomot/voyagerkit/integration/database/opensearch"
	"github.com/dmitrymomot/voyagerkit/integration/database/pg"
	"github.com/dmitrymomot/voyagerkit/integration/database/redis"
	"github.com/dmitrymomot/voyagerkit/integration/storage/s3"
	"github.com/dmitrymomot/voyagerkit/pkg/secrets"
)

// Store kinds accepted by Config.Store.
const (
	StoreNone       = "none"
	StoreMemory     = "memory"
	StoreFile       = "file"
	StoreRedis      = "redis"
	StorePostgres   = "postgres"
	StoreMongo      = "mongo"
	StoreS3         = "s3"
	StoreOpenSearch = "opensearch"
)

// Config is the environment-driven client configuration. Backend settings
// are only read when the matching store is selected.
type Config struct {
	BaseURL             string        `env:"VOYAGER_BASE_URL" envDefault:"https://www.linkedin.com"`
	HealthCheckInterval time.Duration `env:"VOYAGER_HEALTHCHECK_INTERVAL" envDefault:"1s"`
	CacheCapacity       int           `env:"VOYAGER_CACHE_CAPACITY" envDefault:"10"`
	StreamProtocol      string        `env:"VOYAGER_STREAM_PROTOCOL" envDefault:"sse"`
	ProfilePolicy       string        `env:"VOYAGER_PROFILE_POLICY" envDefault:"always"`
	ProfileSettleDelay  time.Duration `env:"VOYAGER_PROFILE_SETTLE_DELAY" envDefault:"300ms"`
	RequestTimeout      time.Duration `env:"VOYAGER_REQUEST_TIMEOUT" envDefault:"30s"`

	Store         string `env:"VOYAGER_STORE" envDefault:"memory"`
	CredentialDir string `env:"VOYAGER_CREDENTIAL_DIR" envDefault:".credentials"`
	// CredentialKey is a base64 master key; when set, stored sets are encrypted.
	CredentialKey string `env:"VOYAGER_CREDENTIAL_KEY"`

	Redis      redis.Config
	Postgres   pg.Config
	Mongo      mongo.Config
	S3         s3.Config
	OpenSearch opensearch.Config
}

// DefaultConfig returns the configuration with every default applied and
// nothing read from the environment.
func DefaultConfig() Config {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("voyagerkit: invalid config defaults: %v", err))
	}
	return cfg
}

// LoadConfig reads Config from the environment and .env. The result is cached.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MasterKey decodes CredentialKey. It returns nil when no key is configured.
func (c Config) MasterKey() ([]byte, error) {
	raw := strings.TrimSpace(c.CredentialKey)
	if raw == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentialKey, err)
	}
	if len(key) < secrets.KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidCredentialKey, secrets.KeySize, len(key))
	}
	return key, nil
}
