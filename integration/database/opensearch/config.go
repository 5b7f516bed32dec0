package opensearch

// Config holds client and store settings.
type Config struct {
	Addresses       []string `env:"OPENSEARCH_ADDRESSES" envSeparator:","`
	Username        string   `env:"OPENSEARCH_USERNAME"`
	Password        string   `env:"OPENSEARCH_PASSWORD"`
	MaxRetries      int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry    bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	CredentialIndex string   `env:"OPENSEARCH_CREDENTIAL_INDEX" envDefault:"voyager-credentials"`
}
