package session

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
)

const (
	// DefaultBaseURL is the origin of the remote service.
	DefaultBaseURL = "https://www.linkedin.com"
	// DefaultProfileSettleDelay is the pause after a login triggered by the profile fetch.
	DefaultProfileSettleDelay = 300 * time.Millisecond

	realtimePath = "/realtime/connect"
	profilePath  = "/voyager/api/me"
)

// ProfilePolicy decides what CurrentProfile remembers.
type ProfilePolicy int

const (
	// ProfileMemoizeAlways keeps the first result, success or failure,
	// for the lifetime of the Session.
	ProfileMemoizeAlways ProfilePolicy = iota
	// ProfileMemoizeSuccess forgets a failed fetch so the next call retries.
	ProfileMemoizeSuccess
)

// String returns the policy name accepted by ParseProfilePolicy.
func (p ProfilePolicy) String() string {
	switch p {
	case ProfileMemoizeAlways:
		return "always"
	case ProfileMemoizeSuccess:
		return "success"
	default:
		return fmt.Sprintf("ProfilePolicy(%d)", int(p))
	}
}

// ParseProfilePolicy parses "always" or "success".
func ParseProfilePolicy(s string) (ProfilePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return ProfileMemoizeAlways, nil
	case "success":
		return ProfileMemoizeSuccess, nil
	default:
		return 0, fmt.Errorf("unknown profile policy %q", s)
	}
}

// DefaultHeaders returns the headers attached to every request before caller
// headers and credentials.
func DefaultHeaders() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/83.0.4103.116 Safari/537.36")
	h.Set("Accept-Language", "en-AU,en-GB;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("X-Li-Lang", "en_US")
	h.Set("X-Restli-Protocol-Version", "2.0.0")
	return h
}

// Config holds session settings.
type Config struct {
	Secret              string
	BaseURL             string
	RealtimeURL         string // derived from BaseURL when empty
	ProfileURL          string // derived from BaseURL when empty
	HealthCheckInterval time.Duration
	ProfilePolicy       ProfilePolicy
	ProfileSettleDelay  time.Duration
	Headers             http.Header
	Login               LoginFunc
	Logger              *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		BaseURL:             DefaultBaseURL,
		HealthCheckInterval: realtime.DefaultHealthCheckInterval,
		ProfilePolicy:       ProfileMemoizeAlways,
		ProfileSettleDelay:  DefaultProfileSettleDelay,
		Headers:             DefaultHeaders(),
		Logger:              logger.Nop(),
	}
}

func (c *Config) realtimeURL() string {
	if c.RealtimeURL != "" {
		return c.RealtimeURL
	}
	return strings.TrimRight(c.BaseURL, "/") + realtimePath
}

func (c *Config) profileURL() string {
	if c.ProfileURL != "" {
		return c.ProfileURL
	}
	return strings.TrimRight(c.BaseURL, "/") + profilePath
}

// Option configures a Session.
type Option func(*Config)

// WithSecret sets the secret used to log in when the jar is empty.
func WithSecret(secret string) Option {
	return func(c *Config) {
		c.Secret = secret
	}
}

// WithLogin sets the login procedure.
func WithLogin(fn LoginFunc) Option {
	return func(c *Config) {
		c.Login = fn
	}
}

// WithBaseURL sets the service origin used to derive the realtime and profile URLs.
func WithBaseURL(u string) Option {
	return func(c *Config) {
		if u != "" {
			c.BaseURL = u
		}
	}
}

// WithRealtimeURL overrides the push stream URL.
func WithRealtimeURL(u string) Option {
	return func(c *Config) {
		c.RealtimeURL = u
	}
}

// WithProfileURL overrides the current profile URL.
func WithProfileURL(u string) Option {
	return func(c *Config) {
		c.ProfileURL = u
	}
}

// WithHealthCheckInterval sets how often the push connection is polled.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.HealthCheckInterval = d
		}
	}
}

// WithProfilePolicy sets what CurrentProfile memoizes.
func WithProfilePolicy(p ProfilePolicy) Option {
	return func(c *Config) {
		c.ProfilePolicy = p
	}
}

// WithProfileSettleDelay sets the pause after a login triggered by the profile fetch.
func WithProfileSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.ProfileSettleDelay = d
		}
	}
}

// WithDefaultHeaders replaces the default request headers.
func WithDefaultHeaders(h http.Header) Option {
	return func(c *Config) {
		c.Headers = h.Clone()
	}
}

// WithHeader sets one default request header.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// CallOption configures a single Credentials or Do call.
type CallOption func(*callOptions)

type callOptions struct {
	settleDelay time.Duration
}

// WithSettleDelay pauses for d after a login before the call proceeds.
func WithSettleDelay(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.settleDelay = d
	}
}

func applyCallOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
