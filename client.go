package voyagerkit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/dmitrymomot/voyagerkit/core/auth"
	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/core/session"
	"github.com/dmitrymomot/voyagerkit/core/transport"
	"github.com/dmitrymomot/voyagerkit/pkg/async"
)

// Client acts for one account. It owns the credential jar, the transport and
// the current session; SetPassword swaps the session for a new one.
type Client struct {
	username  string
	cfg       Config
	jar       *credential.Jar
	transport session.Transport
	login     session.LoginFunc
	sessOpts  []session.Option
	logger    *slog.Logger
	closers   []Closer
	checks    []Check

	mu      sync.RWMutex
	session *session.Session
	closed  bool
}

// Option configures a Client.
type Option func(*options)

type options struct {
	cfg       *Config
	store     credential.Store
	jar       *credential.Jar
	transport session.Transport
	login     session.LoginFunc
	password  string
	logger    *slog.Logger
	sessOpts  []session.Option
	closers   []Closer
	checks    []Check
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = &cfg
	}
}

// WithStore sets the credential store. Ignored when WithJar is given.
func WithStore(store credential.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithJar shares an existing jar, for example between clients of several accounts.
func WithJar(jar *credential.Jar) Option {
	return func(o *options) {
		o.jar = jar
	}
}

// WithTransport replaces the HTTP transport built from the config.
func WithTransport(t session.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithLogin replaces the password login procedure.
func WithLogin(fn session.LoginFunc) Option {
	return func(o *options) {
		o.login = fn
	}
}

// WithPassword sets the password used when no stored credentials exist.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSessionOptions appends options applied to every session the client creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessOpts = append(o.sessOpts, opts...)
	}
}

// WithCloser registers a function run by Close, after the session is closed.
func WithCloser(fn Closer) Option {
	return func(o *options) {
		if fn != nil {
			o.closers = append(o.closers, fn)
		}
	}
}

// WithHealthcheck registers a dependency check run by Healthcheck.
func WithHealthcheck(fn Check) Option {
	return func(o *options) {
		if fn != nil {
			o.checks = append(o.checks, fn)
		}
	}
}

// WithBackend uses the store of an opened backend and registers its health
// check and its Close.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.store = b.Store
		if b.Close != nil {
			o.closers = append(o.closers, b.Close)
		}
		if b.Healthcheck != nil {
			o.checks = append(o.checks, b.Healthcheck)
		}
	}
}

// New creates a client for username. Without WithStore credentials are kept in memory.
func New(username string, opts ...Option) (*Client, error) {
	if username == "" {
		return nil, ErrEmptyUsername
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg := DefaultConfig()
	if o.cfg != nil {
		cfg = *o.cfg
	}
	log := o.logger
	if log == nil {
		log = logger.Nop()
	}

	profilePolicy, err := session.ParseProfilePolicy(cfg.ProfilePolicy)
	if err != nil {
		return nil, err
	}

	jar := o.jar
	if jar == nil {
		store := o.store
		if store == nil {
			store = credential.NewMemoryStore()
		}
		jar = credential.NewJar(store,
			credential.WithCapacity(cfg.CacheCapacity),
			credential.WithLogger(log),
		)
	}

	tr := o.transport
	if tr == nil {
		protocol, err := transport.ParseProtocol(cfg.StreamProtocol)
		if err != nil {
			return nil, err
		}
		tr = transport.New(
			transport.WithProtocol(protocol),
			transport.WithTimeout(cfg.RequestTimeout),
			transport.WithLogger(log),
		)
	}

	login := o.login
	if login == nil {
		login = auth.New(
			auth.WithBaseURL(cfg.BaseURL),
			auth.WithClient(&http.Client{Timeout: cfg.RequestTimeout}),
			auth.WithLogger(log),
		).Login
	}

	c := &Client{
		username:  username,
		cfg:       cfg,
		jar:       jar,
		transport: tr,
		login:     login,
		logger:    log.With(logger.Principal(username)),
		closers:   o.closers,
		checks:    o.checks,
		sessOpts: append([]session.Option{
			session.WithBaseURL(cfg.BaseURL),
			session.WithHealthCheckInterval(cfg.HealthCheckInterval),
			session.WithProfilePolicy(profilePolicy),
			session.WithProfileSettleDelay(cfg.ProfileSettleDelay),
			session.WithLogin(login),
			session.WithLogger(log),
		}, o.sessOpts...),
	}

	if c.session, err = c.newSession(o.password); err != nil {
		return nil, err
	}
	return c, nil
}

// NewFromEnv creates a client configured from the environment, opening the
// credential store backend Config.Store selects. Close releases it.
func NewFromEnv(ctx context.Context, username string, opts ...Option) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = logger.Nop()
	}

	backend, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	all := append([]Option{WithConfig(cfg), WithBackend(backend)}, opts...)
	c, err := New(username, all...)
	if err != nil {
		_ = backend.Close(ctx)
		return nil, err
	}
	return c, nil
}

func (c *Client) newSession(password string) (*session.Session, error) {
	opts := c.sessOpts
	if password != "" {
		opts = append(append([]session.Option(nil), opts...), session.WithSecret(password))
	}
	return session.New(c.username, c.jar, c.transport, opts...)
}

// Username returns the account the client acts for.
func (c *Client) Username() string {
	return c.username
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// SetPassword replaces the session with one that can log in with password.
// Stored credentials stay valid; listeners of the previous session are
// dropped together with its push stream.
func (c *Client) SetPassword(password string) error {
	next, err := c.newSession(password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = next.Close()
		return ErrClosed
	}
	prev := c.session
	c.session = next
	c.mu.Unlock()

	c.logger.Info("password updated, session replaced")
	return prev.Close()
}

// Session returns the current session.
func (c *Client) Session() *session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Do sends req through the current session.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.Session().Do(ctx, req)
}

// Me returns the logged-in account's profile.
func (c *Client) Me(ctx context.Context) (session.UserDetails, error) {
	return c.Session().CurrentProfile(ctx)
}

// OnPing calls handler for every heartbeat of the push stream.
func (c *Client) OnPing(ctx context.Context, handler func()) (realtime.Unsubscribe, error) {
	if handler == nil {
		return nil, realtime.ErrNilListener
	}
	return c.Session().Subscribe(ctx, session.KindHeartbeat, func(realtime.Event) { handler() })
}

// OnEvent calls handler for every event of the given kind.
func (c *Client) OnEvent(ctx context.Context, kind session.Kind, handler realtime.Listener) (realtime.Unsubscribe, error) {
	return c.Session().Subscribe(ctx, kind, handler)
}

// OnError calls handler with push stream failures, including failed reconnects.
func (c *Client) OnError(handler func(error)) (realtime.Unsubscribe, error) {
	if handler == nil {
		return nil, realtime.ErrNilListener
	}
	return c.Session().ListenErrors(handler)
}

// Healthcheck runs every registered dependency check and stops at the first failure.
func (c *Client) Healthcheck(ctx context.Context) error {
	for _, check := range c.checks {
		if err := check(ctx); err != nil {
			c.logger.ErrorContext(ctx, "healthcheck failed", logger.Error(err))
			return errors.Join(ErrUnhealthy, err)
		}
	}
	return nil
}

// Close closes the session and then runs the registered closers concurrently.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sess := c.session
	c.mu.Unlock()

	err := sess.Close()

	futures := make([]*async.ExecFuture, 0, len(c.closers))
	for _, closer := range c.closers {
		futures = append(futures, async.Exec(ctx, closer, func(ctx context.Context, fn Closer) error {
			return fn(ctx)
		}))
	}
	if cerr := async.ExecAll(futures...); cerr != nil {
		err = errors.Join(err, cerr)
	}

	c.logger.Debug("client closed")
	return err
}
