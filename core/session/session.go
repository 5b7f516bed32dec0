package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/pkg/async"
)

// Session authorizes requests and push streams for one principal.
// Sessions sharing a Jar share credentials.
type Session struct {
	id        uuid.UUID
	principal string
	jar       *credential.Jar
	transport Transport
	cfg       *Config
	logger    *slog.Logger
	registry  *realtime.Registry

	loginMu sync.Mutex

	profileMu sync.Mutex
	profile   *async.Future[UserDetails]
}

// New creates a Session for principal. A nil jar gets a private in-memory jar.
func New(principal string, jar *credential.Jar, transport Transport, opts ...Option) (*Session, error) {
	if principal == "" {
		return nil, ErrNoPrincipal
	}
	if transport == nil {
		return nil, ErrNoTransport
	}
	if jar == nil {
		jar = credential.NewJar(credential.NewMemoryStore())
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	id := uuid.New()
	s := &Session{
		id:        id,
		principal: principal,
		jar:       jar,
		transport: transport,
		cfg:       cfg,
		logger: cfg.Logger.With(
			logger.Component("session"),
			logger.Principal(principal),
			logger.SessionID(id.String()),
		),
	}
	s.registry = realtime.New(s.openStream,
		realtime.WithHealthCheckInterval(cfg.HealthCheckInterval),
		realtime.WithLogger(s.logger),
	)
	return s, nil
}

// ID returns the identifier used to correlate this session's logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Principal returns the account the session acts for.
func (s *Session) Principal() string { return s.principal }

// Credentials returns the principal's current credentials, logging in when
// the jar is empty and a secret is configured.
func (s *Session) Credentials(ctx context.Context, opts ...CallOption) (credential.Set, error) {
	s.logger.DebugContext(ctx, "looking up credentials")
	set, err := s.jar.Get(ctx, s.principal)
	if err != nil {
		return credential.Set{}, err
	}
	if !set.IsEmpty() {
		s.logger.DebugContext(ctx, "using cached credentials")
		return set, nil
	}
	if s.cfg.Secret == "" {
		s.logger.ErrorContext(ctx, "credentials empty and no secret configured")
		return credential.Set{}, ErrNoCredentials
	}
	return s.login(ctx, applyCallOptions(opts))
}

func (s *Session) login(ctx context.Context, co callOptions) (credential.Set, error) {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	// A concurrent caller may have logged in while this one waited.
	set, err := s.jar.Get(ctx, s.principal)
	if err != nil {
		return credential.Set{}, err
	}
	if !set.IsEmpty() {
		return set, nil
	}
	if s.cfg.Login == nil {
		return credential.Set{}, ErrNoLogin
	}

	s.logger.InfoContext(ctx, "running login flow")
	start := time.Now()
	fresh, err := s.cfg.Login(ctx, s.principal, s.cfg.Secret)
	if err != nil {
		s.logger.ErrorContext(ctx, "login failed", logger.Error(err))
		return credential.Set{}, err
	}
	s.logger.InfoContext(ctx, "login completed", logger.Elapsed(start), logger.Count("entries", fresh.Len()))

	merged, err := s.jar.Add(ctx, s.principal, fresh)
	if err != nil {
		return credential.Set{}, err
	}

	if co.settleDelay > 0 {
		s.logger.DebugContext(ctx, "waiting before proceeding", logger.Duration(co.settleDelay))
		timer := time.NewTimer(co.settleDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return credential.Set{}, ctx.Err()
		case <-timer.C:
		}
	}
	return merged, nil
}

// Do sends req with the session's credentials. A 302 response clears the
// credentials and the request is retried once; a second 302 or any other
// non-2xx status fails with *ErrInvalidStatus. The request body is buffered
// so it can be resent.
func (s *Session) Do(ctx context.Context, req *http.Request, opts ...CallOption) (*http.Response, error) {
	getBody, err := bufferBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, req, getBody, opts)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusFound {
		discard(resp)
		s.logger.InfoContext(ctx, "redirected, clearing credentials and retrying",
			logger.URL(req.URL.String()),
			logger.RetryCount(1),
		)
		if err := s.jar.Clear(ctx, s.principal); err != nil {
			return nil, err
		}
		if resp, err = s.send(ctx, req, getBody, opts); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		discard(resp)
		s.logger.WarnContext(ctx, "unexpected status",
			logger.URL(req.URL.String()),
			logger.StatusCode(resp.StatusCode),
		)
		return nil, &ErrInvalidStatus{URL: req.URL.String(), Status: resp.StatusCode}
	}
	return resp, nil
}

func (s *Session) send(ctx context.Context, req *http.Request, getBody func() (io.ReadCloser, error), opts []CallOption) (*http.Response, error) {
	creds, err := s.Credentials(ctx, opts...)
	if err != nil {
		return nil, err
	}

	r := req.Clone(ctx)
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
		r.GetBody = getBody
	}
	r.Header = s.decorate(req.Header, creds)

	resp, err := s.transport.Do(r)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "request sent",
		logger.Method(r.Method),
		logger.URL(r.URL.String()),
		logger.StatusCode(resp.StatusCode),
	)
	return resp, nil
}

// decorate layers default headers, caller headers and credentials.
func (s *Session) decorate(caller http.Header, creds credential.Set) http.Header {
	h := s.cfg.Headers.Clone()
	if h == nil {
		h = make(http.Header)
	}
	for k, v := range caller {
		h[k] = append([]string(nil), v...)
	}
	h.Set("Cookie", creds.Header())
	h.Set("Csrf-Token", creds.SessionID())
	return h
}

// CurrentProfile returns the details of the logged-in account. The first
// call fetches them; concurrent and later calls share that result. Whether a
// failure is shared too depends on the ProfilePolicy.
func (s *Session) CurrentProfile(ctx context.Context) (UserDetails, error) {
	s.profileMu.Lock()
	f := s.profile
	if f == nil {
		var resolve async.Resolver[UserDetails]
		f, resolve = async.NewPromise[UserDetails]()
		s.profile = f
		go s.fetchProfile(context.WithoutCancel(ctx), f, resolve)
	}
	s.profileMu.Unlock()

	return f.AwaitContext(ctx)
}

func (s *Session) fetchProfile(ctx context.Context, f *async.Future[UserDetails], resolve async.Resolver[UserDetails]) {
	u, err := s.loadProfile(ctx)
	if err != nil && s.cfg.ProfilePolicy == ProfileMemoizeSuccess {
		s.profileMu.Lock()
		if s.profile == f {
			s.profile = nil
		}
		s.profileMu.Unlock()
	}
	resolve(u, err)
}

func (s *Session) loadProfile(ctx context.Context) (UserDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.profileURL(), nil)
	if err != nil {
		return UserDetails{}, err
	}
	resp, err := s.Do(ctx, req, WithSettleDelay(s.cfg.ProfileSettleDelay))
	if err != nil {
		return UserDetails{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UserDetails{}, err
	}
	return ParseProfile(body)
}

// Listen registers l for every event of the shared push stream, opening it if needed.
func (s *Session) Listen(ctx context.Context, l realtime.Listener) (realtime.Unsubscribe, error) {
	return s.registry.AddEventListener(ctx, l)
}

// ListenErrors registers l for push stream errors.
func (s *Session) ListenErrors(l realtime.ErrorListener) (realtime.Unsubscribe, error) {
	return s.registry.AddErrorListener(l)
}

// Subscribe registers handler for events of the given kind.
func (s *Session) Subscribe(ctx context.Context, kind Kind, handler realtime.Listener) (realtime.Unsubscribe, error) {
	if handler == nil {
		return nil, realtime.ErrNilListener
	}
	return s.registry.AddEventListener(ctx, func(ev realtime.Event) {
		if kind.Matches(ev) {
			handler(ev)
		}
	})
}

// Streaming reports whether the push stream is currently connected.
func (s *Session) Streaming() bool {
	return s.registry.Active()
}

// Close closes the push stream and drops all listeners.
func (s *Session) Close() error {
	return s.registry.Close()
}

func (s *Session) openStream(ctx context.Context, h realtime.Handlers) (realtime.Conn, error) {
	creds, err := s.Credentials(ctx)
	if err != nil {
		return nil, err
	}
	url := s.cfg.realtimeURL()
	s.logger.DebugContext(ctx, "opening push stream", logger.URL(url))
	return s.transport.OpenStream(ctx, url, s.decorate(nil, creds), h)
}

func bufferBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// discard drains and closes a response body so the connection can be reused.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
