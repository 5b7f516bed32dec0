package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/session"
)

const (
	authenticatePath = "/uas/authenticate"
	maxResponseSize  = 1 << 20
	loginPassed      = "PASS"
)

// LoginHeaders returns the headers the login endpoint expects from a mobile client.
func LoginHeaders() http.Header {
	h := make(http.Header)
	h.Set("X-Li-User-Agent", "LIAuthLibrary:3.2.4 com.linkedin.LinkedIn:8.8.1 iPhone:8.3")
	h.Set("User-Agent", "LinkedIn/8.8.1 CFNetwork/711.3.18 Darwin/14.0.0")
	h.Set("X-Li-Lang", "en_US")
	h.Set("X-User-Language", "en")
	h.Set("X-User-Locale", "en_US")
	h.Set("Accept-Language", "en-us")
	h.Set("Accept", "application/json")
	return h
}

// Authenticator exchanges a username and password for session cookies.
type Authenticator struct {
	client  *http.Client
	url     string
	headers http.Header
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClient sets the HTTP client. Redirects it follows are taken into
// account when looking for a challenge.
func WithClient(c *http.Client) Option {
	return func(a *Authenticator) {
		if c != nil {
			a.client = c
		}
	}
}

// WithBaseURL points the authenticator at another origin.
func WithBaseURL(base string) Option {
	return func(a *Authenticator) {
		a.url = strings.TrimRight(base, "/") + authenticatePath
	}
}

// WithHeaders replaces the login request headers.
func WithHeaders(h http.Header) Option {
	return func(a *Authenticator) {
		a.headers = h.Clone()
	}
}

// WithClock sets the time source used to resolve cookie lifetimes.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Authenticator) {
		if l != nil {
			a.logger = l
		}
	}
}

// New creates an Authenticator for the default origin.
func New(opts ...Option) *Authenticator {
	a := &Authenticator{
		client:  &http.Client{Timeout: 30 * time.Second},
		url:     session.DefaultBaseURL + authenticatePath,
		headers: LoginHeaders(),
		now:     time.Now,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("auth"))
	return a
}

// Login runs the two-step login: a GET that hands out the anonymous session
// cookies, then a form POST of the credentials carrying them. It satisfies
// session.LoginFunc.
//
// Failures map to session errors: a challenge to *session.ErrChallenge, a 401
// to session.ErrUnauthorized, any other non-200 to *session.ErrInvalidStatus,
// and a response without cookies or without a passing result to
// *session.ErrInvalidPayload.
func (a *Authenticator) Login(ctx context.Context, username, password string) (credential.Set, error) {
	log := a.logger.With(logger.Principal(username))

	initial, err := a.anonymousCookies(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to fetch anonymous cookies", logger.Error(err))
		return credential.Set{}, err
	}

	form := url.Values{
		"session_key":      {username},
		"session_password": {password},
		"JSESSIONID":       {`"` + initial.SessionID() + `"`},
	}
	body := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, strings.NewReader(body))
	if err != nil {
		return credential.Set{}, err
	}
	req.Header = a.headers.Clone()
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Cookie", initial.Header())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return credential.Set{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return credential.Set{}, err
	}
	cookies := credential.FromCookies(resp.Cookies(), a.now())

	if err := a.check(resp, data, cookies); err != nil {
		log.WarnContext(ctx, "login rejected", logger.StatusCode(resp.StatusCode), logger.Error(err))
		return credential.Set{}, err
	}

	log.InfoContext(ctx, "login succeeded", logger.Count("cookies", cookies.Len()))
	// Anonymous cookies stay unless the login replaced them; the CSRF token
	// comes from JSESSIONID.
	return credential.Combine(initial, cookies), nil
}

func (a *Authenticator) anonymousCookies(ctx context.Context) (credential.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url, nil)
	if err != nil {
		return credential.Set{}, err
	}
	req.Header = a.headers.Clone()

	resp, err := a.client.Do(req)
	if err != nil {
		return credential.Set{}, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))

	return credential.FromCookies(resp.Cookies(), a.now()), nil
}

func (a *Authenticator) check(resp *http.Response, data []byte, cookies credential.Set) error {
	var result gjson.Result
	if gjson.ValidBytes(data) {
		result = gjson.ParseBytes(data)
	}

	if challenge := result.Get("challenge_url").String(); challenge != "" {
		return &session.ErrChallenge{URL: challenge}
	}
	if final := resp.Request.URL.String(); strings.Contains(final, "challenge") {
		return &session.ErrChallenge{URL: final}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return session.ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return &session.ErrInvalidStatus{URL: a.url, Status: resp.StatusCode}
	case cookies.IsEmpty():
		return &session.ErrInvalidPayload{Payload: data}
	case result.Get("login_result").String() != loginPassed:
		return &session.ErrInvalidPayload{Payload: data}
	}
	return nil
}
