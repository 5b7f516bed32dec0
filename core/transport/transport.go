package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/core/session"
)

// DefaultTimeout bounds a single request. Push streams are not affected.
const DefaultTimeout = 30 * time.Second

// Protocol selects how push streams are opened.
type Protocol string

const (
	ProtocolSSE       Protocol = "sse"
	ProtocolWebSocket Protocol = "websocket"
)

// ParseProtocol parses "sse" or "websocket". An empty string means SSE.
func ParseProtocol(s string) (Protocol, error) {
	switch p := Protocol(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProtocolSSE:
		return ProtocolSSE, nil
	case ProtocolWebSocket, "ws":
		return ProtocolWebSocket, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
}

// HTTP implements session.Transport over net/http. Redirects are never
// followed so the session can react to them.
type HTTP struct {
	client   *http.Client
	stream   *http.Client
	dialer   *websocket.Dialer
	protocol Protocol
	logger   *slog.Logger
}

var _ session.Transport = (*HTTP)(nil)

// Option configures HTTP.
type Option func(*HTTP)

// WithClient uses a copy of c for requests and SSE streams.
func WithClient(c *http.Client) Option {
	return func(t *HTTP) {
		if c != nil {
			cp := *c
			t.client = &cp
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *HTTP) {
		t.client.Timeout = d
	}
}

// WithProtocol selects the push stream protocol.
func WithProtocol(p Protocol) Option {
	return func(t *HTTP) {
		t.protocol = p
	}
}

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *HTTP) {
		if d != nil {
			t.dialer = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTP) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates an HTTP transport.
func New(opts ...Option) *HTTP {
	t := &HTTP{
		client:   &http.Client{Timeout: DefaultTimeout},
		dialer:   websocket.DefaultDialer,
		protocol: ProtocolSSE,
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	stream := *t.client
	stream.Timeout = 0
	t.stream = &stream
	t.logger = t.logger.With(logger.Component("transport"))
	return t
}

// Protocol returns the configured push stream protocol.
func (t *HTTP) Protocol() Protocol {
	return t.protocol
}

// Do sends req as is.
func (t *HTTP) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// OpenStream connects to the push endpoint at url. The stream outlives ctx;
// ctx only bounds the handshake.
func (t *HTTP) OpenStream(ctx context.Context, url string, header http.Header, h realtime.Handlers) (realtime.Conn, error) {
	log := t.logger.With(logger.URL(url), logger.Kind(string(t.protocol)))
	switch t.protocol {
	case ProtocolWebSocket:
		return dialWebSocket(ctx, t.dialer, url, header, h, log)
	case ProtocolSSE, "":
		return dialSSE(ctx, t.stream, url, header, h, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProtocol, t.protocol)
	}
}
