package session

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
)

// Transport sends requests and opens push streams.
// Do must not follow redirects: the session handles 302 itself.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
	OpenStream(ctx context.Context, url string, header http.Header, h realtime.Handlers) (realtime.Conn, error)
}

// LoginFunc exchanges a principal and secret for a fresh credential set.
// It should fail with ErrUnauthorized, an *ErrChallenge, *ErrInvalidStatus or
// *ErrInvalidPayload.
type LoginFunc func(ctx context.Context, principal, secret string) (credential.Set, error)

// Kind selects the events a subscription receives.
type Kind string

const (
	// KindEvent receives every event.
	KindEvent Kind = ""
	// KindHeartbeat receives the periodic keep-alive event.
	KindHeartbeat Kind = "com.linkedin.realtimefrontend.Heartbeat"
	// KindDecoratedEvent receives message, typing and seen events.
	KindDecoratedEvent Kind = "com.linkedin.realtimefrontend.DecoratedEvent"
)

// Matches reports whether ev belongs to k. Any kind other than KindEvent
// matches events carrying a truthy top-level member named after it.
func (k Kind) Matches(ev realtime.Event) bool {
	if k == KindEvent {
		return true
	}
	return ev.Has(string(k))
}
