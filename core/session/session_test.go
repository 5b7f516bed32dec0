package session_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/core/credential"
	"github.com/dmitrymomot/voyagerkit/core/realtime"
	"github.com/dmitrymomot/voyagerkit/core/session"
)

const profileJSON = `{
	"miniProfile": {
		"objectUrn": "urn:li:member:42",
		"entityUrn": "urn:li:fs_miniProfile:ABC",
		"firstName": "Alice",
		"lastName": "Doe",
		"publicIdentifier": "alice-doe",
		"picture": {
			"com.linkedin.common.VectorImage": {
				"rootUrl": "https://media.example.com/",
				"artifacts": [
					{"width": 100, "height": 100, "expiresAt": 1893456000000, "fileIdentifyingUrlPathSegment": "100.jpg"},
					{"width": "200", "height": "200", "expiresAt": 1893456000000, "fileIdentifyingUrlPathSegment": "200.jpg"},
					{"width": 0, "height": 400, "expiresAt": 1893456000000, "fileIdentifyingUrlPathSegment": "broken.jpg"}
				]
			}
		}
	}
}`

type fakeConn struct {
	h      realtime.Handlers
	closed atomic.Bool
}

func (c *fakeConn) State() realtime.State {
	if c.closed.Load() {
		return realtime.StateClosed
	}
	return realtime.StateOpen
}

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	return nil
}

type fakeTransport struct {
	mu       sync.Mutex
	do       func(r *http.Request, body string) (*http.Response, error)
	requests []*http.Request
	bodies   []string

	streamURL    string
	streamHeader http.Header
	conn         *fakeConn
	streams      atomic.Int32
}

func (f *fakeTransport) Do(r *http.Request) (*http.Response, error) {
	var body string
	if r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
	}
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.bodies = append(f.bodies, body)
	do := f.do
	f.mu.Unlock()
	return do(r, body)
}

func (f *fakeTransport) OpenStream(_ context.Context, url string, header http.Header, h realtime.Handlers) (realtime.Conn, error) {
	f.streams.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamURL = url
	f.streamHeader = header
	f.conn = &fakeConn{h: h}
	return f.conn, nil
}

func (f *fakeTransport) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// statuses replies with the given codes in order, repeating the last one.
func statuses(codes ...int) func(*http.Request, string) (*http.Response, error) {
	var i atomic.Int32
	return func(*http.Request, string) (*http.Response, error) {
		n := int(i.Add(1)) - 1
		if n >= len(codes) {
			n = len(codes) - 1
		}
		return respond(codes[n], `{}`), nil
	}
}

type fakeLogin struct {
	calls atomic.Int32
	err   error
}

func (l *fakeLogin) login(_ context.Context, principal, secret string) (credential.Set, error) {
	n := l.calls.Add(1)
	if l.err != nil {
		return credential.Set{}, l.err
	}
	return credential.New(map[string]credential.Entry{
		credential.SessionMarker: {Value: `"ajax:` + principal + `"`, ExpiresAt: time.Now().Add(time.Hour)},
		"li_at":                  {Value: secret + "-" + string(rune('0'+n))},
	}), nil
}

func newSession(t *testing.T, tr *fakeTransport, opts ...session.Option) (*session.Session, *credential.MemoryStore) {
	t.Helper()
	store := credential.NewMemoryStore()
	sess, err := session.New("alice", credential.NewJar(store), tr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, store
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := session.New("", nil, &fakeTransport{})
	assert.ErrorIs(t, err, session.ErrNoPrincipal)

	_, err = session.New("alice", nil, nil)
	assert.ErrorIs(t, err, session.ErrNoTransport)

	sess, err := session.New("alice", nil, &fakeTransport{})
	require.NoError(t, err)
	assert.Equal(t, "alice", sess.Principal())
	assert.NotEqual(t, uuid.Nil, sess.ID())
}

func TestSession_Credentials(t *testing.T) {
	t.Parallel()

	t.Run("logs in once and persists", func(t *testing.T) {
		t.Parallel()
		login := &fakeLogin{}
		sess, store := newSession(t, &fakeTransport{},
			session.WithSecret("pw"),
			session.WithLogin(login.login),
		)
		ctx := context.Background()

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				set, err := sess.Credentials(ctx)
				assert.NoError(t, err)
				assert.False(t, set.IsEmpty())
				assert.False(t, set.Expired(time.Now()))
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), login.calls.Load())

		persisted, err := store.Read(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "ajax:alice", persisted.SessionID())
	})

	t.Run("no secret", func(t *testing.T) {
		t.Parallel()
		sess, _ := newSession(t, &fakeTransport{})
		_, err := sess.Credentials(context.Background())
		assert.ErrorIs(t, err, session.ErrNoCredentials)
	})

	t.Run("secret without login procedure", func(t *testing.T) {
		t.Parallel()
		sess, _ := newSession(t, &fakeTransport{}, session.WithSecret("pw"))
		_, err := sess.Credentials(context.Background())
		assert.ErrorIs(t, err, session.ErrNoLogin)
	})

	t.Run("login error propagates", func(t *testing.T) {
		t.Parallel()
		login := &fakeLogin{err: &session.ErrChallenge{URL: "https://example.com/checkpoint"}}
		sess, store := newSession(t, &fakeTransport{},
			session.WithSecret("pw"),
			session.WithLogin(login.login),
		)

		_, err := sess.Credentials(context.Background())
		assert.ErrorIs(t, err, session.ErrChallengeRequired)

		var challenge *session.ErrChallenge
		require.ErrorAs(t, err, &challenge)
		assert.Equal(t, "https://example.com/checkpoint", challenge.URL)

		persisted, err := store.Read(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, persisted.IsEmpty())
	})

	t.Run("cached credentials skip login", func(t *testing.T) {
		t.Parallel()
		login := &fakeLogin{}
		store := credential.NewMemoryStore()
		existing := credential.New(map[string]credential.Entry{"li_at": {Value: "cached"}})
		require.NoError(t, store.Write(context.Background(), "alice", existing))

		sess, err := session.New("alice", credential.NewJar(store), &fakeTransport{},
			session.WithSecret("pw"),
			session.WithLogin(login.login),
		)
		require.NoError(t, err)

		set, err := sess.Credentials(context.Background())
		require.NoError(t, err)
		assert.True(t, set.Equal(existing))
		assert.Zero(t, login.calls.Load())
	})

	t.Run("settle delay honours context", func(t *testing.T) {
		t.Parallel()
		login := &fakeLogin{}
		sess, _ := newSession(t, &fakeTransport{},
			session.WithSecret("pw"),
			session.WithLogin(login.login),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := sess.Credentials(ctx, session.WithSettleDelay(time.Hour))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSession_Do(t *testing.T) {
	t.Parallel()

	t.Run("decorates the request", func(t *testing.T) {
		t.Parallel()
		tr := &fakeTransport{do: statuses(http.StatusOK)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
		)

		req, err := http.NewRequest(http.MethodGet, "https://example.com/voyager/api/thing", nil)
		require.NoError(t, err)
		req.Header.Set("Accept-Language", "de-DE")
		req.Header.Set("X-Custom", "1")

		resp, err := sess.Do(context.Background(), req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, 1, tr.requestCount())
		sent := tr.requests[0].Header
		assert.Equal(t, session.DefaultHeaders().Get("User-Agent"), sent.Get("User-Agent"))
		assert.Equal(t, "2.0.0", sent.Get("X-Restli-Protocol-Version"))
		assert.Equal(t, "de-DE", sent.Get("Accept-Language"), "caller headers override defaults")
		assert.Equal(t, "1", sent.Get("X-Custom"))
		assert.Equal(t, `JSESSIONID="ajax:alice"; li_at=pw-1`, sent.Get("Cookie"))
		assert.Equal(t, "ajax:alice", sent.Get("Csrf-Token"))

		assert.Empty(t, req.Header.Get("Cookie"), "caller request is not modified")
	})

	t.Run("redirect clears credentials and retries once", func(t *testing.T) {
		t.Parallel()
		login := &fakeLogin{}
		tr := &fakeTransport{do: statuses(http.StatusFound, http.StatusOK)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin(login.login),
		)

		req, err := http.NewRequest(http.MethodPost, "https://example.com/voyager/api/messages", strings.NewReader(`{"text":"hi"}`))
		require.NoError(t, err)

		resp, err := sess.Do(context.Background(), req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		require.Equal(t, 2, tr.requestCount())
		assert.Equal(t, []string{`{"text":"hi"}`, `{"text":"hi"}`}, tr.bodies, "body is resent")
		assert.Equal(t, int32(2), login.calls.Load(), "cleared credentials force a new login")
		assert.Equal(t, "JSESSIONID=\"ajax:alice\"; li_at=pw-2", tr.requests[1].Header.Get("Cookie"))
	})

	t.Run("second redirect fails", func(t *testing.T) {
		t.Parallel()
		tr := &fakeTransport{do: statuses(http.StatusFound)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
		)

		req, err := http.NewRequest(http.MethodGet, "https://example.com/voyager/api/me", nil)
		require.NoError(t, err)

		_, err = sess.Do(context.Background(), req)
		require.ErrorIs(t, err, session.ErrInvalidStatusCode)

		var status *session.ErrInvalidStatus
		require.ErrorAs(t, err, &status)
		assert.Equal(t, http.StatusFound, status.Status)
		assert.Equal(t, "https://example.com/voyager/api/me", status.URL)
		assert.Equal(t, 2, tr.requestCount())
	})

	t.Run("non-2xx fails without retry", func(t *testing.T) {
		t.Parallel()
		tr := &fakeTransport{do: statuses(http.StatusInternalServerError)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
		)

		req, err := http.NewRequest(http.MethodGet, "https://example.com/x", nil)
		require.NoError(t, err)

		_, err = sess.Do(context.Background(), req)
		var status *session.ErrInvalidStatus
		require.ErrorAs(t, err, &status)
		assert.Equal(t, http.StatusInternalServerError, status.Status)
		assert.Equal(t, 1, tr.requestCount())
	})

	t.Run("any 2xx succeeds", func(t *testing.T) {
		t.Parallel()
		tr := &fakeTransport{do: statuses(http.StatusNoContent)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
		)

		req, err := http.NewRequest(http.MethodDelete, "https://example.com/x", nil)
		require.NoError(t, err)

		resp, err := sess.Do(context.Background(), req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("transport error propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection reset")
		tr := &fakeTransport{do: func(*http.Request, string) (*http.Response, error) { return nil, boom }}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
		)

		req, err := http.NewRequest(http.MethodGet, "https://example.com/x", nil)
		require.NoError(t, err)
		_, err = sess.Do(context.Background(), req)
		assert.ErrorIs(t, err, boom)
	})
}

func TestSession_CurrentProfile(t *testing.T) {
	t.Parallel()

	t.Run("fetched once for concurrent callers", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		tr := &fakeTransport{do: func(r *http.Request, _ string) (*http.Response, error) {
			<-release
			return respond(http.StatusOK, profileJSON), nil
		}}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
			session.WithBaseURL("https://example.com"),
			session.WithProfileSettleDelay(0),
		)

		var wg sync.WaitGroup
		results := make([]session.UserDetails, 5)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				u, err := sess.CurrentProfile(context.Background())
				assert.NoError(t, err)
				results[i] = u
			}()
		}
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, 1, tr.requestCount())
		assert.Equal(t, "https://example.com/voyager/api/me", tr.requests[0].URL.String())
		for _, u := range results {
			assert.Equal(t, "alice-doe", u.PublicIdentifier)
		}
	})

	t.Run("failure is memoized by default", func(t *testing.T) {
		t.Parallel()
		tr := &fakeTransport{do: statuses(http.StatusInternalServerError, http.StatusOK)}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
			session.WithProfileSettleDelay(0),
		)

		_, err := sess.CurrentProfile(context.Background())
		require.ErrorIs(t, err, session.ErrInvalidStatusCode)

		_, err = sess.CurrentProfile(context.Background())
		require.ErrorIs(t, err, session.ErrInvalidStatusCode)
		assert.Equal(t, 1, tr.requestCount())
	})

	t.Run("memoize success retries after failure", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		tr := &fakeTransport{do: func(*http.Request, string) (*http.Response, error) {
			if calls.Add(1) == 1 {
				return respond(http.StatusOK, `{"unexpected":true}`), nil
			}
			return respond(http.StatusOK, profileJSON), nil
		}}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
			session.WithProfilePolicy(session.ProfileMemoizeSuccess),
			session.WithProfileSettleDelay(0),
		)

		_, err := sess.CurrentProfile(context.Background())
		require.ErrorIs(t, err, session.ErrInvalidData)

		u, err := sess.CurrentProfile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Alice", u.FirstName)

		_, err = sess.CurrentProfile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, tr.requestCount())
	})

	t.Run("caller cancellation does not cancel the shared fetch", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		tr := &fakeTransport{do: func(*http.Request, string) (*http.Response, error) {
			<-release
			return respond(http.StatusOK, profileJSON), nil
		}}
		sess, _ := newSession(t, tr,
			session.WithSecret("pw"),
			session.WithLogin((&fakeLogin{}).login),
			session.WithProfileSettleDelay(0),
		)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := sess.CurrentProfile(ctx)
		assert.ErrorIs(t, err, context.Canceled)

		close(release)
		u, err := sess.CurrentProfile(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "urn:li:member:42", u.MemberURN)
		assert.Equal(t, 1, tr.requestCount())
	})
}

func TestSession_Realtime(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	sess, _ := newSession(t, tr,
		session.WithSecret("pw"),
		session.WithLogin((&fakeLogin{}).login),
		session.WithBaseURL("https://example.com/"),
		session.WithHealthCheckInterval(time.Hour),
	)
	ctx := context.Background()

	var pings, all atomic.Int32
	unsubPing, err := sess.Subscribe(ctx, session.KindHeartbeat, func(realtime.Event) { pings.Add(1) })
	require.NoError(t, err)
	unsubAll, err := sess.Listen(ctx, func(realtime.Event) { all.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, int32(1), tr.streams.Load())
	assert.True(t, sess.Streaming())
	assert.Equal(t, "https://example.com/realtime/connect", tr.streamURL)
	assert.Equal(t, `JSESSIONID="ajax:alice"; li_at=pw-1`, tr.streamHeader.Get("Cookie"))
	assert.Equal(t, "ajax:alice", tr.streamHeader.Get("Csrf-Token"))

	tr.conn.h.OnMessage([]byte(`{"com.linkedin.realtimefrontend.Heartbeat":{}}`))
	tr.conn.h.OnMessage([]byte(`{"com.linkedin.realtimefrontend.DecoratedEvent":{"payload":{}}}`))

	assert.Equal(t, int32(1), pings.Load())
	assert.Equal(t, int32(2), all.Load())

	var streamErrs atomic.Int32
	_, err = sess.ListenErrors(func(error) { streamErrs.Add(1) })
	require.NoError(t, err)
	tr.conn.h.OnError(errors.New("stream broke"))
	assert.Equal(t, int32(1), streamErrs.Load())

	unsubPing()
	unsubAll()
	assert.False(t, sess.Streaming())
	assert.True(t, tr.conn.closed.Load())
}

func TestSession_RealtimeWithoutCredentials(t *testing.T) {
	t.Parallel()

	tr := &fakeTransport{}
	sess, _ := newSession(t, tr)

	_, err := sess.Listen(context.Background(), func(realtime.Event) {})
	assert.ErrorIs(t, err, session.ErrNoCredentials)
	assert.Zero(t, tr.streams.Load())
	assert.False(t, sess.Streaming())
}

func TestManager(t *testing.T) {
	t.Parallel()

	login := &fakeLogin{}
	tr := &fakeTransport{}
	m := session.NewManager(credential.NewJar(credential.NewMemoryStore()), tr,
		session.WithLogin(login.login),
	)

	withSecret, err := m.Session("alice", session.WithSecret("pw"))
	require.NoError(t, err)
	withoutSecret, err := m.Session("alice")
	require.NoError(t, err)
	other, err := m.Session("bob")
	require.NoError(t, err)

	_, err = withSecret.Credentials(context.Background())
	require.NoError(t, err)

	set, err := withoutSecret.Credentials(context.Background())
	require.NoError(t, err, "credentials are shared through the jar")
	assert.Equal(t, "ajax:alice", set.SessionID())

	_, err = other.Credentials(context.Background())
	assert.ErrorIs(t, err, session.ErrNoCredentials)
	assert.Equal(t, int32(1), login.calls.Load())
	assert.NotNil(t, m.Jar())
}
