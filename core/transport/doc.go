// Package transport sends authorized requests and opens push streams for
// sessions.
//
// HTTP never follows redirects; a 302 is returned to the caller so the
// session can clear stale credentials and retry. Push streams are read on
// their own goroutine either as server-sent events or over a WebSocket:
//
//	t := transport.New(
//		transport.WithProtocol(transport.ProtocolWebSocket),
//		transport.WithTimeout(10*time.Second),
//	)
//	sess, err := session.New("alice", jar, t, session.WithSecret(pw))
//
// A stream outlives the context used to open it. Closing a stream returns
// immediately; handlers already running are not waited for.
package transport
