// Package session authorizes requests and push streams on behalf of one
// principal.
//
// A Session reads credentials from a shared credential.Jar and logs in with
// its LoginFunc when the jar is empty and a secret is configured:
//
//	sess, err := session.New("alice@example.com", jar, transport,
//		session.WithSecret(password),
//		session.WithLogin(authenticator.Login),
//	)
//
// Do decorates requests with default headers, the Cookie header and the
// csrf-token header. Credentials revoked server-side only show up as a 302
// from the service, so Do clears them and retries exactly once:
//
//	resp, err := sess.Do(ctx, req)
//	var status *session.ErrInvalidStatus
//	if errors.As(err, &status) {
//		// non-2xx after the retry
//	}
//
// CurrentProfile fetches the logged-in account once per Session. With the
// default ProfileMemoizeAlways policy a failed fetch is remembered too;
// ProfileMemoizeSuccess retries on the next call.
//
// Listen, ListenErrors and Subscribe share one push stream per Session,
// opened with fresh credentials on the first event listener:
//
//	unsubscribe, err := sess.Subscribe(ctx, session.KindHeartbeat, func(realtime.Event) {
//		log.Println("ping")
//	})
//
// A Manager hands out sessions that share one jar and transport.
package session
