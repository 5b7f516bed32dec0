// Package auth logs a principal in with a username and password and returns
// the resulting session cookies as a credential set.
//
// Authenticator.Login has the shape of session.LoginFunc:
//
//	a := auth.New(auth.WithLogger(log))
//	sess, err := session.New(user, jar, transport.New(),
//		session.WithSecret(password),
//		session.WithLogin(a.Login),
//	)
//
// A response asking for a challenge (captcha, two-factor, e-mail pin) fails
// with *session.ErrChallenge carrying the URL to complete it at.
package auth
