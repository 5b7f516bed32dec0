package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredentials is returned when the jar is empty and no secret is configured.
	ErrNoCredentials = errors.New("no credentials and no secret to log in with")
	// ErrUnauthorized is returned by a login procedure on rejected credentials
	// or a restricted account.
	ErrUnauthorized = errors.New("invalid login or restricted account")
	// ErrChallengeRequired matches every *ErrChallenge.
	ErrChallengeRequired = errors.New("login requires an interactive challenge")
	// ErrNoLogin is returned when a secret is configured but no LoginFunc is.
	ErrNoLogin = errors.New("no login procedure configured")
	// ErrNoPrincipal is returned by New for an empty principal.
	ErrNoPrincipal = errors.New("principal is required")
	// ErrNoTransport is returned by New without a Transport.
	ErrNoTransport = errors.New("transport is required")
	// ErrInvalidData matches every *ErrInvalidPayload.
	ErrInvalidData = errors.New("unexpected response data")
	// ErrInvalidStatusCode matches every *ErrInvalidStatus.
	ErrInvalidStatusCode = errors.New("unexpected response status")
)

// ErrChallenge reports a login blocked by a verification step at URL.
type ErrChallenge struct {
	URL string
}

// Error implements the error interface.
func (e *ErrChallenge) Error() string {
	return fmt.Sprintf("login challenge required at %s", e.URL)
}

// Is reports whether target is ErrChallengeRequired.
func (e *ErrChallenge) Is(target error) bool {
	return target == ErrChallengeRequired
}

// ErrInvalidStatus reports a non-2xx response, after the redirect retry if any.
type ErrInvalidStatus struct {
	URL    string
	Status int
}

// Error implements the error interface.
func (e *ErrInvalidStatus) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// Is reports whether target is ErrInvalidStatusCode.
func (e *ErrInvalidStatus) Is(target error) bool {
	return target == ErrInvalidStatusCode
}

// ErrInvalidPayload reports a response body that did not have the expected shape.
type ErrInvalidPayload struct {
	Payload []byte
}

// Error implements the error interface.
func (e *ErrInvalidPayload) Error() string {
	const max = 256
	p := e.Payload
	if len(p) > max {
		return fmt.Sprintf("unexpected response data: %s...", p[:max])
	}
	return fmt.Sprintf("unexpected response data: %s", p)
}

// Is reports whether target is ErrInvalidData.
func (e *ErrInvalidPayload) Is(target error) bool {
	return target == ErrInvalidData
}
