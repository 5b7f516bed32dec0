package voyagerkit

import "errors"

var (
	ErrEmptyUsername        = errors.New("voyagerkit: username is required")
	ErrUnknownStore         = errors.New("voyagerkit: unknown credential store")
	ErrInvalidCredentialKey = errors.New("voyagerkit: invalid credential key")
	ErrClosed               = errors.New("voyagerkit: client is closed")
	ErrUnhealthy            = errors.New("voyagerkit: dependency unavailable")
)
