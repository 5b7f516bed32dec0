package realtime

import "errors"

var (
	// ErrClosed is returned when adding a listener to a closed Registry.
	ErrClosed = errors.New("realtime: registry closed")
	// ErrInvalidPayload is returned by ParseEvent for data that is not valid JSON.
	ErrInvalidPayload = errors.New("realtime: invalid event payload")
	// ErrNilListener is returned when a nil callback is registered.
	ErrNilListener = errors.New("realtime: nil listener")
)
