package transport

import "errors"

var (
	ErrUnknownProtocol = errors.New("unknown stream protocol")
	ErrNotEventStream  = errors.New("response is not an event stream")
	ErrStreamEnded     = errors.New("stream ended")
)
