package realtime

import "context"

// State is the lifecycle state reported by a Conn.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Conn is one physical push connection.
type Conn interface {
	// State reports the current connection state. It must not block.
	State() State
	// Close releases the connection. It must return without waiting for
	// handlers that are currently running.
	Close() error
}

// Handlers receive everything a Conn delivers. They are called from the
// connection's own goroutine and never synchronously from the Factory.
type Handlers struct {
	OnMessage func(data []byte)
	OnError   func(err error)
}

// Factory opens a new connection wired to h.
type Factory func(ctx context.Context, h Handlers) (Conn, error)
