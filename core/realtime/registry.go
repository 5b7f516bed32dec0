package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/voyagerkit/core/logger"
	"github.com/dmitrymomot/voyagerkit/pkg/async"
)

// DefaultHealthCheckInterval is how often an open connection is polled.
const DefaultHealthCheckInterval = time.Second

// Listener receives every event delivered by the shared connection.
type Listener func(Event)

// ErrorListener receives connection errors and failed reconnects.
type ErrorListener func(error)

// Unsubscribe removes a listener. It is safe to call more than once and
// from inside a listener callback.
type Unsubscribe func()

// Option configures a Registry.
type Option func(*Registry)

// WithHealthCheckInterval sets the polling interval of the health check.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// Registry multiplexes any number of listeners onto at most one connection.
// The connection is opened by the first event listener, health checked while
// open and closed when the last event listener is removed. Error listeners
// never open or keep a connection.
//
// Listener registration and connection lifecycle changes run one at a time
// in call order. Listener callbacks run on the connection's goroutine,
// outside that order, and must not block for long.
type Registry struct {
	factory  Factory
	interval time.Duration
	logger   *slog.Logger

	queue async.Serial

	// Owned by tasks running on queue.
	conn       Conn
	stopHealth context.CancelFunc
	closed     bool

	// gen identifies the installed connection; handlers of older connections
	// compare against it and drop what they receive.
	gen atomic.Uint64

	mu        sync.RWMutex
	listeners *arena[Listener]
	errors    *arena[ErrorListener]
}

// New creates a Registry opening connections with factory.
func New(factory Factory, opts ...Option) *Registry {
	r := &Registry{
		factory:   factory,
		interval:  DefaultHealthCheckInterval,
		logger:    logger.Nop(),
		listeners: newArena[Listener](),
		errors:    newArena[ErrorListener](),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("realtime"))
	return r
}

// AddEventListener registers l and opens the connection if none is open.
// When opening fails, l is not kept and the error is returned.
func (r *Registry) AddEventListener(ctx context.Context, l Listener) (Unsubscribe, error) {
	if l == nil {
		return nil, ErrNilListener
	}

	var (
		id  uint64
		err error
	)
	r.queue.Do(func() {
		if r.closed {
			err = ErrClosed
			return
		}

		r.mu.Lock()
		id = r.listeners.add(l)
		r.mu.Unlock()

		if r.conn != nil {
			return
		}
		if err = r.open(ctx); err != nil {
			r.mu.Lock()
			r.listeners.remove(id)
			r.mu.Unlock()
		}
	})
	if err != nil {
		return nil, err
	}

	return once(func() {
		r.queue.Do(func() { r.removeListener(id) })
	}), nil
}

// AddErrorListener registers l for connection errors.
func (r *Registry) AddErrorListener(l ErrorListener) (Unsubscribe, error) {
	if l == nil {
		return nil, ErrNilListener
	}

	var (
		id  uint64
		err error
	)
	r.queue.Do(func() {
		if r.closed {
			err = ErrClosed
			return
		}
		r.mu.Lock()
		id = r.errors.add(l)
		r.mu.Unlock()
	})
	if err != nil {
		return nil, err
	}

	return once(func() {
		r.queue.Do(func() {
			r.mu.Lock()
			r.errors.remove(id)
			r.mu.Unlock()
		})
	}), nil
}

// Active reports whether a connection is currently installed.
func (r *Registry) Active() bool {
	var active bool
	r.queue.Do(func() { active = r.conn != nil })
	return active
}

// Listeners returns the number of event and error listeners.
func (r *Registry) Listeners() (events, errors int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listeners.len(), r.errors.len()
}

// Close tears down the connection and drops every listener.
// Later registrations fail with ErrClosed.
func (r *Registry) Close() error {
	var err error
	r.queue.Do(func() {
		if r.closed {
			return
		}
		r.closed = true
		err = r.teardown()

		r.mu.Lock()
		r.listeners.reset()
		r.errors.reset()
		r.mu.Unlock()
	})
	return err
}

func (r *Registry) removeListener(id uint64) {
	r.mu.Lock()
	removed := r.listeners.remove(id)
	remaining := r.listeners.len()
	r.mu.Unlock()

	if removed && remaining == 0 {
		if err := r.teardown(); err != nil {
			r.logger.Warn("failed to close connection", logger.Error(err))
		}
		r.logger.Debug("last listener removed, connection closed")
	}
}

// open installs a new connection and starts its health check.
// It runs on queue.
func (r *Registry) open(ctx context.Context) error {
	gen := r.gen.Add(1)
	conn, err := r.factory(ctx, r.handlers(gen))
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to open connection", logger.Error(err))
		return err
	}
	r.conn = conn

	hctx, cancel := context.WithCancel(context.Background())
	r.stopHealth = cancel
	go r.watch(hctx)

	r.logger.DebugContext(ctx, "connection opened", logger.Interval(r.interval))
	return nil
}

// teardown cancels the health check and closes the connection. It runs on queue.
func (r *Registry) teardown() error {
	if r.stopHealth != nil {
		r.stopHealth()
		r.stopHealth = nil
	}
	r.gen.Add(1)

	if r.conn == nil {
		return nil
	}
	err := r.conn.Close()
	r.conn = nil
	return err
}

// watch polls the connection until ctx is cancelled or a reconnect fails.
func (r *Registry) watch(ctx context.Context) {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		var (
			stop bool
			err  error
		)
		r.queue.Do(func() { stop, err = r.check(ctx) })
		if err != nil {
			r.emitError(err)
		}
		if stop {
			return
		}
		timer.Reset(r.interval)
	}
}

// check reconnects a closed connection once. It reports whether the health
// check must stop, and the reconnect error if any. It runs on queue.
func (r *Registry) check(ctx context.Context) (bool, error) {
	if ctx.Err() != nil || r.conn == nil {
		return true, nil
	}
	if r.conn.State() != StateClosed {
		return false, nil
	}

	r.logger.Warn("connection closed unexpectedly, reopening")
	if err := r.conn.Close(); err != nil {
		r.logger.Debug("closing dead connection", logger.Error(err))
	}

	gen := r.gen.Add(1)
	conn, err := r.factory(ctx, r.handlers(gen))
	if err != nil {
		r.logger.Error("reconnect failed, notifying error listeners", logger.Error(err))
		r.conn = nil
		r.stopHealth()
		r.stopHealth = nil
		return true, err
	}

	r.conn = conn
	r.logger.Info("connection reopened")
	return false, nil
}

func (r *Registry) handlers(gen uint64) Handlers {
	return Handlers{
		OnMessage: func(data []byte) {
			if r.gen.Load() != gen {
				return
			}
			ev, err := ParseEvent(data)
			if err != nil {
				r.logger.Warn("dropping invalid payload", logger.Error(err), logger.Count("bytes", len(data)))
				return
			}
			r.mu.RLock()
			listeners := r.listeners.snapshot()
			r.mu.RUnlock()
			for _, l := range listeners {
				l(ev)
			}
		},
		OnError: func(err error) {
			if r.gen.Load() != gen {
				return
			}
			r.logger.Warn("connection reported an error", logger.Error(err))
			r.emitError(err)
		},
	}
}

func (r *Registry) emitError(err error) {
	r.mu.RLock()
	listeners := r.errors.snapshot()
	r.mu.RUnlock()
	for _, l := range listeners {
		l(err)
	}
}

func once(fn func()) Unsubscribe {
	var o sync.Once
	return func() { o.Do(fn) }
}
