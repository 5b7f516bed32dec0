package realtime_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/core/realtime"
)

type fakeConn struct {
	state    atomic.Int32
	closeErr error
	closed   atomic.Bool
	h        realtime.Handlers
}

func (c *fakeConn) State() realtime.State { return realtime.State(c.state.Load()) }

func (c *fakeConn) Close() error {
	c.closed.Store(true)
	c.state.Store(int32(realtime.StateClosed))
	return c.closeErr
}

func (c *fakeConn) emit(payload string) { c.h.OnMessage([]byte(payload)) }

func (c *fakeConn) fail(err error) { c.h.OnError(err) }

// die simulates the remote end dropping the stream.
func (c *fakeConn) die() { c.state.Store(int32(realtime.StateClosed)) }

type fakeFactory struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	calls atomic.Int32
}

func (f *fakeFactory) open(_ context.Context, h realtime.Handlers) (realtime.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	c := &fakeConn{h: h}
	c.state.Store(int32(realtime.StateOpen))
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeFactory) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeFactory) last() *fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.conns) == 0 {
		return nil
	}
	return f.conns[len(f.conns)-1]
}

// recorder collects events delivered to a listener.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) listen(ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.String())
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newRegistry(f *fakeFactory, interval time.Duration) *realtime.Registry {
	return realtime.New(f.open, realtime.WithHealthCheckInterval(interval))
}

func TestRegistry_ListenerLifecycle(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	ctx := context.Background()

	var a, b recorder
	unsubA, err := reg.AddEventListener(ctx, a.listen)
	require.NoError(t, err)
	unsubB, err := reg.AddEventListener(ctx, b.listen)
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.calls.Load(), "one connection is shared")
	assert.True(t, reg.Active())

	first := f.last()
	first.emit(`{"n":1}`)

	unsubA()
	assert.True(t, reg.Active(), "connection stays open while B listens")
	assert.False(t, first.closed.Load())

	first.emit(`{"n":2}`)
	assert.Equal(t, []string{`{"n":1}`}, a.got())
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, b.got())

	unsubB()
	assert.False(t, reg.Active())
	assert.True(t, first.closed.Load())

	events, errs := reg.Listeners()
	assert.Zero(t, events)
	assert.Zero(t, errs)

	var c recorder
	unsubC, err := reg.AddEventListener(ctx, c.listen)
	require.NoError(t, err)
	defer unsubC()

	assert.Equal(t, int32(2), f.calls.Load(), "a fresh listener reopens")
	second := f.last()
	require.NotSame(t, first, second)

	first.emit(`{"stale":true}`)
	second.emit(`{"n":3}`)
	assert.Equal(t, []string{`{"n":3}`}, c.got())
}

func TestRegistry_FanOutOrder(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	t.Cleanup(func() { _ = reg.Close() })

	var mu sync.Mutex
	var order []int
	for i := range 5 {
		_, err := reg.AddEventListener(context.Background(), func(realtime.Event) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		require.NoError(t, err)
	}

	f.last().emit(`{}`)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestRegistry_InvalidPayloadDropped(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	t.Cleanup(func() { _ = reg.Close() })

	var rec recorder
	_, err := reg.AddEventListener(context.Background(), rec.listen)
	require.NoError(t, err)

	conn := f.last()
	conn.emit(`not json`)
	conn.emit(`{"ok":true}`)

	assert.Equal(t, []string{`{"ok":true}`}, rec.got())
}

func TestRegistry_DisposerIdempotent(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	var a, b recorder
	unsubA, err := reg.AddEventListener(ctx, a.listen)
	require.NoError(t, err)
	_, err = reg.AddEventListener(ctx, b.listen)
	require.NoError(t, err)

	unsubA()
	unsubA()

	events, _ := reg.Listeners()
	assert.Equal(t, 1, events)
	assert.True(t, reg.Active())
}

func TestRegistry_OpenFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("handshake refused")
	f := &fakeFactory{}
	f.setErr(boom)
	reg := newRegistry(f, time.Hour)

	_, err := reg.AddEventListener(context.Background(), func(realtime.Event) {})
	require.ErrorIs(t, err, boom)

	events, _ := reg.Listeners()
	assert.Zero(t, events, "failed listener is not kept")
	assert.False(t, reg.Active())

	f.setErr(nil)
	unsub, err := reg.AddEventListener(context.Background(), func(realtime.Event) {})
	require.NoError(t, err)
	defer unsub()
	assert.True(t, reg.Active())
}

func TestRegistry_ErrorListeners(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	t.Cleanup(func() { _ = reg.Close() })

	var mu sync.Mutex
	var got []error
	unsubErr, err := reg.AddErrorListener(func(err error) {
		mu.Lock()
		got = append(got, err)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Zero(t, f.calls.Load(), "error listeners never open a connection")
	assert.False(t, reg.Active())

	unsub, err := reg.AddEventListener(context.Background(), func(realtime.Event) {})
	require.NoError(t, err)

	streamErr := errors.New("stream hiccup")
	f.last().fail(streamErr)
	assert.Equal(t, []error{streamErr}, got)

	unsubErr()
	assert.True(t, reg.Active(), "removing an error listener keeps the connection")

	f.last().fail(errors.New("ignored"))
	assert.Len(t, got, 1)

	unsub()
	assert.False(t, reg.Active())
}

func TestRegistry_HealthCheckReconnects(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, 10*time.Millisecond)
	t.Cleanup(func() { _ = reg.Close() })

	var rec recorder
	_, err := reg.AddEventListener(context.Background(), rec.listen)
	require.NoError(t, err)

	first := f.last()
	first.die()

	require.Eventually(t, func() bool { return f.calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, first.closed.Load(), "dead connection is released")

	second := f.last()
	first.emit(`{"from":"old"}`)
	second.emit(`{"from":"new"}`)
	assert.Equal(t, []string{`{"from":"new"}`}, rec.got(), "listeners survive the reconnect")

	// Healthy connection: no further reconnects.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestRegistry_ReconnectFailure(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, 10*time.Millisecond)
	t.Cleanup(func() { _ = reg.Close() })
	ctx := context.Background()

	reported := make(chan error, 4)
	_, err := reg.AddErrorListener(func(err error) { reported <- err })
	require.NoError(t, err)
	_, err = reg.AddEventListener(ctx, func(realtime.Event) {})
	require.NoError(t, err)

	boom := errors.New("credentials revoked")
	f.setErr(boom)
	f.last().die()

	select {
	case err := <-reported:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("error listener was not notified")
	}

	// Exactly one reconnect attempt and no rescheduled checks.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(2), f.calls.Load())
	assert.Empty(t, reported)
	assert.False(t, reg.Active())

	events, _ := reg.Listeners()
	assert.Equal(t, 1, events, "listeners are kept after a failed reconnect")

	// The next registration starts from scratch.
	f.setErr(nil)
	unsub, err := reg.AddEventListener(ctx, func(realtime.Event) {})
	require.NoError(t, err)
	defer unsub()
	assert.Equal(t, int32(3), f.calls.Load())
	assert.True(t, reg.Active())
}

func TestRegistry_UnsubscribeFromCallback(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)

	var unsub realtime.Unsubscribe
	var calls atomic.Int32
	done := make(chan struct{})

	var err error
	unsub, err = reg.AddEventListener(context.Background(), func(realtime.Event) {
		calls.Add(1)
		unsub()
		close(done)
	})
	require.NoError(t, err)

	go f.last().emit(`{}`)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback deadlocked")
	}

	assert.Eventually(t, func() bool { return !reg.Active() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)
	t.Cleanup(func() { _ = reg.Close() })

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.AddEventListener(context.Background(), func(realtime.Event) {})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	events, _ := reg.Listeners()
	assert.Equal(t, 20, events)
}

func TestRegistry_Close(t *testing.T) {
	t.Parallel()

	f := &fakeFactory{}
	reg := newRegistry(f, time.Hour)

	_, err := reg.AddEventListener(context.Background(), func(realtime.Event) {})
	require.NoError(t, err)
	_, err = reg.AddErrorListener(func(error) {})
	require.NoError(t, err)

	conn := f.last()
	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())

	assert.True(t, conn.closed.Load())
	assert.False(t, reg.Active())

	events, errs := reg.Listeners()
	assert.Zero(t, events)
	assert.Zero(t, errs)

	_, err = reg.AddEventListener(context.Background(), func(realtime.Event) {})
	assert.ErrorIs(t, err, realtime.ErrClosed)
	_, err = reg.AddErrorListener(func(error) {})
	assert.ErrorIs(t, err, realtime.ErrClosed)
}

func TestRegistry_NilListener(t *testing.T) {
	t.Parallel()
	reg := realtime.New((&fakeFactory{}).open)

	_, err := reg.AddEventListener(context.Background(), nil)
	assert.ErrorIs(t, err, realtime.ErrNilListener)
	_, err = reg.AddErrorListener(nil)
	assert.ErrorIs(t, err, realtime.ErrNilListener)
}
