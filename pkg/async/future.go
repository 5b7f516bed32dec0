package async

import (
	"context"
	"sync"
	"time"
)

// Future represents the result of an asynchronous computation.
type Future[U any] struct {
	value U
	err   error
	once  sync.Once
	done  chan struct{}
}

// Resolver completes a Future created by NewPromise. Only the first call has an effect.
type Resolver[U any] func(value U, err error)

func newFuture[U any]() *Future[U] {
	return &Future[U]{done: make(chan struct{})}
}

func (f *Future[U]) complete(value U, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// NewPromise returns an unresolved Future together with the function that resolves it.
func NewPromise[U any]() (*Future[U], Resolver[U]) {
	f := newFuture[U]()
	return f, f.complete
}

// Resolved returns a Future already completed with value.
func Resolved[U any](value U) *Future[U] {
	f := newFuture[U]()
	f.complete(value, nil)
	return f
}

// Rejected returns a Future already completed with err.
func Rejected[U any](err error) *Future[U] {
	f := newFuture[U]()
	var zero U
	f.complete(zero, err)
	return f
}

// Async executes fn on a new goroutine and returns its Future.
func Async[T, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := newFuture[U]()

	go func() {
		// Early exit prevents goroutine leak when context is pre-canceled
		select {
		case <-ctx.Done():
			var zero U
			f.complete(zero, ctx.Err())
			return
		default:
		}

		f.complete(fn(ctx, param))
	}()

	return f
}

// Await blocks until the Future is resolved.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.value, f.err
}

// AwaitContext blocks until the Future is resolved or ctx is done.
// Giving up does not cancel the underlying computation.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero U
		return zero, ctx.Err()
	}
}

// AwaitWithTimeout waits at most timeout for the Future to resolve.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.value, f.err
	case <-timer.C:
		var zero U
		return zero, ErrTimeout
	}
}

// Done returns a channel closed once the Future is resolved.
func (f *Future[U]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the Future is resolved without blocking.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// WaitAll waits for every future and returns their values in order.
// The first error encountered (in argument order) is returned.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	for i, future := range futures {
		v, err := future.Await()
		if err != nil {
			return nil, err
		}
		results[i] = v
	}
	return results, nil
}

// WaitAny returns as soon as one of the futures resolves.
func WaitAny[U any](futures ...*Future[U]) (int, U, error) {
	if len(futures) == 0 {
		var zero U
		return -1, zero, ErrNoFutures
	}

	type result struct {
		index int
		value U
		err   error
	}
	done := make(chan result, len(futures))

	for i, future := range futures {
		go func(index int, f *Future[U]) {
			v, err := f.Await()
			done <- result{index, v, err}
		}(i, future)
	}

	res := <-done
	return res.index, res.value, res.err
}
