package async_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/voyagerkit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	future := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return n * 2, nil
	})

	v, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPromise(t *testing.T) {
	t.Parallel()

	t.Run("first resolution wins", func(t *testing.T) {
		t.Parallel()
		future, resolve := async.NewPromise[string]()
		assert.False(t, future.IsComplete())

		resolve("first", nil)
		resolve("second", errors.New("ignored"))

		v, err := future.Await()
		require.NoError(t, err)
		assert.Equal(t, "first", v)
	})

	t.Run("all waiters observe the same value", func(t *testing.T) {
		t.Parallel()
		future, resolve := async.NewPromise[int]()

		var wg sync.WaitGroup
		results := make([]int, 20)
		for i := range results {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], _ = future.Await()
			}()
		}

		resolve(7, nil)
		wg.Wait()
		for _, r := range results {
			assert.Equal(t, 7, r)
		}
	})

	t.Run("await context gives up without resolving", func(t *testing.T) {
		t.Parallel()
		future, resolve := async.NewPromise[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := future.AwaitContext(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		resolve(1, nil)
		v, err := future.AwaitContext(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})
}

func TestResolvedAndRejected(t *testing.T) {
	t.Parallel()

	v, err := async.Resolved("ok").Await()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)

	boom := errors.New("boom")
	_, err = async.Rejected[string](boom).AwaitWithTimeout(time.Millisecond)
	assert.ErrorIs(t, err, boom)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	double := func(_ context.Context, n int) (int, error) { return n * 2, nil }

	values, err := async.WaitAll(async.Async(ctx, 1, double), async.Async(ctx, 2, double), async.Async(ctx, 3, double))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, values)

	boom := errors.New("boom")
	_, err = async.WaitAll(async.Resolved(1), async.Rejected[int](boom))
	assert.ErrorIs(t, err, boom)
}

func TestWaitAny(t *testing.T) {
	t.Parallel()

	_, _, err := async.WaitAny[int]()
	assert.ErrorIs(t, err, async.ErrNoFutures)

	pending, _ := async.NewPromise[int]()
	index, v, err := async.WaitAny(pending, async.Resolved(5))
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, 5, v)
}
