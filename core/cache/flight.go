package cache

import (
	"context"
	"sync"

	"github.com/dmitrymomot/voyagerkit/pkg/async"
)

// Loader produces the value for a key when its slot is empty.
type Loader[V any] func(ctx context.Context) (V, error)

// FlightCache is a bounded cache of keyed asynchronous loads.
// Every operation on a key is queued and executed in submission order.
type FlightCache[K comparable, V any] struct {
	mu    sync.Mutex
	slots *LRUCache[K, *slot[V]]
	// busy pins slots with queued or running operations, evicted or not.
	busy map[K]*slot[V]
}

type slot[V any] struct {
	queue   async.Serial
	pending int // guarded by FlightCache.mu

	// Only touched from tasks running on queue.
	value  V
	filled bool
}

// NewFlightCache creates a cache keeping at most capacity idle slots.
func NewFlightCache[K comparable, V any](capacity int) *FlightCache[K, V] {
	return &FlightCache[K, V]{
		slots: NewLRUCache[K, *slot[V]](capacity),
		busy:  make(map[K]*slot[V]),
	}
}

// Get returns the value for key, running load only if the slot is empty.
// Calls arriving while a load is pending wait for it and share its result.
// A failed load leaves the slot empty; the error goes to the caller whose load failed.
func (c *FlightCache[K, V]) Get(ctx context.Context, key K, load Loader[V]) *async.Future[V] {
	future, resolve := async.NewPromise[V]()
	c.enqueue(key, func(s *slot[V]) {
		resolve(s.fill(ctx, load))
	})
	return future
}

// Set replaces the value for key after every operation already queued for it.
// The returned future is resolved immediately with value.
func (c *FlightCache[K, V]) Set(key K, value V) *async.Future[V] {
	c.enqueue(key, func(s *slot[V]) {
		s.value, s.filled = value, true
	})
	return async.Resolved(value)
}

// Update runs fn with the current value for key (loading it first if needed)
// and stores the returned value. The read-modify-write cycle is atomic with
// respect to every other operation on key. When fn fails the slot keeps its value.
func (c *FlightCache[K, V]) Update(ctx context.Context, key K, load Loader[V], fn func(ctx context.Context, current V) (V, error)) *async.Future[V] {
	future, resolve := async.NewPromise[V]()
	c.enqueue(key, func(s *slot[V]) {
		current, err := s.fill(ctx, load)
		if err != nil {
			resolve(current, err)
			return
		}
		next, err := fn(ctx, current)
		if err != nil {
			resolve(current, err)
			return
		}
		s.value, s.filled = next, true
		resolve(next, nil)
	})
	return future
}

// Replace stores the value produced by fn without reading the current one.
// When fn fails the slot is left untouched.
func (c *FlightCache[K, V]) Replace(ctx context.Context, key K, fn func(ctx context.Context) (V, error)) *async.Future[V] {
	future, resolve := async.NewPromise[V]()
	c.enqueue(key, func(s *slot[V]) {
		next, err := fn(ctx)
		if err != nil {
			resolve(next, err)
			return
		}
		s.value, s.filled = next, true
		resolve(next, nil)
	})
	return future
}

// Remove empties the slot for key once its queued operations are done.
func (c *FlightCache[K, V]) Remove(key K) {
	c.enqueue(key, func(s *slot[V]) {
		var zero V
		s.value, s.filled = zero, false
	})
}

// Len returns the number of idle and busy slots.
func (c *FlightCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.slots.Len()
	for key := range c.busy {
		if !c.slots.Contains(key) {
			n++
		}
	}
	return n
}

func (c *FlightCache[K, V]) enqueue(key K, op func(s *slot[V])) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.busy[key]
	if !ok {
		s, ok = c.slots.Get(key)
	}
	if !ok {
		s = &slot[V]{}
	}
	c.slots.Put(key, s)
	c.busy[key] = s
	s.pending++

	// Submitting under c.mu keeps queue order equal to call order.
	s.queue.Go(func() {
		op(s)

		c.mu.Lock()
		s.pending--
		if s.pending == 0 {
			delete(c.busy, key)
		}
		c.mu.Unlock()
	})
}

func (s *slot[V]) fill(ctx context.Context, load Loader[V]) (V, error) {
	if s.filled {
		return s.value, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	s.value, s.filled = v, true
	return v, nil
}
