// Package cache provides bounded, thread-safe caches with least-recently-used eviction.
//
// # LRU Cache
//
// LRUCache is a plain key/value cache that evicts the least recently used entry when
// capacity is reached:
//
//	c := cache.NewLRUCache[string, *User](100)
//	c.Put("user:123", &User{ID: 123})
//
//	if user, found := c.Get("user:123"); found {
//		fmt.Println(user.ID)
//	}
//
// An eviction callback can release resources held by dropped values:
//
//	c.SetEvictCallback(func(key string, conn *Connection) {
//		conn.Close()
//	})
//
// # Flight Cache
//
// FlightCache coordinates asynchronous loads. For every key it keeps the latest known
// value and a FIFO queue of operations, so that:
//
//   - at most one loader runs per key; callers arriving while a load is pending receive
//     its result instead of starting another load
//   - a Set issued while a load is pending is applied after that load settles, and every
//     Get issued after the Set observes the new value
//   - a failed load leaves the slot empty, so the next Get tries again
//   - Update performs read-modify-write cycles that are totally ordered per key
//
// Keys are independent of each other:
//
//	fc := cache.NewFlightCache[string, Profile](10)
//
//	profile, err := fc.Get(ctx, "alice", func(ctx context.Context) (Profile, error) {
//		return repo.Load(ctx, "alice")
//	}).Await()
//
// Slots with queued or running work are pinned outside of the LRU order, so eviction
// can never drop a pending operation or leave a returned future unresolved.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package cache
