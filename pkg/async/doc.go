// Package async provides futures and ordered executors for coordinating concurrent callers.
//
// # Core Types
//
// Future[U] is the result of an asynchronous computation. Await blocks until it is
// resolved, AwaitContext and AwaitWithTimeout give up early without affecting the
// computation, IsComplete polls.
//
// Futures are produced three ways:
//
//	// Run a function on its own goroutine
//	future := async.Async(ctx, userID, fetchUser)
//
//	// Resolve manually from somewhere else
//	future, resolve := async.NewPromise[User]()
//	go func() { resolve(loadUser()) }()
//
//	// Already known values
//	done := async.Resolved(user)
//
// ExecFuture is the error-only variant returned by Exec, with ExecAll and ExecAny for
// coordination.
//
// # Ordered Execution
//
// Serial runs tasks one at a time in the order they were submitted. It is the building
// block used to linearize every mutation of a cache slot or a realtime registry:
//
//	var q async.Serial
//	q.Go(func() { state.apply(a) })
//	q.Do(func() { state.apply(b) }) // runs after a, returns when b is done
//
// Unlike sync.Mutex, Serial guarantees FIFO order between submitters.
//
// # Error Handling
//
//   - ErrTimeout: returned when AwaitWithTimeout exceeds its duration
//   - ErrNoFutures: returned when WaitAny or ExecAny is called with no futures
//
// # Concurrency Safety
//
// All operations are safe for concurrent use. Futures resolve at most once; later
// resolutions are ignored.
package async
