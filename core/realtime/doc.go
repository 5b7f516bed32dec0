// Package realtime shares one server-push connection between many listeners.
//
// A Registry opens its connection lazily through a Factory when the first
// event listener is added, polls it on a fixed interval and reopens it once
// if it reports StateClosed. If that reopen fails, error listeners receive
// the error and the registry waits, keeping its listeners, until the next
// AddEventListener call opens a fresh connection. Removing the last event
// listener closes the connection.
//
//	reg := realtime.New(factory, realtime.WithHealthCheckInterval(time.Second))
//	unsubscribe, err := reg.AddEventListener(ctx, func(ev realtime.Event) {
//		if ev.Has("com.linkedin.realtimefrontend.Heartbeat") {
//			// ping
//		}
//	})
//	if err != nil {
//		return err
//	}
//	defer unsubscribe()
//
// Events are validated JSON payloads read with gjson paths. Invalid payloads
// are logged and dropped.
package realtime
