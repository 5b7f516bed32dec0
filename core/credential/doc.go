// Package credential holds the cookie-based authentication material of a
// principal and caches it in front of a durable Store.
//
// A Set is an immutable collection of named entries. The entry named
// SessionMarker decides whether the whole set has expired:
//
//	set := credential.FromCookies(resp.Cookies(), time.Now())
//	req.Header.Set("Cookie", set.Header())
//	req.Header.Set("csrf-token", set.SessionID())
//
// A Jar serializes every read-modify-write for one principal, so concurrent
// callers never observe a half-applied update and concurrent Add calls never
// lose entries:
//
//	jar := credential.NewJar(store, credential.WithCapacity(32))
//	set, err := jar.Get(ctx, "alice@example.com")
//	if errors.Is(err, credential.ErrStore) {
//		// the store failed; the cached slot stays usable
//	}
//
// Stores in this package are EphemeralStore, MemoryStore and FileStore.
// Database and object storage backends live under integration/. All of them
// serialize through a Codec; SealedCodec encrypts sets at rest.
package credential
