package credential

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
	"time"
)

const (
	// SessionMarker is the entry whose expiry governs the whole set.
	SessionMarker = "JSESSIONID"

	browserCookie = "bcookie"
)

// Entry is a single named credential.
type Entry struct {
	Value string `json:"value"`
	// ExpiresAt is zero when the entry never expires.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// Set is the authentication material of one principal.
// The zero value is the empty, unauthenticated set. A Set is never modified
// after construction; every transformation returns a new value.
type Set struct {
	entries map[string]Entry
}

// New builds a set from entries. Entries with an empty name are skipped.
func New(entries map[string]Entry) Set {
	if len(entries) == 0 {
		return Set{}
	}
	m := make(map[string]Entry, len(entries))
	for name, e := range entries {
		if name == "" {
			continue
		}
		m[name] = e
	}
	return Set{entries: m}
}

// FromCookies builds a set from Set-Cookie values received at now.
// Max-Age takes precedence over Expires; a negative Max-Age marks the
// entry as already expired.
func FromCookies(cookies []*http.Cookie, now time.Time) Set {
	m := make(map[string]Entry, len(cookies))
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		value := c.Value
		if c.Quoted {
			value = `"` + value + `"`
		}

		var expires time.Time
		switch {
		case c.MaxAge > 0:
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case c.MaxAge < 0:
			expires = time.Unix(0, 0).UTC()
		case !c.Expires.IsZero():
			expires = c.Expires
		}

		m[c.Name] = Entry{Value: value, ExpiresAt: expires}
	}
	return New(m)
}

// Parse decodes a persisted set. Empty input and JSON null yield the empty set.
func Parse(data []byte) (Set, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Set{}, nil
	}
	var m map[string]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		return Set{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return New(m), nil
}

// Combine merges b over a. Entries of b win on name collision.
func Combine(a, b Set) Set {
	switch {
	case b.IsEmpty():
		return a
	case a.IsEmpty():
		return b
	}
	m := make(map[string]Entry, len(a.entries)+len(b.entries))
	maps.Copy(m, a.entries)
	maps.Copy(m, b.entries)
	return Set{entries: m}
}

// Merge is Combine(s, other).
func (s Set) Merge(other Set) Set {
	return Combine(s, other)
}

// Get returns the entry stored under name.
func (s Set) Get(name string) (Entry, bool) {
	e, ok := s.entries[name]
	return e, ok
}

// Entries returns a copy of all entries.
func (s Set) Entries() map[string]Entry {
	return maps.Clone(s.entries)
}

// Names returns entry names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s.entries))
}

// Len returns the number of entries.
func (s Set) Len() int {
	return len(s.entries)
}

// IsEmpty reports whether the set holds no entries.
func (s Set) IsEmpty() bool {
	return len(s.entries) == 0
}

// Expired reports whether the session marker has an expiry strictly before now.
// A set without marker or without marker expiry never expires.
func (s Set) Expired(now time.Time) bool {
	e, ok := s.entries[SessionMarker]
	if !ok || e.ExpiresAt.IsZero() {
		return false
	}
	return e.ExpiresAt.Before(now)
}

// Header renders the set as a Cookie header value, entries sorted by name.
func (s Set) Header() string {
	if s.IsEmpty() {
		return ""
	}
	var b strings.Builder
	for i, name := range s.Names() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.entries[name].Value)
	}
	return b.String()
}

// SessionID returns the session marker value without surrounding quotes.
// The remote service expects it as the csrf-token header.
func (s Set) SessionID() string {
	e, ok := s.entries[SessionMarker]
	if !ok {
		return ""
	}
	return strings.Trim(e.Value, `"`)
}

// BrowserID returns the part of the bcookie value after '&', or "" when absent.
func (s Set) BrowserID() string {
	e, ok := s.entries[browserCookie]
	if !ok {
		return ""
	}
	_, id, found := strings.Cut(strings.Trim(e.Value, `"`), "&")
	if !found {
		return ""
	}
	return id
}

// Equal reports whether both sets hold the same entries and expiry instants.
func (s Set) Equal(other Set) bool {
	return maps.EqualFunc(s.entries, other.entries, func(a, b Entry) bool {
		return a.Value == b.Value && a.ExpiresAt.Equal(b.ExpiresAt)
	})
}

// String lists entry names only, so sets can be logged without leaking values.
func (s Set) String() string {
	return fmt.Sprintf("credential.Set%v", s.Names())
}

// MarshalJSON encodes the set as {"NAME":{"value":"...","expires_at":"..."}}.
func (s Set) MarshalJSON() ([]byte, error) {
	if s.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Set) UnmarshalJSON(data []byte) error {
	var m map[string]Entry
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	*s = New(m)
	return nil
}
