package session

import (
	"github.com/dmitrymomot/voyagerkit/core/credential"
)

// Manager creates sessions that share one credential jar and transport, so
// credentials obtained by one session are reused by the others.
type Manager struct {
	jar       *credential.Jar
	transport Transport
	opts      []Option
}

// NewManager creates a session manager. opts apply to every session and
// may be extended per session.
func NewManager(jar *credential.Jar, transport Transport, opts ...Option) *Manager {
	if jar == nil {
		jar = credential.NewJar(credential.NewMemoryStore())
	}
	return &Manager{
		jar:       jar,
		transport: transport,
		opts:      opts,
	}
}

// Session creates a session for principal.
func (m *Manager) Session(principal string, opts ...Option) (*Session, error) {
	all := make([]Option, 0, len(m.opts)+len(opts))
	all = append(all, m.opts...)
	all = append(all, opts...)
	return New(principal, m.jar, m.transport, all...)
}

// Jar returns the shared credential jar.
func (m *Manager) Jar() *credential.Jar {
	return m.jar
}
