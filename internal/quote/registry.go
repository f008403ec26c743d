package quote

import (
	"sync"
	"time"
)

// Registry holds the per-visitor quote sessions, keyed by the opaque
// cookie value the HTTP layer assigns. Sessions are scratch state and
// are dropped after sitting idle for the TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewRegistry creates a registry with the given idle TTL.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{sessions: make(map[string]*Session), ttl: ttl}
}

// Get returns the session for id, creating it if absent.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = NewSession()
		r.sessions[id] = s
	}
	return s
}

// Lookup returns the session for id without creating one.
func (r *Registry) Lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Sweep drops sessions idle longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().Add(-r.ttl)
	n := 0
	for id, s := range r.sessions {
		if s.LastActive().Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len reports how many live sessions exist.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
