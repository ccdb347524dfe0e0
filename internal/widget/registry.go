package widget

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry keeps sessions in memory and drops the ones left idle.
type Registry struct {
	lookup   Lookup
	observer Observer
	idleTTL  time.Duration
	now      func() time.Time

	// OnChange, if set, is called with the session count after it changes.
	OnChange func(n int)

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry. Sessions idle for longer than
// idleTTL are dropped by Sweep; a zero TTL keeps them forever.
func NewRegistry(lookup Lookup, observer Observer, idleTTL time.Duration) *Registry {
	return &Registry{
		lookup:   lookup,
		observer: observer,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the session for id and marks it as used.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// Create starts a new session with a random id.
func (r *Registry) Create() *Session {
	s := NewSession(uuid.NewString(), r.lookup, r.observer)

	r.mu.Lock()
	r.sessions[s.ID] = &entry{session: s, lastSeen: r.now()}
	n := len(r.sessions)
	r.mu.Unlock()

	r.changed(n)
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if removed > 0 {
		r.changed(n)
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

func (r *Registry) changed(n int) {
	if r.OnChange != nil {
		r.OnChange(n)
	}
}
