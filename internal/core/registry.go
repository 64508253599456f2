package core

import "sync"

// Registry owns the set of currently connected sessions. All mutation and
// iteration goes through its lock; callers never see the underlying map.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Session]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[*Session]struct{}),
	}
}

// Add inserts a session. Adding an already-present session is a no-op.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s] = struct{}{}
}

// Remove deletes a session. Removing an absent session is a no-op.
func (r *Registry) Remove(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Broadcast delivers event to every registered session. A session whose
// outbound buffer is full is removed so one dead connection never blocks
// or fails delivery to the rest. Returns the sessions that were removed.
func (r *Registry) Broadcast(event *Event) []*Session {
	r.mu.RLock()
	var failed []*Session
	for s := range r.sessions {
		if !s.push(event) {
			failed = append(failed, s)
		}
	}
	r.mu.RUnlock()

	for _, s := range failed {
		r.Remove(s)
	}
	return failed
}
