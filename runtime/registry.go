package runtime

import (
	"sync"
)

type Set map[string]struct{}

// Registry maps a user to its live sessions and a session back to its user.
// One user may hold several connections at once (phone and laptop).
type Registry struct {
	mu          sync.RWMutex
	Sessions    map[string]*Session            // session id -> session
	UserSession map[string]map[string]*Session // user id -> session id -> session
}

func NewRegistry() *Registry {
	return &Registry{
		Sessions:    make(map[string]*Session),
		UserSession: make(map[string]map[string]*Session),
	}
}

// Register adds the session to the user's set, creating the set on first connection.
func (r *Registry) Register(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sessions[s.ID] = s
	if _, ok := r.UserSession[userID]; !ok {
		r.UserSession[userID] = make(map[string]*Session)
	}
	r.UserSession[userID][s.ID] = s
}

// Unregister removes the session from whichever user owns it.
// The user entry is pruned when its last session leaves, so no empty sets remain.
// It reports whether the user has no session left; unknown sessions are a no-op.
func (r *Registry) Unregister(sessionID string) (lastSession bool) {
	_, lastSession = r.remove(sessionID)
	return lastSession
}

func (r *Registry) remove(sessionID string) (removed, lastSession bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.Sessions[sessionID]
	if !ok {
		return false, false
	}
	delete(r.Sessions, sessionID)

	userID := s.UserID()
	if sessions, ok := r.UserSession[userID]; ok {
		delete(sessions, sessionID)
		if len(sessions) == 0 {
			delete(r.UserSession, userID)
			return true, true
		}
	}
	return true, false
}

// Lookup returns every live session of the user, nil when offline.
func (r *Registry) Lookup(userID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.UserSession[userID]
	if !ok {
		return nil
	}
	res := make([]*Session, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, s)
	}
	return res
}

// All returns a snapshot of every live session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*Session, 0, len(r.Sessions))
	for _, s := range r.Sessions {
		res = append(res, s)
	}
	return res
}

// Stats returns the number of online users and of live connections.
func (r *Registry) Stats() (users, connections int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.UserSession), len(r.Sessions)
}
