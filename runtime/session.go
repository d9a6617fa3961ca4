package runtime

import (
	"context"
	"kinder-chat/contract"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Session is the per-connection state handed to every event handler.
// Its group set mirrors the Hub and is only mutated by the Hub.
type Session struct {
	ID       string
	Identity domain.Identity
	conn     contract.Connection

	mu     sync.RWMutex
	groups Set
}

func NewSession(identity domain.Identity, conn contract.Connection) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Identity: identity,
		conn:     conn,
		groups:   make(Set),
	}
}

func (s *Session) UserID() string { return s.Identity.UserID }

// Consume delivers one event to this connection only.
func (s *Session) Consume(ctx context.Context, e event.Event) error {
	return s.conn.Consume(ctx, e)
}

func (s *Session) Close() error {
	return s.conn.Close()
}

// Groups returns a sorted snapshot of the groups this connection is subscribed to.
func (s *Session) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make([]string, 0, len(s.groups))
	for g := range s.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func (s *Session) InGroup(group string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.groups[group]
	return ok
}

func (s *Session) addGroup(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[group] = struct{}{}
}

func (s *Session) removeGroup(group string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, group)
}
