package runtime

import (
	"context"
	"errors"
	"fmt"
	"kinder-chat/domain/event"
	"sync"
)

// ConversationGroup names the broadcast group of a conversation.
func ConversationGroup(conversationID string) string {
	return "conversation:" + conversationID
}

// UserGroup names the private broadcast group of a user.
func UserGroup(userID string) string {
	return "user:" + userID
}

// Hub holds the broadcast groups: group name -> subscribed sessions.
// Each session keeps the inverse set, updated under the same lock.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Session
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[string]*Session)}
}

// Join subscribes the session to the group. Joining twice is a no-op.
func (h *Hub) Join(group string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]*Session)
		h.groups[group] = members
	}
	members[s.ID] = s
	s.addGroup(group)
}

// Leave unsubscribes the session from the group, pruning empty groups.
func (h *Hub) Leave(group string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(group, s)
}

// LeaveAll unsubscribes the session from every group it belongs to.
func (h *Hub) LeaveAll(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, group := range s.Groups() {
		h.leaveLocked(group, s)
	}
}

func (h *Hub) leaveLocked(group string, s *Session) {
	s.removeGroup(group)
	members, ok := h.groups[group]
	if !ok {
		return
	}
	delete(members, s.ID)
	if len(members) == 0 {
		delete(h.groups, group)
	}
}

// Members returns a snapshot of the sessions subscribed to the group.
func (h *Hub) Members(group string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.groups[group]
	res := make([]*Session, 0, len(members))
	for _, s := range members {
		res = append(res, s)
	}
	return res
}

// Broadcast delivers e once to every session of the group except exceptSessionID.
// Deliveries are best-effort: a failing connection does not stop the others,
// every failure is returned joined.
func (h *Hub) Broadcast(ctx context.Context, group string, e event.Event, exceptSessionID string) (int, error) {
	// Snapshot first: a slow connection must not hold the lock.
	members := h.Members(group)

	delivered := 0
	var errs []error
	for _, s := range members {
		if s.ID == exceptSessionID {
			continue
		}
		if err := s.Consume(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}
