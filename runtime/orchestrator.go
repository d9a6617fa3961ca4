// Package runtime holds the in-process connection state: who is online,
// which connection listens to which broadcast group, and the supervised workers.
// It orchestrates the system without containing business logic or domain rules.
package runtime

import (
	"context"
	"kinder-chat/contract"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"log/slog"
	"sync"
)

// Orchestrator is the lifetime-scoped owner of the Registry and the Hub.
// It is built once by main and stopped on shutdown; nothing in it is global.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	supervisor contract.ISupervisor
	registry   *Registry
	hub        *Hub
	workers    []contract.Worker
	stopping   bool
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry, hub *Hub) *Orchestrator {
	return &Orchestrator{
		log:        log,
		supervisor: supervisor,
		registry:   registry,
		hub:        hub,
	}
}

// Add registers background workers started by Start.
func (o *Orchestrator) Add(workers ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.workers = append(o.workers, workers...)
}

// Admit records an authenticated connection and subscribes it to the user's private group.
func (o *Orchestrator) Admit(identity domain.Identity, conn contract.Connection) (*Session, error) {
	// Held until registered: Stop either sees the session or refuses it
	o.mu.Lock()
	if o.stopping {
		o.mu.Unlock()
		return nil, errors.ErrConnectionClosed
	}
	s := NewSession(identity, conn)
	o.registry.Register(identity.UserID, s)
	o.hub.Join(UserGroup(identity.UserID), s)
	o.mu.Unlock()

	users, connections := o.registry.Stats()
	o.log.Info("Connection admitted",
		"user_id", identity.UserID, "session_id", s.ID, "role", identity.Role,
		"online_users", users, "connections", connections)
	return s, nil
}

// Teardown removes the session from every group and from the registry.
// Calling it twice is a no-op.
func (o *Orchestrator) Teardown(s *Session) {
	o.hub.LeaveAll(s)
	removed, last := o.registry.remove(s.ID)
	if !removed {
		return
	}
	o.log.Info("Connection closed", "user_id", s.UserID(), "session_id", s.ID)
	if last {
		o.log.Info("User offline", "user_id", s.UserID())
	}
}

// Subscribe joins the session to a conversation group. Joining twice is a no-op.
func (o *Orchestrator) Subscribe(s *Session, conversationID string) {
	o.hub.Join(ConversationGroup(conversationID), s)
	o.log.Debug("Subscribed", "session_id", s.ID, "conversation_id", conversationID)
}

func (o *Orchestrator) Unsubscribe(s *Session, conversationID string) {
	o.hub.Leave(ConversationGroup(conversationID), s)
	o.log.Debug("Unsubscribed", "session_id", s.ID, "conversation_id", conversationID)
}

// BroadcastConversation delivers e to every connection subscribed to the conversation,
// except exceptSessionID when not empty.
func (o *Orchestrator) BroadcastConversation(ctx context.Context, conversationID string, e event.Event, exceptSessionID string) (int, error) {
	return o.hub.Broadcast(ctx, ConversationGroup(conversationID), e, exceptSessionID)
}

// NotifyUser delivers e to every connection of the user's private group.
func (o *Orchestrator) NotifyUser(ctx context.Context, userID string, e event.Event) (int, error) {
	return o.hub.Broadcast(ctx, UserGroup(userID), e, "")
}

// Online reports whether the user holds at least one live connection.
func (o *Orchestrator) Online(userID string) bool {
	return len(o.registry.Lookup(userID)) > 0
}

// Members returns the sessions subscribed to the conversation.
func (o *Orchestrator) Members(conversationID string) []*Session {
	return o.hub.Members(ConversationGroup(conversationID))
}

func (o *Orchestrator) Stats() (users, connections int) {
	return o.registry.Stats()
}

// Start hands the workers to the supervisor and blocks until they all returned.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	o.supervisor.Add(o.workers...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
	return nil
}

// Stop refuses new admissions, stops the workers and closes every live connection.
// Closing a connection ends its read loop, which runs the usual Teardown.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.mu.Lock()
	o.stopping = true
	o.mu.Unlock()

	o.supervisor.Stop()

	sessions := o.registry.All()
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			o.log.Debug("Closing connection", "session_id", s.ID, "error", err)
		}
	}
	o.log.Info("Orchestrator stopped", "closed_connections", len(sessions))
}
