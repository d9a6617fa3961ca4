package services

import (
	"context"
	"kinder-chat/domain/event"
	"kinder-chat/runtime"
)

// JoinConversation re-checks membership then subscribes the connection,
// for memberships added after the connection was admitted.
func (s *ChatService) JoinConversation(ctx context.Context, session *runtime.Session, p event.ConversationRef) error {
	if err := requireConversationID(p); err != nil {
		return err
	}
	if err := s.requireParticipant(session, p.ConversationID); err != nil {
		return err
	}
	s.orchestrator.Subscribe(session, p.ConversationID)
	return s.ack(ctx, session, event.JoinedConversationType, p.ConversationID)
}

// LeaveConversation unsubscribes the connection. Leaving a group never joined is a no-op.
func (s *ChatService) LeaveConversation(ctx context.Context, session *runtime.Session, p event.ConversationRef) error {
	if err := requireConversationID(p); err != nil {
		return err
	}
	s.orchestrator.Unsubscribe(session, p.ConversationID)
	return s.ack(ctx, session, event.LeftConversationType, p.ConversationID)
}

func (s *ChatService) ack(ctx context.Context, session *runtime.Session, t event.Type, conversationID string) error {
	if err := session.Consume(ctx, event.New(t, event.ConversationAck{ConversationID: conversationID})); err != nil {
		s.deliveryFailed(t, conversationID, err)
	}
	return nil
}
