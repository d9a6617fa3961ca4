package services

import (
	"context"
	"kinder-chat/domain/event"
	"kinder-chat/runtime"
)

// MarkAsRead flips every unread message of others in one bulk update,
// tells the conversation who read how many, and acknowledges the caller with the same count.
func (s *ChatService) MarkAsRead(ctx context.Context, session *runtime.Session, p event.ConversationRef) error {
	if err := requireConversationID(p); err != nil {
		return err
	}
	if err := s.requireParticipant(session, p.ConversationID); err != nil {
		return err
	}

	count, err := s.messages.MarkAsRead(p.ConversationID, session.UserID())
	if err != nil {
		return err
	}

	receipt := event.MessagesRead{ConversationID: p.ConversationID, ReadBy: session.UserID(), Count: count}
	_, err = s.orchestrator.BroadcastConversation(ctx, p.ConversationID, event.New(event.MessagesReadType, receipt), "")
	s.deliveryFailed(event.MessagesReadType, p.ConversationID, err)

	ack := event.MarkedAsRead{ConversationID: p.ConversationID, Count: count}
	if err := session.Consume(ctx, event.New(event.MarkedAsReadType, ack)); err != nil {
		s.deliveryFailed(event.MarkedAsReadType, p.ConversationID, err)
	}
	return nil
}

// Typing relays the typing state to the other connections of the conversation.
// It is best-effort: a missing id, a non-member or a store failure is dropped silently.
func (s *ChatService) Typing(ctx context.Context, session *runtime.Session, p event.Typing) {
	if p.ConversationID == "" {
		return
	}
	if err := s.requireParticipant(session, p.ConversationID); err != nil {
		s.log.Debug("Typing ignored", "conversation_id", p.ConversationID, "user_id", session.UserID(), "reason", err)
		return
	}

	typing := event.UserTyping{ConversationID: p.ConversationID, UserID: session.UserID(), IsTyping: p.Active()}
	_, err := s.orchestrator.BroadcastConversation(ctx, p.ConversationID, event.New(event.UserTypingType, typing), session.ID)
	if err != nil {
		s.log.Debug("Typing not delivered everywhere", "conversation_id", p.ConversationID, "error", err)
	}
}
