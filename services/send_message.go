package services

import (
	"context"
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"kinder-chat/observability"
	"kinder-chat/runtime"
	"strings"
	"unicode/utf8"
)

// SendMessage validates, persists and fans out one message.
// Nothing is written before the membership check passed, nothing after persistence is rolled back.
func (s *ChatService) SendMessage(ctx context.Context, session *runtime.Session, p event.SendMessage) error {
	// 1. Validation, no side effect yet
	if err := requireConversationID(p); err != nil {
		return err
	}
	content := strings.TrimSpace(p.Content)
	if content == "" && p.ImageBase64 == "" {
		return errors.ErrEmptyMessage
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(content) > s.maxContentLength {
		return errors.ErrContentTooLong
	}
	if err := s.requireParticipant(session, p.ConversationID); err != nil {
		return err
	}

	// 2. Upload first: a failing upload aborts before persistence
	var image *domain.Image
	if p.ImageBase64 != "" {
		uploaded, err := s.images.Upload(ctx, p.ImageBase64)
		if err != nil {
			if errors.Kind(err) == errors.KindInternal {
				err = fmt.Errorf("%w: %w", errors.ErrUpload, err)
			}
			return err
		}
		image = &uploaded
	}

	if s.moderator != nil && content != "" {
		censored, words := s.moderator.Censor(content)
		if len(words) > 0 {
			observability.MessagesCensored.Inc()
			s.log.Info("Message censored",
				"conversation_id", p.ConversationID, "user_id", session.UserID(), "words", len(words))
			content = censored
		}
	}

	message, err := domain.NewMessage(p.ConversationID, session.UserID(), content, image, s.now())
	if err != nil {
		return err
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return err
	}
	observability.MessagesPersisted.Inc()

	// 3. From here on the message exists: failures are logged, never returned
	if _, err := s.conversations.TouchLastMessage(p.ConversationID, message.SentAt); err != nil {
		s.log.Warn("Updating last message time failed", "conversation_id", p.ConversationID, "error", err)
	}
	view := event.FromMessage(message, s.sender(session))

	// (a) the sender may have missed the initial subscription
	s.orchestrator.Subscribe(session, p.ConversationID)

	// (b) every connection of the group, sender's own included, gets one copy
	delivered, err := s.orchestrator.BroadcastConversation(ctx, p.ConversationID,
		event.New(event.NewMessageType, event.NewMessage{Message: view, TempID: p.TempID}), "")
	s.deliveryFailed(event.NewMessageType, p.ConversationID, err)

	// (c) private notification to every other participant
	s.notifyParticipants(ctx, session.UserID(), p.ConversationID, view)

	// (d) acknowledgment to the origin connection
	ack := event.MessageSent{MessageID: message.ID.String(), ConversationID: p.ConversationID, TempID: p.TempID}
	if err := session.Consume(ctx, event.New(event.MessageSentType, ack)); err != nil {
		s.deliveryFailed(event.MessageSentType, p.ConversationID, err)
	}

	s.log.Debug("Message sent",
		"conversation_id", p.ConversationID, "message_id", message.ID, "user_id", session.UserID(), "delivered", delivered)
	return nil
}

// sender resolves the display fields of the session's user, falling back to the token claims.
func (s *ChatService) sender(session *runtime.Session) domain.User {
	identity := session.Identity
	user, err := s.users.Get(identity.UserID)
	if err != nil {
		if errors.Kind(err) != errors.KindNotFound {
			s.log.Warn("Resolving sender failed", "user_id", identity.UserID, "error", err)
		}
		return domain.User{ID: identity.UserID, Username: identity.Username, Role: identity.Role}
	}
	if user.Username == "" {
		user.Username = identity.Username
	}
	return user
}

func (s *ChatService) notifyParticipants(ctx context.Context, senderID, conversationID string, view event.Message) {
	participants, err := s.participants.ListByConversation(conversationID)
	if err != nil {
		s.deliveryFailed(event.NewMessageNotificationType, conversationID, err)
		return
	}
	notification := event.New(event.NewMessageNotificationType,
		event.NewMessageNotification{ConversationID: conversationID, Message: view})
	for _, participant := range participants {
		if participant.UserID == senderID {
			continue
		}
		_, err := s.orchestrator.NotifyUser(ctx, participant.UserID, notification)
		s.deliveryFailed(event.NewMessageNotificationType, conversationID, err)
	}
}
