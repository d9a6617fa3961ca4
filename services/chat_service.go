package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"kinder-chat/contract"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"kinder-chat/moderation"
	"kinder-chat/observability"
	"kinder-chat/repositories"
	"kinder-chat/runtime"
	"kinder-chat/storage"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Repositories struct {
	Conversations repositories.IConversationRepository
	Participants  repositories.IParticipantRepository
	Messages      repositories.IMessageRepository
	Users         repositories.IUserRepository
}

// ChatService handles every inbound event of a live connection.
type ChatService struct {
	log              *slog.Logger
	orchestrator     *runtime.Orchestrator
	conversations    repositories.IConversationRepository
	participants     repositories.IParticipantRepository
	messages         repositories.IMessageRepository
	users            repositories.IUserRepository
	images           storage.IImageUploader
	moderator        *moderation.Moderator
	maxContentLength int
	now              func() time.Time
}

func NewChatService(log *slog.Logger, orchestrator *runtime.Orchestrator, repos Repositories,
	images storage.IImageUploader, maxContentLength int) *ChatService {
	return &ChatService{
		log:              log,
		orchestrator:     orchestrator,
		conversations:    repos.Conversations,
		participants:     repos.Participants,
		messages:         repos.Messages,
		users:            repos.Users,
		images:           images,
		maxContentLength: maxContentLength,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// WithModerator censors message content before it is stored.
func (s *ChatService) WithModerator(moderator moderation.Moderator) *ChatService {
	s.moderator = &moderator
	return s
}

// Connect admits the connection, then subscribes it to every conversation the user participates in.
// System identities have no participant rows and skip the lookup.
// A store failure is logged and does not refuse the connection.
func (s *ChatService) Connect(_ context.Context, identity domain.Identity, conn contract.Connection) (*runtime.Session, error) {
	session, err := s.orchestrator.Admit(identity, conn)
	if err != nil {
		return nil, err
	}
	if identity.IsSystem() {
		s.log.Debug("System identity, skipping memberships", "user_id", identity.UserID)
		return session, nil
	}

	memberships, err := s.participants.ListByUser(identity.UserID)
	if err != nil {
		s.log.Error("Loading memberships failed, no conversation subscribed",
			"user_id", identity.UserID, "session_id", session.ID, "error", err)
		return session, nil
	}
	for _, m := range memberships {
		s.orchestrator.Subscribe(session, m.ConversationID)
	}
	s.log.Debug("Memberships loaded", "user_id", identity.UserID, "conversations", len(memberships))
	return session, nil
}

// Disconnect runs the teardown of the session. Safe to call twice.
func (s *ChatService) Disconnect(session *runtime.Session) {
	s.orchestrator.Teardown(session)
}

// Dispatch decodes one inbound frame and runs its handler.
// Any failure is reported to the origin connection only, as an error event.
func (s *ChatService) Dispatch(ctx context.Context, session *runtime.Session, frame []byte) {
	var in event.Inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		s.replyError(ctx, session, "", fmt.Errorf("%w: %s", errors.ErrInvalidPayload, err), "")
		return
	}

	start := time.Now()
	observability.EventsReceived.WithLabelValues(string(in.Type)).Inc()
	defer func() {
		observability.HandlerDuration.WithLabelValues(string(in.Type)).Observe(time.Since(start).Seconds())
	}()

	var err error
	var tempID string
	switch in.Type {
	case event.SendMessageType:
		var p event.SendMessage
		if err = decode(in.Data, &p); err == nil {
			err = s.SendMessage(ctx, session, p)
		}
		tempID = p.TempID
	case event.MarkAsReadType:
		var p event.ConversationRef
		if err = decode(in.Data, &p); err == nil {
			err = s.MarkAsRead(ctx, session, p)
		}
	case event.TypingType:
		var p event.Typing
		if decode(in.Data, &p) == nil {
			s.Typing(ctx, session, p)
		}
	case event.JoinConversationType:
		var p event.ConversationRef
		if err = decode(in.Data, &p); err == nil {
			err = s.JoinConversation(ctx, session, p)
		}
	case event.LeaveConversationType:
		var p event.ConversationRef
		if err = decode(in.Data, &p); err == nil {
			err = s.LeaveConversation(ctx, session, p)
		}
	default:
		err = fmt.Errorf("%w: %q", errors.ErrUnknownEvent, in.Type)
	}

	if err != nil {
		s.replyError(ctx, session, in.Type, err, tempID)
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidPayload, err)
	}
	return nil
}

// requireConversationID runs the struct validation of a payload carrying conversation_id.
func requireConversationID(payload any) error {
	if err := validate.Struct(payload); err != nil {
		return errors.ErrMissingConversationID
	}
	return nil
}

// requireParticipant fails with ErrNotParticipant unless the session's user has a membership row.
func (s *ChatService) requireParticipant(session *runtime.Session, conversationID string) error {
	ok, err := s.participants.IsParticipant(conversationID, session.UserID())
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrNotParticipant
	}
	return nil
}

func (s *ChatService) replyError(ctx context.Context, session *runtime.Session, t event.Type, err error, tempID string) {
	kind := errors.Kind(err)
	observability.EventErrors.WithLabelValues(string(t), string(kind)).Inc()
	s.log.Warn("Event failed",
		"event", t, "user_id", session.UserID(), "session_id", session.ID, "kind", kind, "error", err)

	payload := event.Error{Message: errorMessage(err), Details: err.Error(), TempID: tempID}
	if err := session.Consume(ctx, event.New(event.ErrorType, payload)); err != nil {
		s.log.Debug("Error event not delivered", "session_id", session.ID, "error", err)
	}
}

func errorMessage(err error) string {
	switch errors.Kind(err) {
	case errors.KindAuthentication:
		return "Authentication failed"
	case errors.KindAuthorization:
		return "You are not allowed to access this conversation"
	case errors.KindValidation:
		return "Invalid request"
	case errors.KindNotFound:
		return "Not found"
	case errors.KindUpstream:
		if stderrors.Is(err, errors.ErrUpload) {
			return "Image upload failed"
		}
		return "Service temporarily unavailable"
	default:
		return "Internal error"
	}
}

// deliveryFailed logs and counts a fan-out failure after persistence. Nothing is retried.
func (s *ChatService) deliveryFailed(t event.Type, conversationID string, err error) {
	if err == nil {
		return
	}
	observability.DeliveryFailures.WithLabelValues(string(t)).Inc()
	s.log.Warn("Delivery incomplete", "event", t, "conversation_id", conversationID, "error", err)
}
