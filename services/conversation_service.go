package services

import (
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"kinder-chat/repositories"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CreateConversationRequest struct {
	Title          string   `json:"title" validate:"required,max=120"`
	ClassID        string   `json:"class_id"`
	IsClassGroup   bool     `json:"is_class_group"`
	ParticipantIDs []string `json:"participant_ids" validate:"dive,required"`
}

type AddParticipantRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type SaveUserRequest struct {
	Username  string      `json:"username" validate:"required"`
	FullName  string      `json:"full_name"`
	AvatarURL string      `json:"avatar_url" validate:"omitempty,url"`
	Role      domain.Role `json:"role" validate:"omitempty,oneof=admin teacher parent"`
}

type History struct {
	Messages []event.Message `json:"messages"`
	Cursor   *string          `json:"cursor,omitempty"`
}

// ConversationService provisions conversations and memberships outside of the socket.
type ConversationService struct {
	log           *slog.Logger
	conversations repositories.IConversationRepository
	participants  repositories.IParticipantRepository
	messages      repositories.IMessageRepository
	users         repositories.IUserRepository
	now           func() time.Time
}

func NewConversationService(log *slog.Logger, repos Repositories) *ConversationService {
	return &ConversationService{
		log:           log,
		conversations: repos.Conversations,
		participants:  repos.Participants,
		messages:      repos.Messages,
		users:         repos.Users,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions a conversation. Class groups need a managing role.
// The caller always becomes a participant, unless it is a system identity.
func (s *ConversationService) Create(identity domain.Identity, r CreateConversationRequest) (domain.Conversation, error) {
	if err := validate.Struct(r); err != nil {
		return domain.Conversation{}, errors.ErrInvalidPayload
	}
	if r.IsClassGroup && !identity.CanManage() {
		return domain.Conversation{}, errors.ErrForbiddenRole
	}

	now := s.now()
	conversation := domain.Conversation{
		ID:           uuid.NewString(),
		Title:        r.Title,
		CreatedAt:    now,
		ClassID:      r.ClassID,
		IsClassGroup: r.IsClassGroup,
	}
	members := r.ParticipantIDs
	if !identity.IsSystem() {
		members = append(members, identity.UserID)
	}
	members = lo.Uniq(members)
	participants := lo.Map(members, func(userID string, _ int) domain.Participant {
		return domain.Participant{ConversationID: conversation.ID, UserID: userID, JoinedAt: now}
	})
	if err := s.conversations.Create(conversation, participants...); err != nil {
		return domain.Conversation{}, err
	}

	s.log.Info("Conversation created",
		"conversation_id", conversation.ID, "user_id", identity.UserID,
		"class_group", conversation.IsClassGroup, "participants", len(participants))
	return conversation, nil
}

// AddParticipant adds a member. Managers may add anyone; a participant may extend
// a non class conversation it belongs to.
func (s *ConversationService) AddParticipant(identity domain.Identity, conversationID string, r AddParticipantRequest) error {
	if err := validate.Struct(r); err != nil {
		return errors.ErrInvalidPayload
	}
	conversation, err := s.conversations.Get(conversationID)
	if err != nil {
		return err
	}
	if !identity.CanManage() {
		if conversation.IsClassGroup {
			return errors.ErrForbiddenRole
		}
		ok, err := s.participants.IsParticipant(conversationID, identity.UserID)
		if err != nil {
			return err
		}
		if !ok {
			return errors.ErrNotParticipant
		}
	}
	return s.participants.Add(domain.Participant{ConversationID: conversationID, UserID: r.UserID, JoinedAt: s.now()})
}

// History returns a page of messages, newest first. System identities read any conversation.
func (s *ConversationService) History(identity domain.Identity, conversationID string, cursor *string) (History, error) {
	if _, err := s.conversations.Get(conversationID); err != nil {
		return History{}, err
	}
	if !identity.IsSystem() {
		ok, err := s.participants.IsParticipant(conversationID, identity.UserID)
		if err != nil {
			return History{}, err
		}
		if !ok {
			return History{}, errors.ErrNotParticipant
		}
	}
	messages, next, err := s.messages.GetMessages(conversationID, cursor)
	if err != nil {
		return History{}, err
	}
	if len(messages) == 0 {
		next = nil
	}
	return History{Messages: event.FromMessages(messages), Cursor: next}, nil
}

// SaveUser upserts the display fields of userID. Users edit themselves, managers edit anyone.
func (s *ConversationService) SaveUser(identity domain.Identity, userID string, r SaveUserRequest) (domain.User, error) {
	if err := validate.Struct(r); err != nil {
		return domain.User{}, errors.ErrInvalidPayload
	}
	if identity.UserID != userID && !identity.CanManage() {
		return domain.User{}, errors.ErrForbiddenRole
	}
	role := r.Role
	if role == "" || !identity.CanManage() {
		role = lo.Ternary(identity.UserID == userID, identity.Role, domain.RoleParent)
	}
	user := domain.User{ID: userID, Username: r.Username, FullName: r.FullName, AvatarURL: r.AvatarURL, Role: role}
	if err := s.users.Save(user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
