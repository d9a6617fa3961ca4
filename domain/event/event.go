package event

import (
	"encoding/json"
	"kinder-chat/domain"
	"time"

	"github.com/samber/lo"
)

type Type string

// Inbound, client to server.
const (
	SendMessageType       Type = "send_message"
	MarkAsReadType        Type = "mark_as_read"
	JoinConversationType  Type = "join_conversation"
	LeaveConversationType Type = "leave_conversation"
	TypingType            Type = "typing"
)

// Outbound, server to client.
const (
	NewMessageType             Type = "new_message"
	MessageSentType            Type = "message_sent"
	NewMessageNotificationType Type = "new_message_notification"
	MessagesReadType           Type = "messages_read"
	MarkedAsReadType           Type = "marked_as_read"
	UserTypingType             Type = "user_typing"
	JoinedConversationType     Type = "joined_conversation"
	LeftConversationType       Type = "left_conversation"
	ErrorType                  Type = "error"
)

// Event is one outbound frame: {"event": ..., "data": ...}.
type Event struct {
	Type      Type      `json:"event"`
	CreatedAt time.Time `json:"-"`
	Payload   any       `json:"data"`
}

func New(t Type, payload any) Event {
	return Event{Type: t, CreatedAt: time.Now().UTC(), Payload: payload}
}

// Inbound is one client frame, its data decoded later by the handler.
type Inbound struct {
	Type Type            `json:"event"`
	Data json.RawMessage `json:"data"`
}

// SendMessage is the send_message payload.
type SendMessage struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content,omitempty"`
	ImageBase64    string `json:"image_base64,omitempty"`
	TempID         string `json:"tempId,omitempty"`
}

// ConversationRef is the payload of mark_as_read, join_conversation and leave_conversation.
type ConversationRef struct {
	ConversationID string `json:"conversation_id" validate:"required"`
}

// Typing is the typing payload. A nil IsTyping means true.
type Typing struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       *bool  `json:"is_typing,omitempty"`
}

func (t Typing) Active() bool {
	return t.IsTyping == nil || *t.IsTyping
}

type Sender struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	FullName  string      `json:"full_name,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
}

// Message is the wire view of a persisted message.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	ImageID        string    `json:"image_id,omitempty"`
	SentAt         time.Time `json:"sent_at"`
	IsRead         bool      `json:"is_read"`
	Sender         Sender    `json:"sender"`
}

func FromMessage(m domain.Message, sender domain.User) Message {
	return Message{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID,
		Content:        m.Content,
		ImageURL:       m.ImageURL,
		ImageID:        m.ImageID,
		SentAt:         m.SentAt,
		IsRead:         m.IsRead,
		Sender: Sender{
			ID:        sender.ID,
			Username:  sender.Username,
			FullName:  sender.FullName,
			AvatarURL: sender.AvatarURL,
			Role:      sender.Role,
		},
	}
}

// FromMessages maps history pages, where only the sender id is known.
func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(m domain.Message, _ int) Message {
		return FromMessage(m, domain.User{ID: m.SenderID})
	})
}

type NewMessage struct {
	Message Message `json:"message"`
	TempID  string  `json:"tempId,omitempty"`
}

type MessageSent struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id"`
	TempID         string `json:"tempId,omitempty"`
}

type NewMessageNotification struct {
	ConversationID string  `json:"conversation_id"`
	Message        Message `json:"message"`
}

type MessagesRead struct {
	ConversationID string `json:"conversation_id"`
	ReadBy         string `json:"read_by"`
	Count          int    `json:"count"`
}

type MarkedAsRead struct {
	ConversationID string `json:"conversation_id"`
	Count          int    `json:"count"`
}

type UserTyping struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

// ConversationAck is the payload of joined_conversation and left_conversation.
type ConversationAck struct {
	ConversationID string `json:"conversation_id"`
}

type Error struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	TempID  string `json:"tempId,omitempty"`
}
