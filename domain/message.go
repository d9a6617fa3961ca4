// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable apart from their read flag.
package domain

import (
	"kinder-chat/errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message represents a persisted chat message.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	ImageID        string    `json:"image_id,omitempty"`
	SentAt         time.Time `json:"sent_at"`
	IsRead         bool      `json:"is_read"`
}

// NewMessage builds an unread message stamped with sentAt.
func NewMessage(conversationID, senderID, content string, image *Image, sentAt time.Time) (Message, error) {
	msg := Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        strings.TrimSpace(content),
		SentAt:         sentAt,
	}
	if image != nil {
		msg.ImageURL = image.URL
		msg.ImageID = image.ID
	}
	return msg, msg.Validate()
}

// Validate checks that content and image are not both absent.
func (m Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" && m.ImageURL == "" {
		return errors.ErrEmptyMessage
	}
	return nil
}

// Image is the result of an upload to the binary-object store.
type Image struct {
	ID  string
	URL string
}
