// Package domain contains core concepts of the chat system.
// This file defines Conversation and Participant entities.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Conversation is a channel attached to a class (class group) or a direct pairing.
type Conversation struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	ClassID       string     `json:"class_id,omitempty"`
	IsClassGroup  bool       `json:"is_class_group"`
}

// Touch moves LastMessageAt forward to at. An older timestamp is ignored,
// so concurrent senders can never rewind it. It reports whether it changed.
func (c *Conversation) Touch(at time.Time) bool {
	if c.LastMessageAt != nil && !at.After(*c.LastMessageAt) {
		return false
	}
	c.LastMessageAt = &at
	return true
}

// Participant links a user to a conversation. A user appears at most once per conversation.
type Participant struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
}
