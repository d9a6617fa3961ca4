//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"kinder-chat/domain"
	"kinder-chat/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IConversationRepository interface {
	Create(conversation domain.Conversation, participants ...domain.Participant) error
	Get(conversationID string) (domain.Conversation, error)
	TouchLastMessage(conversationID string, at time.Time) (bool, error)
}

type ConversationRepository struct {
	db  *badger.DB
	log *slog.Logger
	mu  *sync.Mutex
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) ConversationRepository {
	return ConversationRepository{db: db, log: log, mu: &sync.Mutex{}}
}

func conversationKey(id string) string {
	return "conversation:" + id
}

// Create persists a new conversation and its first participants in one transaction,
// so a failure leaves neither behind. The id must not be taken yet.
func (c ConversationRepository) Create(conversation domain.Conversation, participants ...domain.Participant) error {
	if !validSegments(conversation.ID) {
		return errors.ErrInvalidID
	}
	for _, participant := range participants {
		if participant.ConversationID != conversation.ID || !validSegments(participant.UserID) {
			return errors.ErrInvalidID
		}
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		key := conversationKey(conversation.ID)
		if _, err := txn.Get([]byte(key)); err == nil {
			return errors.ErrConversationExists
		}
		if err := setJSON(txn, key, conversation); err != nil {
			return err
		}
		for _, participant := range participants {
			if err := setJSON(txn, participantKey(conversation.ID, participant.UserID), participant); err != nil {
				return err
			}
			if err := setJSON(txn, membershipKey(participant.UserID, conversation.ID), participant); err != nil {
				return err
			}
		}
		return nil
	})
	if err == errors.ErrConversationExists {
		return err
	}
	return storeErr(err)
}

func (c ConversationRepository) Get(conversationID string) (domain.Conversation, error) {
	if !validSegments(conversationID) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	var conversation domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, conversationKey(conversationID), &conversation, errors.ErrConversationNotFound)
	})
	if err == errors.ErrConversationNotFound {
		return domain.Conversation{}, err
	}
	return conversation, storeErr(err)
}

// TouchLastMessage bumps LastMessageAt to at unless a later message already did.
// Calls are serialized so two concurrent senders never conflict on the same key.
func (c ConversationRepository) TouchLastMessage(conversationID string, at time.Time) (bool, error) {
	if !validSegments(conversationID) {
		return false, errors.ErrConversationNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var touched bool
	err := c.db.Update(func(txn *badger.Txn) error {
		var conversation domain.Conversation
		key := conversationKey(conversationID)
		if err := getJSON(txn, key, &conversation, errors.ErrConversationNotFound); err != nil {
			return err
		}
		if touched = conversation.Touch(at); !touched {
			return nil
		}
		return setJSON(txn, key, conversation)
	})
	if err == errors.ErrConversationNotFound {
		return false, err
	}
	return touched, storeErr(err)
}
