//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/errors"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error)
	MarkAsRead(conversationID, readerID string) (int, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	mu            *sync.Mutex
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages, mu: &sync.Mutex{}}
}

func messagePrefix(conversationID string) string {
	return fmt.Sprintf("msg:%s:", conversationID)
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{conversation_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func (m MessageRepository) StoreMessage(message domain.Message) error {
	if err := message.Validate(); err != nil {
		return err
	}
	if !validSegments(message.ConversationID) {
		return errors.ErrInvalidID
	}
	key := fmt.Sprintf("%s%019d:%s",
		messagePrefix(message.ConversationID),
		message.SentAt.UnixNano(),
		message.ID,
	)
	return storeErr(m.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, key, message)
	}))
}

// GetMessages retrieves messages of a conversation, newest first, using a reverse prefix scan.
// The returned cursor is the key suffix of the last message read; pass it back to get the next page.
func (m MessageRepository) GetMessages(conversationID string, cursor *string) ([]domain.Message, *string, error) {
	if !validSegments(conversationID) {
		return nil, nil, nil
	}
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := messagePrefix(conversationID)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start after the newest possible key, then walk back in time
			seekKey = append([]byte(prefixStr), []byte("9999999999999999999")...)
		default:
			seekKey = append([]byte(prefixStr), []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()[prefixLen:]) == *cursor {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[prefixLen:])
			var message domain.Message
			if err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			}); err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return messages, &lastKey, nil
}

// MarkAsRead flips every unread message of the conversation not sent by readerID
// in one transaction, and returns how many changed.
// Calls are serialized: of two concurrent calls the second one reports 0.
func (m MessageRepository) MarkAsRead(conversationID, readerID string) (int, error) {
	if !validSegments(conversationID) {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	err := m.db.Update(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(conversationID))
		type pending struct {
			key     []byte
			message domain.Message
		}
		var updates []pending

		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var message domain.Message
			if err := item.Value(func(value []byte) error {
				return json.Unmarshal(value, &message)
			}); err != nil {
				it.Close()
				return err
			}
			if message.IsRead || message.SenderID == readerID {
				continue
			}
			message.IsRead = true
			updates = append(updates, pending{key: item.KeyCopy(nil), message: message})
		}
		it.Close()

		for _, u := range updates {
			data, err := json.Marshal(u.message)
			if err != nil {
				return err
			}
			if err := txn.Set(u.key, data); err != nil {
				return err
			}
		}
		count = len(updates)
		return nil
	})
	if err != nil {
		return 0, storeErr(err)
	}
	return count, nil
}
