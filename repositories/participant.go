//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	stderrors "errors"
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IParticipantRepository interface {
	Add(participant domain.Participant) error
	IsParticipant(conversationID, userID string) (bool, error)
	ListByUser(userID string) ([]domain.Participant, error)
	ListByConversation(conversationID string) ([]domain.Participant, error)
}

// ParticipantRepository stores each membership twice so both directions are a prefix scan:
//
//	participant:{conversation_id}:{user_id}
//	membership:{user_id}:{conversation_id}
type ParticipantRepository struct {
	db *badger.DB
}

func NewParticipantRepository(db *badger.DB) ParticipantRepository {
	return ParticipantRepository{db: db}
}

func participantKey(conversationID, userID string) string {
	return fmt.Sprintf("participant:%s:%s", conversationID, userID)
}

func membershipKey(userID, conversationID string) string {
	return fmt.Sprintf("membership:%s:%s", userID, conversationID)
}

// Add inserts the membership. A second insert of the same pair fails with ErrAlreadyParticipant.
// Badger's optimistic transactions make two concurrent inserts conflict, never both succeed.
func (p ParticipantRepository) Add(participant domain.Participant) error {
	if !validSegments(participant.ConversationID, participant.UserID) {
		return errors.ErrInvalidID
	}
	err := p.db.Update(func(txn *badger.Txn) error {
		key := participantKey(participant.ConversationID, participant.UserID)
		if _, err := txn.Get([]byte(key)); err == nil {
			return errors.ErrAlreadyParticipant
		} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, key, participant); err != nil {
			return err
		}
		return setJSON(txn, membershipKey(participant.UserID, participant.ConversationID), participant)
	})
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, errors.ErrAlreadyParticipant):
		return err
	case stderrors.Is(err, badger.ErrConflict):
		return errors.ErrAlreadyParticipant
	default:
		return storeErr(err)
	}
}

func (p ParticipantRepository) IsParticipant(conversationID, userID string) (bool, error) {
	if !validSegments(conversationID, userID) {
		return false, nil
	}
	err := p.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(participantKey(conversationID, userID)))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, storeErr(err)
	}
}

func (p ParticipantRepository) ListByUser(userID string) ([]domain.Participant, error) {
	if !validSegments(userID) {
		return nil, nil
	}
	var participants []domain.Participant
	err := p.db.View(func(txn *badger.Txn) (err error) {
		participants, err = scanPrefix[domain.Participant](txn, fmt.Sprintf("membership:%s:", userID))
		return err
	})
	return participants, storeErr(err)
}

func (p ParticipantRepository) ListByConversation(conversationID string) ([]domain.Participant, error) {
	if !validSegments(conversationID) {
		return nil, nil
	}
	var participants []domain.Participant
	err := p.db.View(func(txn *badger.Txn) (err error) {
		participants, err = scanPrefix[domain.Participant](txn, fmt.Sprintf("participant:%s:", conversationID))
		return err
	})
	return participants, storeErr(err)
}
