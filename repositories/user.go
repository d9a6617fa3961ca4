//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"kinder-chat/domain"
	"kinder-chat/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	Save(user domain.User) error
	Get(userID string) (domain.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) UserRepository {
	return UserRepository{db: db}
}

func userKey(id string) string {
	return "user:" + id
}

// Save upserts the display fields of a user.
func (u UserRepository) Save(user domain.User) error {
	if !validSegments(user.ID) {
		return errors.ErrInvalidID
	}
	return storeErr(u.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, userKey(user.ID), user)
	}))
}

func (u UserRepository) Get(userID string) (domain.User, error) {
	if !validSegments(userID) {
		return domain.User{}, errors.ErrUserNotFound
	}
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(userID), &user, errors.ErrUserNotFound)
	})
	if err == errors.ErrUserNotFound {
		return domain.User{}, err
	}
	return user, storeErr(err)
}
