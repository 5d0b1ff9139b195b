//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"pairchat/domain/chat"
	apperr "pairchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IUserRepository interface {
	CreateUser(username, hashedPassword string, at time.Time) (chat.User, error)
	GetUserByUsername(username string) (chat.User, error)
	// GetUsersByIDs fetches all requested users in a single read transaction.
	// Unknown ids are skipped; duplicates are returned once.
	GetUsersByIDs(ids []chat.UserID) ([]chat.User, error)
	ListUsers() ([]chat.User, error)
}

type UserRepository struct {
	store *Store
	log   *slog.Logger
}

func NewUserRepository(store *Store, log *slog.Logger) IUserRepository {
	return &UserRepository{store: store, log: log}
}

type diskUser struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

// CreateUser persists the user and its username index in one transaction.
// It fails with ErrDuplicateUsername if the username is taken.
func (u *UserRepository) CreateUser(username, hashedPassword string, at time.Time) (chat.User, error) {
	id, err := next(u.store.userSeq)
	if err != nil {
		return chat.User{}, fmt.Errorf("user id allocation failed: %w", err)
	}
	user := chat.User{
		ID:           chat.UserID(id),
		Username:     username,
		PasswordHash: hashedPassword,
		CreatedAt:    at.UTC(),
	}

	err = u.store.update(func(txn *badger.Txn) error {
		taken, err := exists(txn, usernameKey(username))
		if err != nil {
			return err
		}
		if taken {
			return apperr.ErrDuplicateUsername
		}
		if err := txn.Set(usernameKey(username), []byte(user.ID.String())); err != nil {
			return err
		}
		return setJSON(txn, userKey(user.ID), fromUser(user))
	})
	if err != nil {
		return chat.User{}, err
	}

	u.log.Debug("User created", "user_id", user.ID, "username", username)
	return user, nil
}

func (u *UserRepository) GetUserByUsername(username string) (chat.User, error) {
	var du diskUser
	err := u.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		var id chat.UserID
		err = item.Value(func(val []byte) error {
			parsed, err := strconv.ParseUint(string(val), 10, 64)
			id = chat.UserID(parsed)
			return err
		})
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &du)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return chat.User{}, apperr.ErrUserNotFound
	}
	if err != nil {
		return chat.User{}, err
	}
	return toUser(du), nil
}

func (u *UserRepository) GetUsersByIDs(ids []chat.UserID) ([]chat.User, error) {
	var users []chat.User
	err := u.store.db.View(func(txn *badger.Txn) error {
		for _, id := range lo.Uniq(ids) {
			var du diskUser
			err := getJSON(txn, userKey(id), &du)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			users = append(users, toUser(du))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ListUsers returns every user ordered by id.
func (u *UserRepository) ListUsers() ([]chat.User, error) {
	var users []chat.User
	prefix := []byte(userPrefix)
	err := u.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var du diskUser
				if err := json.Unmarshal(val, &du); err != nil {
					return err
				}
				users = append(users, toUser(du))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func fromUser(user chat.User) diskUser {
	return diskUser{
		ID:           uint64(user.ID),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    toUnix(user.CreatedAt),
	}
}

func toUser(du diskUser) chat.User {
	return chat.User{
		ID:           chat.UserID(du.ID),
		Username:     du.Username,
		PasswordHash: du.PasswordHash,
		CreatedAt:    fromUnix(du.CreatedAt),
	}
}
