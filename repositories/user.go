package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"chat-hub/domain"
	"chat-hub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(username, email, avatar, passwordHash string) (domain.User, error)
	FindByID(id string) (domain.User, error)
	// FindByEmail also returns the stored password hash for login checks.
	FindByEmail(email string) (domain.User, string, error)
	// FindExcluding lists the directory without selfID, sorted by
	// (isOnline desc, lastSeen desc) and bounded by limit. An empty
	// selfID returns the full directory.
	FindExcluding(selfID string, limit int) ([]domain.User, error)
	UpdatePresence(id string, online bool, lastSeen time.Time) error
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// diskUser is the stored account record. The password hash never leaves
// the repository except through FindByEmail.
type diskUser struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"passwordHash"`
	IsOnline     bool      `json:"isOnline"`
	LastSeen     time.Time `json:"lastSeen"`
	CreatedAt    time.Time `json:"createdAt"`
}

func userKey(id string) []byte { return []byte("user:" + id) }

func emailKey(email string) []byte { return []byte("email:" + email) }

// Create persists a new account under "user:{id}" with an "email:{email}"
// index for login lookups. The email must be unused.
func (u *UserRepository) Create(username, email, avatar, passwordHash string) (domain.User, error) {
	now := time.Now().UTC()
	du := diskUser{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Avatar:       avatar,
		PasswordHash: passwordHash,
		LastSeen:     now,
		CreatedAt:    now,
	}
	data, err := json.Marshal(du)
	if err != nil {
		return domain.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey(email), []byte(du.ID)); err != nil {
			return err
		}
		return txn.Set(userKey(du.ID), data)
	})
	if err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

func (u *UserRepository) FindByID(id string) (domain.User, error) {
	du, err := u.getUser(id)
	if err != nil {
		return domain.User{}, err
	}
	return toUser(du), nil
}

func (u *UserRepository) FindByEmail(email string) (domain.User, string, error) {
	var id string
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		return domain.User{}, "", mapStorageErr(err)
	}
	du, err := u.getUser(id)
	if err != nil {
		return domain.User{}, "", err
	}
	return toUser(du), du.PasswordHash, nil
}

func (u *UserRepository) FindExcluding(selfID string, limit int) ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte("user:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var du diskUser
				if err := json.Unmarshal(val, &du); err != nil {
					return err
				}
				if du.ID != selfID {
					users = append(users, toUser(du))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapStorageErr(err)
	}

	// Online users first, most recently seen first within each group.
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].IsOnline != users[j].IsOnline {
			return users[i].IsOnline
		}
		return users[i].LastSeen.After(users[j].LastSeen)
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// UpdatePresence rewrites isOnline and lastSeen in a single transaction.
func (u *UserRepository) UpdatePresence(id string, online bool, lastSeen time.Time) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		var du diskUser
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		}); err != nil {
			return err
		}
		du.IsOnline = online
		du.LastSeen = lastSeen.UTC()
		data, err := json.Marshal(du)
		if err != nil {
			return err
		}
		return txn.Set(userKey(id), data)
	})
	return mapStorageErr(err)
}

func (u *UserRepository) getUser(id string) (diskUser, error) {
	var du diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &du)
		})
	})
	if err != nil {
		return diskUser{}, mapStorageErr(err)
	}
	return du, nil
}

func mapStorageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrNotFound
	default:
		return fmt.Errorf("%w: %v", errors.ErrStorage, err)
	}
}

func toUser(du diskUser) domain.User {
	return domain.User{
		ID:       du.ID,
		Username: du.Username,
		Avatar:   du.Avatar,
		IsOnline: du.IsOnline,
		LastSeen: du.LastSeen.UTC(),
	}
}
