package badgerdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/auth"
)

// Users exposes the user collection.
func (s *Store) Users() auth.UserStore { return &userStore{db: s.db} }

type userStore struct {
	db *badger.DB
}

var _ auth.UserStore = (*userStore)(nil)

func (u *userStore) Create(ctx context.Context, user *auth.User) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(usernameKey(user.Username)); err == nil {
			return fmt.Errorf("%w: username %s", auth.ErrAlreadyExists, user.Username)
		} else if !isNotFound(err) {
			return err
		}
		if err := setJSON(txn, userKey(user.ID), user); err != nil {
			return err
		}
		return txn.Set(usernameKey(user.Username), []byte(user.ID))
	})
}

func (u *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	var user auth.User
	err := u.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &user)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: user %s", auth.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	var user auth.User
	err := u.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, usernameKey(username))
		if err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &user)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: username %s", auth.ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *userStore) List(ctx context.Context) ([]*auth.User, error) {
	var users []*auth.User
	err := u.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixUser)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			var user auth.User
			if err := it.Item().Value(func(data []byte) error {
				return json.Unmarshal(data, &user)
			}); err != nil {
				return err
			}
			users = append(users, &user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (u *userStore) Update(ctx context.Context, user *auth.User) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		var existing auth.User
		if err := getJSON(txn, userKey(user.ID), &existing); err != nil {
			return err
		}
		// Username is immutable; the index stays put.
		user.Username = existing.Username
		return setJSON(txn, userKey(user.ID), user)
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: user %s", auth.ErrNotFound, user.ID)
	}
	return err
}

func (u *userStore) Delete(ctx context.Context, id string) error {
	err := u.db.Update(func(txn *badger.Txn) error {
		var existing auth.User
		if err := getJSON(txn, userKey(id), &existing); err != nil {
			return err
		}
		if err := txn.Delete(usernameKey(existing.Username)); err != nil {
			return err
		}
		return txn.Delete(userKey(id))
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: user %s", auth.ErrNotFound, id)
	}
	return err
}
