package badgerdb

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/auth"
)

// Sessions exposes the single signed session record.
func (s *Store) Sessions() auth.SessionStore { return &sessionStore{db: s.db} }

type sessionStore struct {
	db *badger.DB
}

var _ auth.SessionStore = (*sessionStore)(nil)

func (ss *sessionStore) Get(ctx context.Context) (string, error) {
	var token string
	err := ss.db.View(func(txn *badger.Txn) error {
		var err error
		token, err = getString(txn, sessionKey())
		return err
	})
	if isNotFound(err) {
		return "", auth.ErrNotFound
	}
	return token, err
}

func (ss *sessionStore) Put(ctx context.Context, token string) error {
	return ss.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(), []byte(token))
	})
}

func (ss *sessionStore) Delete(ctx context.Context) error {
	err := ss.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey())
	})
	if isNotFound(err) {
		return nil
	}
	return err
}
