package badgerdb

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/caseflow"
)

// Drafts exposes the per-user scratch draft collection.
func (s *Store) Drafts() caseflow.DraftStore { return &draftStore{db: s.db} }

type draftStore struct {
	db *badger.DB
}

var _ caseflow.DraftStore = (*draftStore)(nil)

func (ds *draftStore) Save(ctx context.Context, d *caseflow.Draft) error {
	return ds.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, draftKey(d.UserID), d)
	})
}

func (ds *draftStore) FindByUser(ctx context.Context, userID string) (*caseflow.Draft, error) {
	var d caseflow.Draft
	err := ds.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, draftKey(userID), &d)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: draft for user %s", caseflow.ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (ds *draftStore) DeleteByUser(ctx context.Context, userID string) error {
	err := ds.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(draftKey(userID)); err != nil {
			return err
		}
		return txn.Delete(draftKey(userID))
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: draft for user %s", caseflow.ErrNotFound, userID)
	}
	return err
}
