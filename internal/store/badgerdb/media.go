package badgerdb

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/caseflow"
)

// Media exposes the case attachment collection.
func (s *Store) Media() caseflow.MediaStore { return &mediaStore{db: s.db} }

type mediaStore struct {
	db *badger.DB
}

var _ caseflow.MediaStore = (*mediaStore)(nil)

func (ms *mediaStore) Add(ctx context.Context, m *caseflow.Media) error {
	return ms.db.Update(func(txn *badger.Txn) error {
		if err := setJSON(txn, mediaKey(m.ID), m); err != nil {
			return err
		}
		return txn.Set(mediaCaseIdxKey(m.CaseID, m.ID), nil)
	})
}

func (ms *mediaStore) ListByCase(ctx context.Context, caseID string) ([]*caseflow.Media, error) {
	var media []*caseflow.Media
	err := ms.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixMediaCaseIdx + caseID + "/")
		for _, key := range keysWithPrefix(txn, prefix) {
			var m caseflow.Media
			if err := getJSON(txn, mediaKey(tailID(key)), &m); err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			media = append(media, &m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return media, nil
}

func (ms *mediaStore) Delete(ctx context.Context, id string) error {
	err := ms.db.Update(func(txn *badger.Txn) error {
		var existing caseflow.Media
		if err := getJSON(txn, mediaKey(id), &existing); err != nil {
			return err
		}
		if err := txn.Delete(mediaCaseIdxKey(existing.CaseID, id)); err != nil {
			return err
		}
		return txn.Delete(mediaKey(id))
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: media %s", caseflow.ErrNotFound, id)
	}
	return err
}
