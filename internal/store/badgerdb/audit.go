package badgerdb

import (
	"context"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/audit"
)

// Audit exposes the append-only audit log.
func (s *Store) Audit() audit.Store { return &auditStore{db: s.db} }

type auditStore struct {
	db *badger.DB
}

var _ audit.Store = (*auditStore)(nil)

func (as *auditStore) Append(ctx context.Context, e audit.Entry) error {
	return as.db.Update(func(txn *badger.Txn) error {
		return appendEntry(txn, e)
	})
}

// appendEntry writes the entry and its index keys inside the caller's
// transaction so ApplyTransition can share it with a case write.
func appendEntry(txn *badger.Txn, e audit.Entry) error {
	if err := setJSON(txn, auditKey(e.ID), e); err != nil {
		return err
	}
	if e.UserID != "" {
		if err := txn.Set(auditUserIdxKey(e.UserID, e.ID), nil); err != nil {
			return err
		}
	}
	if e.EntityID != "" {
		if err := txn.Set(auditEntityIdxKey(e.EntityType, e.EntityID, e.ID), nil); err != nil {
			return err
		}
	}
	return txn.Set(auditActionIdxKey(e.Action, e.ID), nil)
}

// Query serves the filter from the narrowest matching index and walks it in
// reverse, so results come back newest-first without a full scan. Entry ids
// are ULIDs: key order within any prefix is chronological.
func (as *auditStore) Query(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var entries []audit.Entry
	err := as.db.View(func(txn *badger.Txn) error {
		prefix, indexed := queryPrefix(f)
		keys := keysWithPrefix(txn, prefix)
		for i := len(keys) - 1; i >= 0; i-- {
			id := string(keys[i])
			if indexed {
				id = tailID(keys[i])
			} else {
				id = strings.TrimPrefix(id, prefixAudit)
			}
			var e audit.Entry
			if err := getJSON(txn, auditKey(id), &e); err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			// Reverse-chronological walk: past the From bound nothing
			// older can match.
			if !f.From.IsZero() && e.Timestamp.Before(f.From) {
				break
			}
			if !f.Matches(e) {
				continue
			}
			entries = append(entries, e)
			if f.Limit > 0 && len(entries) >= f.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID > entries[j].ID })
	return entries, nil
}

// queryPrefix picks the narrowest index for the filter dimensions.
func queryPrefix(f audit.Filter) (prefix []byte, indexed bool) {
	switch {
	case f.EntityType != "" && f.EntityID != "":
		return []byte(prefixAuditEntity + f.EntityType + "/" + f.EntityID + "/"), true
	case f.UserID != "":
		return []byte(prefixAuditUserIdx + f.UserID + "/"), true
	case f.Action != "":
		return []byte(prefixAuditAction + f.Action + "/"), true
	default:
		return []byte(prefixAudit), false
	}
}

// Purge wipes the log and all of its indexes. Irreversible.
func (as *auditStore) Purge(ctx context.Context) error {
	return as.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{prefixAudit, prefixAuditUserIdx, prefixAuditEntity, prefixAuditAction} {
			if err := deleteWithPrefix(txn, []byte(prefix)); err != nil {
				return err
			}
		}
		return nil
	})
}
