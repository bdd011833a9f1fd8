package badgerdb

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
	"caseflow.org/internal/caseflow"
)

// Cases exposes the case collection.
func (s *Store) Cases() caseflow.Store { return &caseStore{db: s.db} }

// Assignments exposes the referential guard used before user deletion.
func (s *Store) Assignments() auth.AssignmentChecker { return &caseStore{db: s.db} }

type caseStore struct {
	db *badger.DB
}

var (
	_ caseflow.Store         = (*caseStore)(nil)
	_ auth.AssignmentChecker = (*caseStore)(nil)
)

func (cs *caseStore) Create(ctx context.Context, c *caseflow.Case) error {
	return cs.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(caseNumberKey(c.CaseNumber)); err == nil {
			return fmt.Errorf("%w: case number %s", caseflow.ErrAlreadyExists, c.CaseNumber)
		} else if !isNotFound(err) {
			return err
		}
		if err := setJSON(txn, caseKey(c.ID), c); err != nil {
			return err
		}
		if err := txn.Set(caseNumberKey(c.CaseNumber), []byte(c.ID)); err != nil {
			return err
		}
		if err := txn.Set(inspectorIdxKey(c.InspectorID, c.ID), nil); err != nil {
			return err
		}
		return txn.Set(statusIdxKey(string(c.Status), c.ID), nil)
	})
}

func (cs *caseStore) Find(ctx context.Context, id string) (*caseflow.Case, error) {
	var c caseflow.Case
	err := cs.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, caseKey(id), &c)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: case %s", caseflow.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (cs *caseStore) FindByNumber(ctx context.Context, caseNumber string) (*caseflow.Case, error) {
	var c caseflow.Case
	err := cs.db.View(func(txn *badger.Txn) error {
		id, err := getString(txn, caseNumberKey(caseNumber))
		if err != nil {
			return err
		}
		return getJSON(txn, caseKey(id), &c)
	})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: case number %s", caseflow.ErrNotFound, caseNumber)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (cs *caseStore) List(ctx context.Context, f caseflow.CaseFilter) ([]*caseflow.Case, error) {
	var cases []*caseflow.Case
	err := cs.db.View(func(txn *badger.Txn) error {
		ids, err := cs.candidateIDs(txn, f)
		if err != nil {
			return err
		}
		for _, id := range ids {
			var c caseflow.Case
			if err := getJSON(txn, caseKey(id), &c); err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			if f.Status != "" && c.Status != f.Status {
				continue
			}
			if f.InspectorID != "" && c.InspectorID != f.InspectorID {
				continue
			}
			if f.HospitalID != "" && c.HospitalID != f.HospitalID {
				continue
			}
			cases = append(cases, &c)
			if f.Limit > 0 && len(cases) >= f.Limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Newest first: ULIDs sort chronologically.
	sort.Slice(cases, func(i, j int) bool { return cases[i].ID > cases[j].ID })
	return cases, nil
}

// candidateIDs picks the narrower index for the filter, newest first.
func (cs *caseStore) candidateIDs(txn *badger.Txn, f caseflow.CaseFilter) ([]string, error) {
	var prefix []byte
	switch {
	case f.InspectorID != "":
		prefix = []byte(prefixInspectorIdx + f.InspectorID + "/")
	case f.Status != "":
		prefix = []byte(prefixStatusIdx + string(f.Status) + "/")
	default:
		prefix = []byte(prefixCase)
	}
	keys := keysWithPrefix(txn, prefix)
	ids := make([]string, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		ids = append(ids, tailID(keys[i]))
	}
	return ids, nil
}

func (cs *caseStore) Update(ctx context.Context, c *caseflow.Case) error {
	err := cs.db.Update(func(txn *badger.Txn) error {
		return cs.writeCase(txn, c)
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: case %s", caseflow.ErrNotFound, c.ID)
	}
	return err
}

// ApplyTransition persists the case and appends its audit entry in a single
// transaction: a status change can never be observed without its record.
func (cs *caseStore) ApplyTransition(ctx context.Context, c *caseflow.Case, entry audit.Entry) error {
	err := cs.db.Update(func(txn *badger.Txn) error {
		if err := cs.writeCase(txn, c); err != nil {
			return err
		}
		return appendEntry(txn, entry)
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: case %s", caseflow.ErrNotFound, c.ID)
	}
	return err
}

// writeCase rewrites the record and keeps the inspector and status indexes
// in step with the previous version.
func (cs *caseStore) writeCase(txn *badger.Txn, c *caseflow.Case) error {
	var existing caseflow.Case
	if err := getJSON(txn, caseKey(c.ID), &existing); err != nil {
		return err
	}
	if existing.Status != c.Status {
		if err := txn.Delete(statusIdxKey(string(existing.Status), c.ID)); err != nil {
			return err
		}
		if err := txn.Set(statusIdxKey(string(c.Status), c.ID), nil); err != nil {
			return err
		}
	}
	if existing.InspectorID != c.InspectorID {
		if err := txn.Delete(inspectorIdxKey(existing.InspectorID, c.ID)); err != nil {
			return err
		}
		if err := txn.Set(inspectorIdxKey(c.InspectorID, c.ID), nil); err != nil {
			return err
		}
	}
	return setJSON(txn, caseKey(c.ID), c)
}

func (cs *caseStore) Delete(ctx context.Context, id string) error {
	err := cs.db.Update(func(txn *badger.Txn) error {
		var existing caseflow.Case
		if err := getJSON(txn, caseKey(id), &existing); err != nil {
			return err
		}
		for _, key := range [][]byte{
			caseNumberKey(existing.CaseNumber),
			inspectorIdxKey(existing.InspectorID, id),
			statusIdxKey(string(existing.Status), id),
			caseKey(id),
		} {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if isNotFound(err) {
		return fmt.Errorf("%w: case %s", caseflow.ErrNotFound, id)
	}
	return err
}

// HasUnresolvedCases reports whether the inspector still owns cases that
// have not reached a terminal status. Backs the user-deletion guard.
func (cs *caseStore) HasUnresolvedCases(ctx context.Context, inspectorID string) (bool, error) {
	found := false
	err := cs.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixInspectorIdx + inspectorID + "/")
		for _, key := range keysWithPrefix(txn, prefix) {
			var c caseflow.Case
			if err := getJSON(txn, caseKey(tailID(key)), &c); err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			if !c.Status.Terminal() {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}
