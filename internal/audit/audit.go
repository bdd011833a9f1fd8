// Package audit keeps the append-only record of every state-changing action.
// Entries are immutable once written and are the sole source of truth for
// compliance and activity reports.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"caseflow.org/internal/ids"
)

// Actions recorded in the log. Kept as plain strings in storage so old
// entries survive renames in code.
const (
	ActionLogin   = "login"
	ActionLogout  = "logout"
	ActionCreate  = "create"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionReturn  = "return"
)

// Entity types referenced by entries.
const (
	EntityUser  = "user"
	EntityCase  = "case"
	EntityMedia = "case_media"
)

var ErrInvalidEntry = errors.New("audit: invalid entry")

// Entry is one immutable record of a state-changing action.
// IDs are ULIDs, so the natural key order is chronological.
type Entry struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name"`
	UserRole   string          `json:"user_role"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Actor identifies who performed the action being recorded.
type Actor struct {
	UserID   string
	UserName string
	UserRole string
}

// Filter narrows a log query. Zero fields match everything.
type Filter struct {
	UserID     string
	EntityType string
	EntityID   string
	Action     string
	From       time.Time
	To         time.Time
	Limit      int
}

// Matches reports whether the entry satisfies every set filter dimension.
func (f Filter) Matches(e Entry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && e.EntityID != f.EntityID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// Store is the persistence surface required by the recorder. Append is the
// only write; entries are never updated.
type Store interface {
	Append(ctx context.Context, e Entry) error
	// Query returns entries newest-first. Implementations serve the filter
	// from index keys rather than a full scan.
	Query(ctx context.Context, f Filter) ([]Entry, error)
	// Purge removes every entry. Destructive; the caller layer restricts it
	// to the highest-privilege role.
	Purge(ctx context.Context) error
}

// Recorder appends and reads audit entries. Policy enforcement for
// destructive operations belongs to callers.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder builds a recorder over the given store.
func NewRecorder(store Store, now func() time.Time) (*Recorder, error) {
	if store == nil {
		return nil, errors.New("audit: store is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, now: now}, nil
}

// NewEntry builds (but does not persist) an entry for the given action.
// Use it when the entry must be written atomically with another mutation.
func (r *Recorder) NewEntry(actor Actor, action, entityType, entityID string, before, after any) (Entry, error) {
	action = strings.TrimSpace(action)
	entityType = strings.TrimSpace(entityType)
	if action == "" || entityType == "" {
		return Entry{}, ErrInvalidEntry
	}
	e := Entry{
		ID:         ids.New(),
		UserID:     actor.UserID,
		UserName:   actor.UserName,
		UserRole:   actor.UserRole,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Timestamp:  r.now().UTC(),
	}
	var err error
	if e.Before, err = marshalValue(before); err != nil {
		return Entry{}, err
	}
	if e.After, err = marshalValue(after); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Log builds and appends an entry. Persistence errors propagate to the
// caller; there is no automatic retry.
func (r *Recorder) Log(ctx context.Context, actor Actor, action, entityType, entityID string, before, after any) (Entry, error) {
	e, err := r.NewEntry(actor, action, entityType, entityID, before, after)
	if err != nil {
		return Entry{}, err
	}
	if err := r.store.Append(ctx, e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Query returns matching entries ordered newest-first.
func (r *Recorder) Query(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit < 0 {
		f.Limit = 0
	}
	return r.store.Query(ctx, f)
}

// ClearAll irreversibly wipes the log.
func (r *Recorder) ClearAll(ctx context.Context) error {
	return r.store.Purge(ctx)
}

func marshalValue(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return data, nil
}
