package caseflow

import (
	"context"

	"caseflow.org/internal/audit"
)

// CaseFilter narrows a case listing. Zero fields match everything.
type CaseFilter struct {
	Status      Status
	InspectorID string
	HospitalID  string
	Limit       int
}

// Store describes persistence for cases. ApplyTransition is the critical
// member: the case write and the audit append happen in one storage
// transaction, so a transition can never be observed without its record.
type Store interface {
	Create(ctx context.Context, c *Case) error
	Find(ctx context.Context, id string) (*Case, error)
	FindByNumber(ctx context.Context, caseNumber string) (*Case, error)
	List(ctx context.Context, f CaseFilter) ([]*Case, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id string) error
	ApplyTransition(ctx context.Context, c *Case, entry audit.Entry) error
}

// MediaStore persists case attachments.
type MediaStore interface {
	Add(ctx context.Context, m *Media) error
	ListByCase(ctx context.Context, caseID string) ([]*Media, error)
	Delete(ctx context.Context, id string) error
}

// DraftStore persists per-user scratch drafts. One draft per user.
type DraftStore interface {
	Save(ctx context.Context, d *Draft) error
	FindByUser(ctx context.Context, userID string) (*Draft, error)
	DeleteByUser(ctx context.Context, userID string) error
}
