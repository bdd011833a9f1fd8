// Package caseflow owns the case entity, its lifecycle state machine and the
// access policy deciding who may move a case between statuses.
package caseflow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the closed set of lifecycle states. Callers never branch on raw
// strings; every move goes through the central transition table.
type Status string

const (
	StatusNew                  Status = "new"
	StatusInspected            Status = "inspected"
	StatusPendingRevision      Status = "pending_revision"
	StatusPendingConsideration Status = "pending_consideration"
	StatusDataVerification     Status = "data_verification"
	StatusWaitingDocuments     Status = "waiting_documents"
	StatusApproved             Status = "approved"
	StatusRejected             Status = "rejected"
	StatusClosed               Status = "closed"
)

// ParseStatus normalizes and validates a status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.TrimSpace(strings.ToLower(s)))
	switch st {
	case StatusNew, StatusInspected, StatusPendingRevision, StatusPendingConsideration,
		StatusDataVerification, StatusWaitingDocuments, StatusApproved, StatusRejected, StatusClosed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
	}
}

// Resolved reports whether the case reached a resolution (approved or
// rejected). Resolved cases are eligible for administrative closure.
func (s Status) Resolved() bool {
	return s == StatusApproved || s == StatusRejected
}

// Terminal reports whether no further review transition can apply.
func (s Status) Terminal() bool {
	return s.Resolved() || s == StatusClosed
}

var (
	ErrNotFound          = errors.New("caseflow: not found")
	ErrAlreadyExists     = errors.New("caseflow: already exists")
	ErrInvalidInput      = errors.New("caseflow: invalid input")
	ErrInvalidTransition = errors.New("caseflow: invalid transition")
	ErrValidation        = errors.New("caseflow: validation failed")
)

// Case is one accident-verification record moving through the workflow.
// Exactly one inspector owns the inspect transition.
type Case struct {
	ID                   string    `json:"id"`
	CaseNumber           string    `json:"case_number"`
	Status               Status    `json:"status"`
	InspectorID          string    `json:"inspector_id"`
	HospitalID           string    `json:"hospital_id,omitempty"`
	AccidentDate         time.Time `json:"accident_date"`
	Deadline             time.Time `json:"deadline,omitempty"`
	Description          string    `json:"description,omitempty"`
	PDPAConsent          bool      `json:"pdpa_consent"`
	InspectorComment     string    `json:"inspector_comment,omitempty"`
	HospitalStaffComment string    `json:"hospital_staff_comment,omitempty"`
	SignatureData        string    `json:"signature_data,omitempty"`
	ReviewComment        string    `json:"review_comment,omitempty"`
	CreatedByID          string    `json:"created_by_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Snapshot is the slice of case state the access policy looks at.
type Snapshot struct {
	Status      Status
	InspectorID string
}

// Snapshot extracts the policy-relevant view of the case.
func (c *Case) Snapshot() Snapshot {
	return Snapshot{Status: c.Status, InspectorID: c.InspectorID}
}

// Media is an attachment collected during inspection. Append-only: entries
// are added or administratively deleted, never mutated.
type Media struct {
	ID           string    `json:"id"`
	CaseID       string    `json:"case_id"`
	Type         string    `json:"type"`
	Payload      []byte    `json:"payload"`
	UploadedByID string    `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// Draft is the scratch copy of an in-progress form, owned by its author.
// Saving a draft never advances a case status.
type Draft struct {
	ID      string         `json:"id"`
	UserID  string         `json:"user_id"`
	CaseID  string         `json:"case_id,omitempty"`
	Fields  map[string]any `json:"fields"`
	SavedAt time.Time      `json:"saved_at"`
}
