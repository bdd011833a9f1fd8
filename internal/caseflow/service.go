package caseflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
	"caseflow.org/internal/ids"
)

// Service is the case lifecycle manager. It validates preconditions, writes
// the new state and records the audit entry; the last two happen atomically
// via Store.ApplyTransition. The acting identity travels in the context
// session.
type Service struct {
	cases  Store
	media  MediaStore
	drafts DraftStore
	users  auth.UserStore

	recorder     *audit.Recorder
	now          func() time.Time
	numberPrefix string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithNumberPrefix overrides the case-number prefix.
func WithNumberPrefix(prefix string) ServiceOption {
	return func(s *Service) error {
		if strings.TrimSpace(prefix) != "" {
			s.numberPrefix = prefix
		}
		return nil
	}
}

// NewService constructs the lifecycle manager.
func NewService(cases Store, media MediaStore, drafts DraftStore, users auth.UserStore, recorder *audit.Recorder, opts ...ServiceOption) (*Service, error) {
	if cases == nil || media == nil || drafts == nil {
		return nil, errors.New("caseflow: case, media and draft stores are required")
	}
	if users == nil {
		return nil, errors.New("caseflow: user store is required")
	}
	if recorder == nil {
		return nil, errors.New("caseflow: audit recorder is required")
	}
	svc := &Service{
		cases:        cases,
		media:        media,
		drafts:       drafts,
		users:        users,
		recorder:     recorder,
		now:          time.Now,
		numberPrefix: "ACV",
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// CreateCaseInput carries the fields to register a new case.
type CreateCaseInput struct {
	InspectorID  string
	HospitalID   string
	AccidentDate time.Time
	Deadline     time.Time
	Description  string
}

// CreateCase registers a case in status new and assigns its owning
// inspector. Administrative roles only (policy edit).
func (s *Service) CreateCase(ctx context.Context, input CreateCaseInput) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, ActionEdit, sess.UserID, Snapshot{}) {
		return nil, auth.ErrForbidden
	}
	input.InspectorID = strings.TrimSpace(input.InspectorID)
	if input.InspectorID == "" {
		return nil, fmt.Errorf("%w: inspector_id is required", ErrInvalidInput)
	}
	if input.AccidentDate.IsZero() {
		return nil, fmt.Errorf("%w: accident_date is required", ErrInvalidInput)
	}
	inspector, err := s.users.Find(ctx, input.InspectorID)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			return nil, fmt.Errorf("%w: inspector %s does not exist", ErrInvalidInput, input.InspectorID)
		}
		return nil, err
	}
	if inspector.Role != auth.RoleInspector {
		return nil, fmt.Errorf("%w: user %s is not an inspector", ErrInvalidInput, input.InspectorID)
	}

	now := s.now().UTC()
	c := &Case{
		ID:           ids.New(),
		CaseNumber:   ids.CaseNumber(s.numberPrefix, now),
		Status:       StatusNew,
		InspectorID:  input.InspectorID,
		HospitalID:   strings.TrimSpace(input.HospitalID),
		AccidentDate: input.AccidentDate,
		Deadline:     input.Deadline,
		Description:  strings.TrimSpace(input.Description),
		CreatedByID:  sess.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Log(ctx, actor(sess), audit.ActionCreate, audit.EntityCase, c.ID, nil, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Case returns one case, honoring the view policy: inspectors see only
// cases they own.
func (s *Service) Case(ctx context.Context, id string) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, ActionView, sess.UserID, c.Snapshot()) {
		return nil, auth.ErrForbidden
	}
	return c, nil
}

// ListCases returns cases matching the filter. For inspectors the filter is
// forced to their own cases regardless of what was asked.
func (s *Service) ListCases(ctx context.Context, f CaseFilter) ([]*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	if sess.Role == auth.RoleInspector {
		f.InspectorID = sess.UserID
	}
	return s.cases.List(ctx, f)
}

// CaseUpdate carries optional field mutations. Nil fields are untouched.
type CaseUpdate struct {
	InspectorID          *string
	HospitalID           *string
	AccidentDate         *time.Time
	Deadline             *time.Time
	Description          *string
	HospitalStaffComment *string
}

// UpdateCase applies a partial field update without touching the status.
// Policy edit; reassigning the inspector validates the new owner.
func (s *Service) UpdateCase(ctx context.Context, id string, upd CaseUpdate) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, ActionEdit, sess.UserID, c.Snapshot()) {
		return nil, auth.ErrForbidden
	}
	before := *c
	if upd.InspectorID != nil {
		inspectorID := strings.TrimSpace(*upd.InspectorID)
		inspector, err := s.users.Find(ctx, inspectorID)
		if err != nil {
			if errors.Is(err, auth.ErrNotFound) {
				return nil, fmt.Errorf("%w: inspector %s does not exist", ErrInvalidInput, inspectorID)
			}
			return nil, err
		}
		if inspector.Role != auth.RoleInspector {
			return nil, fmt.Errorf("%w: user %s is not an inspector", ErrInvalidInput, inspectorID)
		}
		c.InspectorID = inspectorID
	}
	if upd.HospitalID != nil {
		c.HospitalID = strings.TrimSpace(*upd.HospitalID)
	}
	if upd.AccidentDate != nil {
		c.AccidentDate = *upd.AccidentDate
	}
	if upd.Deadline != nil {
		c.Deadline = *upd.Deadline
	}
	if upd.Description != nil {
		c.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.HospitalStaffComment != nil {
		c.HospitalStaffComment = strings.TrimSpace(*upd.HospitalStaffComment)
	}
	c.UpdatedAt = s.now().UTC()
	if err := s.cases.Update(ctx, c); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Log(ctx, actor(sess), audit.ActionUpdate, audit.EntityCase, c.ID, before, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCase removes a case and its media. Policy delete (super_admin).
func (s *Service) DeleteCase(ctx context.Context, id string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	c, err := s.cases.Find(ctx, id)
	if err != nil {
		return err
	}
	if !CanPerform(sess.Role, ActionDelete, sess.UserID, c.Snapshot()) {
		return auth.ErrForbidden
	}
	attachments, err := s.media.ListByCase(ctx, id)
	if err != nil {
		return err
	}
	for _, m := range attachments {
		if err := s.media.Delete(ctx, m.ID); err != nil {
			return err
		}
	}
	if err := s.cases.Delete(ctx, id); err != nil {
		return err
	}
	_, err = s.recorder.Log(ctx, actor(sess), audit.ActionDelete, audit.EntityCase, id, c, nil)
	return err
}

// SubmitInspectionInput carries the findings the inspector signs off.
type SubmitInspectionInput struct {
	Comment       string
	PDPAConsent   bool
	SignatureData string
}

// SubmitInspection records on-site findings and moves the case to
// inspected. Requires PDPA consent, a comment and a signature; only the
// owning inspector may submit, and only from new or pending_revision.
// Submission supersedes any draft the inspector kept for the form.
func (s *Service) SubmitInspection(ctx context.Context, caseID string, input SubmitInspectionInput) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	next, err := Next(c.Status, TransitionSubmit)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, ActionInspect, sess.UserID, c.Snapshot()) {
		return nil, auth.ErrForbidden
	}
	if !input.PDPAConsent {
		return nil, fmt.Errorf("%w: pdpa consent is required", ErrValidation)
	}
	if strings.TrimSpace(input.Comment) == "" {
		return nil, fmt.Errorf("%w: inspector comment is required", ErrValidation)
	}
	if strings.TrimSpace(input.SignatureData) == "" {
		return nil, fmt.Errorf("%w: signature is required", ErrValidation)
	}

	before := *c
	c.Status = next
	c.PDPAConsent = true
	c.InspectorComment = strings.TrimSpace(input.Comment)
	c.SignatureData = input.SignatureData
	c.UpdatedAt = s.now().UTC()

	entry, err := s.recorder.NewEntry(actor(sess), TransitionSubmit, audit.EntityCase, c.ID, before, c)
	if err != nil {
		return nil, err
	}
	if err := s.cases.ApplyTransition(ctx, c, entry); err != nil {
		return nil, err
	}
	// The submitted form supersedes the scratch draft.
	if err := s.drafts.DeleteByUser(ctx, sess.UserID); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return c, nil
}

// Approve resolves a reviewable case as approved.
func (s *Service) Approve(ctx context.Context, caseID string) (*Case, error) {
	return s.review(ctx, caseID, TransitionApprove, ActionApprove, "")
}

// Reject resolves a reviewable case as rejected. Terminal.
func (s *Service) Reject(ctx context.Context, caseID, reason string) (*Case, error) {
	return s.review(ctx, caseID, TransitionReject, ActionReject, reason)
}

// ReturnForRevision sends the case back to its inspector for rework.
func (s *Service) ReturnForRevision(ctx context.Context, caseID, reason string) (*Case, error) {
	return s.review(ctx, caseID, TransitionReturn, ActionReturn, reason)
}

func (s *Service) review(ctx context.Context, caseID, transition string, action Action, reason string) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	next, err := Next(c.Status, transition)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, action, sess.UserID, c.Snapshot()) {
		return nil, auth.ErrForbidden
	}
	before := *c
	c.Status = next
	if reason = strings.TrimSpace(reason); reason != "" {
		c.ReviewComment = reason
	}
	c.UpdatedAt = s.now().UTC()

	entry, err := s.recorder.NewEntry(actor(sess), transition, audit.EntityCase, c.ID, before, c)
	if err != nil {
		return nil, err
	}
	if err := s.cases.ApplyTransition(ctx, c, entry); err != nil {
		return nil, err
	}
	return c, nil
}

// TakeUnderConsideration moves an inspected case into the review queue.
func (s *Service) TakeUnderConsideration(ctx context.Context, caseID string) (*Case, error) {
	return s.administrative(ctx, caseID, TransitionConsider)
}

// RequestDataVerification parks the case pending a data check.
func (s *Service) RequestDataVerification(ctx context.Context, caseID string) (*Case, error) {
	return s.administrative(ctx, caseID, TransitionRequestVerification)
}

// RequestDocuments parks the case waiting for additional documents.
func (s *Service) RequestDocuments(ctx context.Context, caseID string) (*Case, error) {
	return s.administrative(ctx, caseID, TransitionRequestDocuments)
}

// ResolveToConsideration returns a parked case to the review queue.
func (s *Service) ResolveToConsideration(ctx context.Context, caseID string) (*Case, error) {
	return s.administrative(ctx, caseID, TransitionResolve)
}

// Close archives a resolved case.
func (s *Service) Close(ctx context.Context, caseID string) (*Case, error) {
	return s.administrative(ctx, caseID, TransitionClose)
}

// administrative applies the side transitions outside the seven-action
// policy table: they are plain admin-only moves validated by the table.
func (s *Service) administrative(ctx context.Context, caseID, transition string) (*Case, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	next, err := Next(c.Status, transition)
	if err != nil {
		return nil, err
	}
	if !sess.Role.IsAdministrative() {
		return nil, auth.ErrForbidden
	}
	before := *c
	c.Status = next
	c.UpdatedAt = s.now().UTC()

	entry, err := s.recorder.NewEntry(actor(sess), transition, audit.EntityCase, c.ID, before, c)
	if err != nil {
		return nil, err
	}
	if err := s.cases.ApplyTransition(ctx, c, entry); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveDraft upserts the caller's scratch draft. Not a state transition:
// drafts never advance a case status and are not audited.
func (s *Service) SaveDraft(ctx context.Context, caseID string, fields map[string]any) (*Draft, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	d := &Draft{
		ID:      ids.New(),
		UserID:  sess.UserID,
		CaseID:  strings.TrimSpace(caseID),
		Fields:  fields,
		SavedAt: s.now().UTC(),
	}
	if existing, err := s.drafts.FindByUser(ctx, sess.UserID); err == nil {
		d.ID = existing.ID
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Draft returns the caller's scratch draft, if any.
func (s *Service) Draft(ctx context.Context) (*Draft, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.drafts.FindByUser(ctx, sess.UserID)
}

// DiscardDraft deletes the caller's scratch draft.
func (s *Service) DiscardDraft(ctx context.Context) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	err = s.drafts.DeleteByUser(ctx, sess.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// AddMediaInput carries one attachment.
type AddMediaInput struct {
	Type    string
	Payload []byte
}

// AddMedia appends an attachment to a case. The owning inspector may attach
// while the case is open for inspection; administrators may always attach.
func (s *Service) AddMedia(ctx context.Context, caseID string, input AddMediaInput) (*Media, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	allowed := CanPerform(sess.Role, ActionInspect, sess.UserID, c.Snapshot()) ||
		CanPerform(sess.Role, ActionEdit, sess.UserID, c.Snapshot())
	if !allowed {
		return nil, auth.ErrForbidden
	}
	if len(input.Payload) == 0 {
		return nil, fmt.Errorf("%w: media payload is required", ErrValidation)
	}
	m := &Media{
		ID:           ids.New(),
		CaseID:       c.ID,
		Type:         strings.TrimSpace(input.Type),
		Payload:      input.Payload,
		UploadedByID: sess.UserID,
		UploadedAt:   s.now().UTC(),
	}
	if err := s.media.Add(ctx, m); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Log(ctx, actor(sess), audit.ActionCreate, audit.EntityMedia, m.ID, nil, nil); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMedia returns a case's attachments, honoring the view policy.
func (s *Service) ListMedia(ctx context.Context, caseID string) ([]*Media, error) {
	sess, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !CanPerform(sess.Role, ActionView, sess.UserID, c.Snapshot()) {
		return nil, auth.ErrForbidden
	}
	return s.media.ListByCase(ctx, caseID)
}

// DeleteMedia administratively removes an attachment.
func (s *Service) DeleteMedia(ctx context.Context, caseID, mediaID string) error {
	sess, err := s.session(ctx)
	if err != nil {
		return err
	}
	c, err := s.cases.Find(ctx, caseID)
	if err != nil {
		return err
	}
	if !CanPerform(sess.Role, ActionEdit, sess.UserID, c.Snapshot()) {
		return auth.ErrForbidden
	}
	if err := s.media.Delete(ctx, mediaID); err != nil {
		return err
	}
	_, err = s.recorder.Log(ctx, actor(sess), audit.ActionDelete, audit.EntityMedia, mediaID, nil, nil)
	return err
}

func (s *Service) session(ctx context.Context) (auth.Session, error) {
	sess, ok := auth.SessionFromContext(ctx)
	if !ok {
		return auth.Session{}, auth.ErrSessionExpired
	}
	return sess, nil
}

func actor(sess auth.Session) audit.Actor {
	return audit.Actor{UserID: sess.UserID, UserName: sess.Username, UserRole: string(sess.Role)}
}
