package caseflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
)

type memCases struct {
	byID    map[string]*Case
	applied []audit.Entry
	lastF   CaseFilter
}

func newMemCases() *memCases { return &memCases{byID: map[string]*Case{}} }

func (m *memCases) Create(ctx context.Context, c *Case) error {
	if _, ok := m.byID[c.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, c.ID)
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCases) Find(ctx context.Context, id string) (*Case, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	cp := *c
	return &cp, nil
}

func (m *memCases) FindByNumber(ctx context.Context, num string) (*Case, error) {
	for _, c := range m.byID {
		if c.CaseNumber == num {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: case number %s", ErrNotFound, num)
}

func (m *memCases) List(ctx context.Context, f CaseFilter) ([]*Case, error) {
	m.lastF = f
	var out []*Case
	for _, c := range m.byID {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.InspectorID != "" && c.InspectorID != f.InspectorID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memCases) Update(ctx context.Context, c *Case) error {
	if _, ok := m.byID[c.ID]; !ok {
		return fmt.Errorf("%w: case %s", ErrNotFound, c.ID)
	}
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCases) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	delete(m.byID, id)
	return nil
}

func (m *memCases) ApplyTransition(ctx context.Context, c *Case, entry audit.Entry) error {
	if err := m.Update(ctx, c); err != nil {
		return err
	}
	m.applied = append(m.applied, entry)
	return nil
}

type memMedia struct {
	byID map[string]*Media
}

func newMemMedia() *memMedia { return &memMedia{byID: map[string]*Media{}} }

func (m *memMedia) Add(ctx context.Context, md *Media) error {
	cp := *md
	m.byID[md.ID] = &cp
	return nil
}

func (m *memMedia) ListByCase(ctx context.Context, caseID string) ([]*Media, error) {
	var out []*Media
	for _, md := range m.byID {
		if md.CaseID == caseID {
			cp := *md
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memMedia) Delete(ctx context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("%w: media %s", ErrNotFound, id)
	}
	delete(m.byID, id)
	return nil
}

type memDrafts struct {
	byUser map[string]*Draft
}

func newMemDrafts() *memDrafts { return &memDrafts{byUser: map[string]*Draft{}} }

func (m *memDrafts) Save(ctx context.Context, d *Draft) error {
	cp := *d
	m.byUser[d.UserID] = &cp
	return nil
}

func (m *memDrafts) FindByUser(ctx context.Context, userID string) (*Draft, error) {
	d, ok := m.byUser[userID]
	if !ok {
		return nil, fmt.Errorf("%w: draft for %s", ErrNotFound, userID)
	}
	cp := *d
	return &cp, nil
}

func (m *memDrafts) DeleteByUser(ctx context.Context, userID string) error {
	if _, ok := m.byUser[userID]; !ok {
		return fmt.Errorf("%w: draft for %s", ErrNotFound, userID)
	}
	delete(m.byUser, userID)
	return nil
}

type memUsers struct {
	byID map[string]*auth.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*auth.User{}} }

func (m *memUsers) Create(ctx context.Context, u *auth.User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) Find(ctx context.Context, id string) (*auth.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", auth.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", auth.ErrNotFound, username)
}

func (m *memUsers) List(ctx context.Context) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range m.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) Update(ctx context.Context, u *auth.User) error {
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type memAudit struct {
	entries []audit.Entry
}

func (m *memAudit) Append(ctx context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) Query(ctx context.Context, f audit.Filter) ([]audit.Entry, error) {
	var out []audit.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		if f.Matches(m.entries[i]) {
			out = append(out, m.entries[i])
			if f.Limit > 0 && len(out) == f.Limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memAudit) Purge(ctx context.Context) error {
	m.entries = nil
	return nil
}

type fixture struct {
	svc    *Service
	cases  *memCases
	media  *memMedia
	drafts *memDrafts
	users  *memUsers
	log    *memAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cases:  newMemCases(),
		media:  newMemMedia(),
		drafts: newMemDrafts(),
		users:  newMemUsers(),
		log:    &memAudit{},
	}
	rec, err := audit.NewRecorder(f.log, func() time.Time {
		return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	f.svc, err = NewService(f.cases, f.media, f.drafts, f.users, rec)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	f.users.byID["insp-1"] = &auth.User{ID: "insp-1", Username: "inspector1", Role: auth.RoleInspector, IsActive: true}
	f.users.byID["adm-1"] = &auth.User{ID: "adm-1", Username: "admin1", Role: auth.RoleAdmin, IsActive: true}
	return f
}

func asInspector(id string) context.Context {
	return auth.ContextWithSession(context.Background(), auth.Session{UserID: id, Username: "inspector1", Role: auth.RoleInspector})
}

func asAdmin() context.Context {
	return auth.ContextWithSession(context.Background(), auth.Session{UserID: "adm-1", Username: "admin1", Role: auth.RoleAdmin})
}

func asSuperAdmin() context.Context {
	return auth.ContextWithSession(context.Background(), auth.Session{UserID: "sa-1", Username: "root", Role: auth.RoleSuperAdmin})
}

func (f *fixture) mustCreate(t *testing.T) *Case {
	t.Helper()
	c, err := f.svc.CreateCase(asAdmin(), CreateCaseInput{
		InspectorID:  "insp-1",
		HospitalID:   "HOSP-7",
		AccidentDate: time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
		Description:  "fall in ward 3",
	})
	if err != nil {
		t.Fatalf("CreateCase: %v", err)
	}
	return c
}

func (f *fixture) mustSubmit(t *testing.T, caseID string) *Case {
	t.Helper()
	c, err := f.svc.SubmitInspection(asInspector("insp-1"), caseID, SubmitInspectionInput{
		Comment:       "patient interviewed",
		PDPAConsent:   true,
		SignatureData: "sig-bytes",
	})
	if err != nil {
		t.Fatalf("SubmitInspection: %v", err)
	}
	return c
}

func TestCreateCase(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)

	if c.Status != StatusNew {
		t.Fatalf("status = %s, want new", c.Status)
	}
	if !strings.HasPrefix(c.CaseNumber, "ACV-") {
		t.Fatalf("case number %q lacks prefix", c.CaseNumber)
	}
	if c.CreatedByID != "adm-1" {
		t.Fatalf("created_by = %s", c.CreatedByID)
	}
	if len(f.log.entries) != 1 || f.log.entries[0].Action != audit.ActionCreate {
		t.Fatalf("want one create audit entry, got %+v", f.log.entries)
	}
}

func TestCreateCaseAuthorization(t *testing.T) {
	f := newFixture(t)
	input := CreateCaseInput{InspectorID: "insp-1", AccidentDate: time.Now()}

	if _, err := f.svc.CreateCase(asInspector("insp-1"), input); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("inspector create: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.CreateCase(context.Background(), input); !errors.Is(err, auth.ErrSessionExpired) {
		t.Fatalf("no session: want ErrSessionExpired, got %v", err)
	}
}

func TestCreateCaseValidatesInspector(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateCase(asAdmin(), CreateCaseInput{InspectorID: "ghost", AccidentDate: time.Now()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing inspector: want ErrInvalidInput, got %v", err)
	}
	_, err = f.svc.CreateCase(asAdmin(), CreateCaseInput{InspectorID: "adm-1", AccidentDate: time.Now()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("non-inspector assignee: want ErrInvalidInput, got %v", err)
	}
}

func TestSubmitInspection(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.log.entries = nil
	f.cases.applied = nil

	got := f.mustSubmit(t, c.ID)
	if got.Status != StatusInspected {
		t.Fatalf("status = %s, want inspected", got.Status)
	}
	if !got.PDPAConsent || got.InspectorComment == "" || got.SignatureData == "" {
		t.Fatalf("findings not recorded: %+v", got)
	}
	if len(f.cases.applied) != 1 {
		t.Fatalf("want one atomic transition entry, got %d", len(f.cases.applied))
	}
	if f.cases.applied[0].Action != TransitionSubmit {
		t.Fatalf("entry action = %s", f.cases.applied[0].Action)
	}
	// The entry went through ApplyTransition, not a separate append.
	if len(f.log.entries) != 0 {
		t.Fatalf("submit appended outside the transition: %+v", f.log.entries)
	}
}

func TestSubmitTwiceIsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.mustSubmit(t, c.ID)

	_, err := f.svc.SubmitInspection(asInspector("insp-1"), c.ID, SubmitInspectionInput{
		Comment: "again", PDPAConsent: true, SignatureData: "sig",
	})
	// The transition table is checked before the policy, so the owning
	// inspector sees an invalid transition, not a forbidden.
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("second submit: want ErrInvalidTransition, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)

	cases := []SubmitInspectionInput{
		{Comment: "findings", PDPAConsent: false, SignatureData: "sig"},
		{Comment: "", PDPAConsent: true, SignatureData: "sig"},
		{Comment: "findings", PDPAConsent: true, SignatureData: ""},
	}
	for i, input := range cases {
		if _, err := f.svc.SubmitInspection(asInspector("insp-1"), c.ID, input); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: want ErrValidation, got %v", i, err)
		}
	}

	stored, err := f.cases.Find(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != StatusNew {
		t.Fatalf("failed submits changed status to %s", stored.Status)
	}
	if len(f.cases.applied) != 0 {
		t.Fatalf("failed submits recorded transitions: %+v", f.cases.applied)
	}
}

func TestSubmitByNonOwner(t *testing.T) {
	f := newFixture(t)
	f.users.byID["insp-2"] = &auth.User{ID: "insp-2", Username: "inspector2", Role: auth.RoleInspector, IsActive: true}
	c := f.mustCreate(t)

	_, err := f.svc.SubmitInspection(asInspector("insp-2"), c.ID, SubmitInspectionInput{
		Comment: "findings", PDPAConsent: true, SignatureData: "sig",
	})
	if !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("non-owner submit: want ErrForbidden, got %v", err)
	}
}

func TestSubmitDiscardsDraft(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	if _, err := f.svc.SaveDraft(asInspector("insp-1"), c.ID, map[string]any{"comment": "wip"}); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	f.mustSubmit(t, c.ID)

	if _, err := f.svc.Draft(asInspector("insp-1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft survived submit: %v", err)
	}
}

func TestApproveAfterRejectFails(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.mustSubmit(t, c.ID)

	if _, err := f.svc.Reject(asAdmin(), c.ID, "incomplete evidence"); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if _, err := f.svc.Approve(asAdmin(), c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("approve after reject: want ErrInvalidTransition, got %v", err)
	}
}

func TestReviewByInspectorForbidden(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.mustSubmit(t, c.ID)

	if _, err := f.svc.Approve(asInspector("insp-1"), c.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("inspector approve: want ErrForbidden, got %v", err)
	}
}

func TestReturnForRevisionAndResubmit(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.mustSubmit(t, c.ID)

	got, err := f.svc.ReturnForRevision(asAdmin(), c.ID, "photos missing")
	if err != nil {
		t.Fatalf("ReturnForRevision: %v", err)
	}
	if got.Status != StatusPendingRevision {
		t.Fatalf("status = %s, want pending_revision", got.Status)
	}
	if got.ReviewComment != "photos missing" {
		t.Fatalf("review comment = %q", got.ReviewComment)
	}

	resubmitted := f.mustSubmit(t, c.ID)
	if resubmitted.Status != StatusInspected {
		t.Fatalf("resubmit status = %s", resubmitted.Status)
	}
}

func TestSideTransitionsFlow(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	f.mustSubmit(t, c.ID)

	if got, err := f.svc.TakeUnderConsideration(asAdmin(), c.ID); err != nil || got.Status != StatusPendingConsideration {
		t.Fatalf("consider: %v status=%v", err, got)
	}
	if got, err := f.svc.RequestDocuments(asAdmin(), c.ID); err != nil || got.Status != StatusWaitingDocuments {
		t.Fatalf("request documents: %v status=%v", err, got)
	}
	if got, err := f.svc.ResolveToConsideration(asAdmin(), c.ID); err != nil || got.Status != StatusPendingConsideration {
		t.Fatalf("resolve: %v status=%v", err, got)
	}
	if got, err := f.svc.Approve(asAdmin(), c.ID); err != nil || got.Status != StatusApproved {
		t.Fatalf("approve: %v status=%v", err, got)
	}
	if got, err := f.svc.Close(asAdmin(), c.ID); err != nil || got.Status != StatusClosed {
		t.Fatalf("close: %v status=%v", err, got)
	}
	// Every hop recorded exactly one transition entry.
	want := []string{TransitionSubmit, TransitionConsider, TransitionRequestDocuments, TransitionResolve, TransitionApprove, TransitionClose}
	if len(f.cases.applied) != len(want) {
		t.Fatalf("got %d transition entries, want %d", len(f.cases.applied), len(want))
	}
	for i, e := range f.cases.applied {
		if e.Action != want[i] {
			t.Fatalf("entry %d action = %s, want %s", i, e.Action, want[i])
		}
	}
}

func TestCloseRequiresResolvedStatus(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)

	if _, err := f.svc.Close(asAdmin(), c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("close new case: want ErrInvalidTransition, got %v", err)
	}
	if _, err := f.svc.TakeUnderConsideration(asInspector("insp-1"), c.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("inspector consider on new: want ErrInvalidTransition (table first), got %v", err)
	}
}

func TestListCasesForcesInspectorFilter(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t)

	if _, err := f.svc.ListCases(asInspector("insp-1"), CaseFilter{InspectorID: "someone-else"}); err != nil {
		t.Fatalf("ListCases: %v", err)
	}
	if f.cases.lastF.InspectorID != "insp-1" {
		t.Fatalf("inspector filter not forced: %+v", f.cases.lastF)
	}

	if _, err := f.svc.ListCases(asAdmin(), CaseFilter{InspectorID: "insp-1"}); err != nil {
		t.Fatalf("ListCases admin: %v", err)
	}
	if f.cases.lastF.InspectorID != "insp-1" {
		t.Fatalf("admin filter rewritten: %+v", f.cases.lastF)
	}
}

func TestCaseViewPolicy(t *testing.T) {
	f := newFixture(t)
	f.users.byID["insp-2"] = &auth.User{ID: "insp-2", Username: "inspector2", Role: auth.RoleInspector, IsActive: true}
	c := f.mustCreate(t)

	if _, err := f.svc.Case(asInspector("insp-2"), c.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("foreign inspector view: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.Case(asInspector("insp-1"), c.ID); err != nil {
		t.Fatalf("owner view: %v", err)
	}
}

func TestDeleteCase(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)
	if _, err := f.svc.AddMedia(asAdmin(), c.ID, AddMediaInput{Type: "photo", Payload: []byte("jpeg")}); err != nil {
		t.Fatalf("AddMedia: %v", err)
	}

	if err := f.svc.DeleteCase(asAdmin(), c.ID); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("admin delete: want ErrForbidden, got %v", err)
	}
	if err := f.svc.DeleteCase(asSuperAdmin(), c.ID); err != nil {
		t.Fatalf("super_admin delete: %v", err)
	}
	if _, err := f.cases.Find(context.Background(), c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("case survived delete: %v", err)
	}
	if got, _ := f.media.ListByCase(context.Background(), c.ID); len(got) != 0 {
		t.Fatalf("media survived delete: %d", len(got))
	}
}

func TestDraftUpsertKeepsID(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.SaveDraft(asInspector("insp-1"), "", map[string]any{"comment": "v1"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	second, err := f.svc.SaveDraft(asInspector("insp-1"), "", map[string]any{"comment": "v2"})
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("draft ID changed on upsert: %s vs %s", first.ID, second.ID)
	}

	if err := f.svc.DiscardDraft(asInspector("insp-1")); err != nil {
		t.Fatalf("DiscardDraft: %v", err)
	}
	// Discarding an absent draft is not an error.
	if err := f.svc.DiscardDraft(asInspector("insp-1")); err != nil {
		t.Fatalf("DiscardDraft twice: %v", err)
	}
}

func TestAddMediaValidation(t *testing.T) {
	f := newFixture(t)
	c := f.mustCreate(t)

	if _, err := f.svc.AddMedia(asInspector("insp-1"), c.ID, AddMediaInput{Type: "photo"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty payload: want ErrValidation, got %v", err)
	}
	if _, err := f.svc.AddMedia(asInspector("insp-1"), c.ID, AddMediaInput{Type: "photo", Payload: []byte("jpeg")}); err != nil {
		t.Fatalf("owner attach: %v", err)
	}

	f.mustSubmit(t, c.ID)
	// Once submitted the inspector can no longer attach, administrators can.
	if _, err := f.svc.AddMedia(asInspector("insp-1"), c.ID, AddMediaInput{Type: "photo", Payload: []byte("jpeg")}); !errors.Is(err, auth.ErrForbidden) {
		t.Fatalf("inspector attach after submit: want ErrForbidden, got %v", err)
	}
	if _, err := f.svc.AddMedia(asAdmin(), c.ID, AddMediaInput{Type: "photo", Payload: []byte("jpeg")}); err != nil {
		t.Fatalf("admin attach after submit: %v", err)
	}
}
