package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"caseflow.org/internal/caseflow"
	"caseflow.org/internal/obs"
)

type createCaseRequest struct {
	InspectorID  string     `json:"inspector_id"`
	HospitalID   string     `json:"hospital_id"`
	AccidentDate time.Time  `json:"accident_date"`
	Deadline     *time.Time `json:"deadline"`
	Description  string     `json:"description"`
}

func (a *API) CreateCase(w http.ResponseWriter, r *http.Request) {
	var req createCaseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input := caseflow.CreateCaseInput{
		InspectorID:  req.InspectorID,
		HospitalID:   req.HospitalID,
		AccidentDate: req.AccidentDate,
		Description:  req.Description,
	}
	if req.Deadline != nil {
		input.Deadline = *req.Deadline
	}
	c, err := a.cases.CreateCase(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (a *API) ListCases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := caseflow.CaseFilter{
		InspectorID: q.Get("inspector_id"),
		HospitalID:  q.Get("hospital_id"),
	}
	if raw := q.Get("status"); raw != "" {
		status, err := caseflow.ParseStatus(raw)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		f.Status = status
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = limit
	}
	cases, err := a.cases.ListCases(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (a *API) GetCase(w http.ResponseWriter, r *http.Request) {
	c, err := a.cases.Case(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type updateCaseRequest struct {
	InspectorID          *string    `json:"inspector_id"`
	HospitalID           *string    `json:"hospital_id"`
	AccidentDate         *time.Time `json:"accident_date"`
	Deadline             *time.Time `json:"deadline"`
	Description          *string    `json:"description"`
	HospitalStaffComment *string    `json:"hospital_staff_comment"`
}

func (a *API) UpdateCase(w http.ResponseWriter, r *http.Request) {
	var req updateCaseRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := a.cases.UpdateCase(r.Context(), r.PathValue("id"), caseflow.CaseUpdate{
		InspectorID:          req.InspectorID,
		HospitalID:           req.HospitalID,
		AccidentDate:         req.AccidentDate,
		Deadline:             req.Deadline,
		Description:          req.Description,
		HospitalStaffComment: req.HospitalStaffComment,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) DeleteCase(w http.ResponseWriter, r *http.Request) {
	if err := a.cases.DeleteCase(r.Context(), r.PathValue("id")); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type submitInspectionRequest struct {
	Comment       string `json:"comment"`
	PDPAConsent   bool   `json:"pdpa_consent"`
	SignatureData string `json:"signature_data"`
}

func (a *API) SubmitInspection(w http.ResponseWriter, r *http.Request) {
	var req submitInspectionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := a.cases.SubmitInspection(r.Context(), r.PathValue("id"), caseflow.SubmitInspectionInput{
		Comment:       req.Comment,
		PDPAConsent:   req.PDPAConsent,
		SignatureData: req.SignatureData,
	})
	a.observe(caseflow.TransitionSubmit, err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type reviewRequest struct {
	Reason string `json:"reason"`
}

func (a *API) Approve(w http.ResponseWriter, r *http.Request) {
	c, err := a.cases.Approve(r.Context(), r.PathValue("id"))
	a.observe(caseflow.TransitionApprove, err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) Reject(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := a.cases.Reject(r.Context(), r.PathValue("id"), req.Reason)
	a.observe(caseflow.TransitionReject, err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) ReturnForRevision(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := a.cases.ReturnForRevision(r.Context(), r.PathValue("id"), req.Reason)
	a.observe(caseflow.TransitionReturn, err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) TakeUnderConsideration(w http.ResponseWriter, r *http.Request) {
	a.sideTransition(w, r, caseflow.TransitionConsider, a.cases.TakeUnderConsideration)
}

func (a *API) RequestDataVerification(w http.ResponseWriter, r *http.Request) {
	a.sideTransition(w, r, caseflow.TransitionRequestVerification, a.cases.RequestDataVerification)
}

func (a *API) RequestDocuments(w http.ResponseWriter, r *http.Request) {
	a.sideTransition(w, r, caseflow.TransitionRequestDocuments, a.cases.RequestDocuments)
}

func (a *API) ResolveToConsideration(w http.ResponseWriter, r *http.Request) {
	a.sideTransition(w, r, caseflow.TransitionResolve, a.cases.ResolveToConsideration)
}

func (a *API) CloseCase(w http.ResponseWriter, r *http.Request) {
	a.sideTransition(w, r, caseflow.TransitionClose, a.cases.Close)
}

func (a *API) sideTransition(w http.ResponseWriter, r *http.Request, name string, fn func(ctx context.Context, caseID string) (*caseflow.Case, error)) {
	c, err := fn(r.Context(), r.PathValue("id"))
	a.observe(name, err)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (a *API) observe(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.ObserveTransition(action, result)
}

type addMediaRequest struct {
	Type    string `json:"type"`
	Payload []byte `json:"payload"`
}

func (a *API) AddMedia(w http.ResponseWriter, r *http.Request) {
	var req addMediaRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m, err := a.cases.AddMedia(r.Context(), r.PathValue("id"), caseflow.AddMediaInput{
		Type:    req.Type,
		Payload: req.Payload,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) ListMedia(w http.ResponseWriter, r *http.Request) {
	media, err := a.cases.ListMedia(r.Context(), r.PathValue("id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"media": media})
}

func (a *API) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if err := a.cases.DeleteMedia(r.Context(), r.PathValue("id"), r.PathValue("mediaID")); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

type saveDraftRequest struct {
	CaseID string         `json:"case_id"`
	Fields map[string]any `json:"fields"`
}

func (a *API) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req saveDraftRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := a.cases.SaveDraft(r.Context(), req.CaseID, req.Fields)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := a.cases.Draft(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (a *API) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.cases.DiscardDraft(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "discarded"})
}
