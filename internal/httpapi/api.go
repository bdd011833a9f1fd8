// Package httpapi is the local HTTP surface through which pages drive the
// case workflow. It owns no business rules: every request passes the session
// gate, then lands in the auth or caseflow service.
package httpapi

import (
	"net/http"
	"time"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
	"caseflow.org/internal/caseflow"
	"caseflow.org/internal/obs"
)

// API wires the services into routes.
type API struct {
	mux      *http.ServeMux
	gate     *auth.Service
	cases    *caseflow.Service
	recorder *audit.Recorder
	version  string
}

// New builds the route table.
func New(gate *auth.Service, cases *caseflow.Service, recorder *audit.Recorder, version string) *API {
	a := &API{
		mux:      http.NewServeMux(),
		gate:     gate,
		cases:    cases,
		recorder: recorder,
		version:  version,
	}

	// health/info
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.Handle("GET /metrics", obs.Handler())

	// session gate
	a.mux.HandleFunc("POST /v1/auth/login", a.Login)
	a.mux.HandleFunc("POST /v1/auth/logout", a.Logout)
	a.mux.HandleFunc("GET /v1/auth/session", a.CurrentSession)

	// cases
	a.mux.HandleFunc("POST /v1/cases", a.CreateCase)
	a.mux.HandleFunc("GET /v1/cases", a.ListCases)
	a.mux.HandleFunc("GET /v1/cases/{id}", a.GetCase)
	a.mux.HandleFunc("PATCH /v1/cases/{id}", a.UpdateCase)
	a.mux.HandleFunc("DELETE /v1/cases/{id}", a.DeleteCase)
	a.mux.HandleFunc("POST /v1/cases/{id}/submit", a.SubmitInspection)
	a.mux.HandleFunc("POST /v1/cases/{id}/approve", a.Approve)
	a.mux.HandleFunc("POST /v1/cases/{id}/reject", a.Reject)
	a.mux.HandleFunc("POST /v1/cases/{id}/return", a.ReturnForRevision)
	a.mux.HandleFunc("POST /v1/cases/{id}/consider", a.TakeUnderConsideration)
	a.mux.HandleFunc("POST /v1/cases/{id}/request-verification", a.RequestDataVerification)
	a.mux.HandleFunc("POST /v1/cases/{id}/request-documents", a.RequestDocuments)
	a.mux.HandleFunc("POST /v1/cases/{id}/resolve", a.ResolveToConsideration)
	a.mux.HandleFunc("POST /v1/cases/{id}/close", a.CloseCase)

	// media
	a.mux.HandleFunc("POST /v1/cases/{id}/media", a.AddMedia)
	a.mux.HandleFunc("GET /v1/cases/{id}/media", a.ListMedia)
	a.mux.HandleFunc("DELETE /v1/cases/{id}/media/{mediaID}", a.DeleteMedia)

	// drafts
	a.mux.HandleFunc("PUT /v1/drafts", a.SaveDraft)
	a.mux.HandleFunc("GET /v1/drafts", a.GetDraft)
	a.mux.HandleFunc("DELETE /v1/drafts", a.DiscardDraft)

	// users
	a.mux.HandleFunc("POST /v1/users", a.CreateUser)
	a.mux.HandleFunc("GET /v1/users", a.ListUsers)
	a.mux.HandleFunc("GET /v1/users/{id}", a.GetUser)
	a.mux.HandleFunc("PATCH /v1/users/{id}", a.UpdateUser)
	a.mux.HandleFunc("POST /v1/users/{id}/password", a.SetPassword)
	a.mux.HandleFunc("DELETE /v1/users/{id}", a.DeleteUser)

	// audit
	a.mux.HandleFunc("GET /v1/audit", a.QueryAudit)
	a.mux.HandleFunc("POST /v1/audit/clear", a.ClearAudit)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withSession(a.mux)
	h = MaxBodyBytes(h, 4<<20)
	h = RateLimit(h, 20, 10)
	h = SecurityHeaders(h)
	h = Logging(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "caseflow-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "caseflow-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
