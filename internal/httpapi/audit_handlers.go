package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/auth"
)

func (a *API) QueryAudit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrSessionExpired)
		return
	}
	if !sess.Role.IsAdministrative() {
		respondServiceError(w, auth.ErrForbidden)
		return
	}

	q := r.URL.Query()
	f := audit.Filter{
		UserID:     q.Get("user_id"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
		Action:     q.Get("action"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		f.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}

	entries, err := a.recorder.Query(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) ClearAudit(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		respondServiceError(w, auth.ErrSessionExpired)
		return
	}
	if sess.Role != auth.RoleSuperAdmin {
		respondServiceError(w, auth.ErrForbidden)
		return
	}
	if err := a.recorder.ClearAll(r.Context()); err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}
