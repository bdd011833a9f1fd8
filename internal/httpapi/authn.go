package httpapi

import (
	"net/http"
	"strings"

	"caseflow.org/internal/auth"
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/info",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withSession gates every protected route through the session gate: the
// single enforcement point. A valid session is refreshed (sliding idle
// timeout) and attached to the request context; anything else is a 401 and
// the client returns to the login view.
func (a *API) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := a.gate.RequireAuth(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		ctx := auth.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return strings.HasPrefix(path, "/assets/")
}
