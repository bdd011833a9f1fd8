package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/v1/cases/01JD3":                "/v1/cases/:id",
		"/v1/cases/01JD3/approve":        "/v1/cases/:id/approve",
		"/v1/cases/01JD3/media/01JD4":    "/v1/cases/:id/media/:id",
		"/v1/users/u-42":                 "/v1/users/:id",
		"/v1/cases/a/b/c/d":              "/v1/cases/a/b/c/d",
		"/v1/audit":                      "/v1/audit",
		"/v1/cases/01JD3?include=drafts": "/v1/cases/:id",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}
