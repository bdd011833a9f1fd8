package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndParseSession(t *testing.T) {
	secret := []byte("test-secret")
	in := Session{
		UserID:    "u-1",
		Username:  "inspector1",
		Role:      RoleInspector,
		FullName:  "First Inspector",
		LoginAt:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC),
	}

	token, err := SignSession(in, secret)
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}
	out, err := ParseSession(token, secret)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if out.UserID != in.UserID || out.Username != in.Username || out.Role != in.Role {
		t.Fatalf("round trip mismatch: %+v", out)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("expires_at = %v, want %v", out.ExpiresAt, in.ExpiresAt)
	}
}

func TestParseSessionRejects(t *testing.T) {
	secret := []byte("test-secret")
	sess := Session{
		UserID:    "u-1",
		Role:      RoleInspector,
		LoginAt:   time.Now(),
		ExpiresAt: time.Now().Add(time.Minute),
	}
	token, err := SignSession(sess, secret)
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}

	if _, err := ParseSession(token, []byte("other-secret")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: want ErrInvalidToken, got %v", err)
	}
	if _, err := ParseSession(token+"x", secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("tampered token: want ErrInvalidToken, got %v", err)
	}
	if _, err := ParseSession("", secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("empty token: want ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionKeepsExpiredTokens(t *testing.T) {
	// Expiry belongs to the gate, not the codec: an expired but genuine
	// token still parses so the gate can tell expired from forged.
	secret := []byte("test-secret")
	sess := Session{
		UserID:    "u-1",
		Role:      RoleInspector,
		LoginAt:   time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	token, err := SignSession(sess, secret)
	if err != nil {
		t.Fatalf("SignSession: %v", err)
	}
	out, err := ParseSession(token, secret)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if !out.Expired(time.Now()) {
		t.Fatal("token should report expired")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Super_Admin "); err != nil || r != RoleSuperAdmin {
		t.Fatalf("ParseRole: %v %v", r, err)
	}
	if _, err := ParseRole("owner"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown role: want ErrInvalidInput, got %v", err)
	}
}
