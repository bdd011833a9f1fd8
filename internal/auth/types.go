package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles known to the system. Keeping it a distinct
// type forces every permission decision through an exhaustive switch.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleInspector  Role = "inspector"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.TrimSpace(strings.ToLower(s))) {
	case RoleSuperAdmin:
		return RoleSuperAdmin, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleInspector:
		return RoleInspector, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// IsAdministrative reports whether the role carries case review authority.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User is an operator account. Password material never leaves this package
// in plaintext.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is the ephemeral identity record created on login. Exactly one
// session exists per profile; the last write wins.
type Session struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	LoginAt   time.Time `json:"login_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired is a pure function of the session and the clock, so expiry is
// testable without touching storage.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// UserUpdate carries optional profile mutations. Nil fields are untouched.
type UserUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
	Avatar   *string
	Role     *Role
	IsActive *bool
}
