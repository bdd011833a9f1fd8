package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "caseflow"

// ErrInvalidToken indicates the signed session record failed validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// sessionClaims is the JWT shape of the persisted session record.
type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// SignSession serializes the session into a signed HS256 token. The token is
// what gets persisted under the fixed session key; its signature prevents a
// tampered record from being accepted on the next read.
func SignSession(sess Session, secret []byte) (string, error) {
	if strings.TrimSpace(sess.UserID) == "" {
		return "", errors.New("session user id is required")
	}
	if len(secret) == 0 {
		return "", errors.New("session secret is not configured")
	}
	claims := sessionClaims{
		Username: sess.Username,
		Role:     string(sess.Role),
		FullName: sess.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(sess.LoginAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseSession verifies the token signature and reconstructs the session.
// Expiry is NOT checked here: the gate applies lazy expiry itself so it can
// tell "expired" apart from "forged".
func ParseSession(token string, secret []byte) (Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return Session{}, ErrInvalidToken
	}
	if claims.Issuer != issuer || strings.TrimSpace(claims.Subject) == "" {
		return Session{}, ErrInvalidToken
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidToken
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	return Session{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Role:      role,
		FullName:  claims.FullName,
		LoginAt:   claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
