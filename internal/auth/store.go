package auth

import "context"

// UserStore describes persistence operations required for user accounts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
}

// SessionStore holds the single signed session record under a fixed key.
type SessionStore interface {
	Get(ctx context.Context) (string, error)
	Put(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// AssignmentChecker reports whether a user still owns unresolved cases.
// Implemented by the case store; keeps the user-deletion referential guard
// out of this package's dependency graph.
type AssignmentChecker interface {
	HasUnresolvedCases(ctx context.Context, inspectorID string) (bool, error)
}
