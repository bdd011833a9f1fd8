package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"caseflow.org/internal/audit"
	"caseflow.org/internal/ids"
)

const defaultSessionTTL = 30 * time.Minute

// ErrUserReferenced is returned when deleting a user who still owns
// unresolved cases.
var ErrUserReferenced = errors.New("auth: user still assigned to unresolved cases")

// Service is the session gate and user administration surface. Every
// protected operation in the system enters through RequireAuth.
type Service struct {
	users       UserStore
	sessions    SessionStore
	recorder    *audit.Recorder
	assignments AssignmentChecker

	secret     []byte
	sessionTTL time.Duration
	now        func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service) error

// WithSessionTTL overrides the idle timeout applied to sessions.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) error {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
		return nil
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) error {
		if fn != nil {
			s.now = fn
		}
		return nil
	}
}

// WithAssignmentChecker enables the referential guard on user deletion.
func WithAssignmentChecker(c AssignmentChecker) ServiceOption {
	return func(s *Service) error {
		s.assignments = c
		return nil
	}
}

// NewService constructs the gate.
func NewService(users UserStore, sessions SessionStore, recorder *audit.Recorder, secret []byte, opts ...ServiceOption) (*Service, error) {
	if users == nil || sessions == nil {
		return nil, errors.New("auth: user and session stores are required")
	}
	if recorder == nil {
		return nil, errors.New("auth: audit recorder is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: session secret is required")
	}
	svc := &Service{
		users:      users,
		sessions:   sessions,
		recorder:   recorder,
		secret:     secret,
		sessionTTL: defaultSessionTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		if err := opt(svc); err != nil {
			return nil, err
		}
	}
	return svc, nil
}

// Login authenticates credentials and installs a fresh session. Suspension
// is checked before the password so a suspended account is reported as such
// regardless of password correctness.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, ErrAccountSuspended
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	now := s.now().UTC()
	sess := Session{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		FullName:  user.FullName,
		LoginAt:   now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	user.LastLogin = now
	user.UpdatedAt = now
	if err := s.users.Update(ctx, user); err != nil {
		return Session{}, err
	}
	if _, err := s.recorder.Log(ctx, actor(sess), audit.ActionLogin, audit.EntityUser, user.ID, nil, nil); err != nil {
		return Session{}, err
	}
	// The session is installed last: a failed audit write must not leave a
	// live session behind.
	if err := s.putSession(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Session reads the persisted session record. An expired or tampered record
// is treated as absent (lazy expiry), never as an error.
func (s *Service) Session(ctx context.Context) (Session, bool, error) {
	token, err := s.sessions.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, false, nil
		}
		return Session{}, false, err
	}
	sess, err := ParseSession(token, s.secret)
	if err != nil {
		_ = s.sessions.Delete(ctx)
		return Session{}, false, nil
	}
	if sess.Expired(s.now()) {
		_ = s.sessions.Delete(ctx)
		return Session{}, false, nil
	}
	return sess, true, nil
}

// Logout audits and destroys the current session, if any.
func (s *Service) Logout(ctx context.Context) error {
	sess, ok, err := s.Session(ctx)
	if err != nil {
		return err
	}
	if ok {
		if _, err := s.recorder.Log(ctx, actor(sess), audit.ActionLogout, audit.EntityUser, sess.UserID, nil, nil); err != nil {
			return err
		}
	}
	return s.sessions.Delete(ctx)
}

// Refresh slides the session expiry forward from now. Called on every
// authenticated request so the timeout is an idle timeout, not an absolute
// one.
func (s *Service) Refresh(ctx context.Context) (Session, error) {
	sess, ok, err := s.Session(ctx)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrSessionExpired
	}
	sess.ExpiresAt = s.now().UTC().Add(s.sessionTTL)
	if err := s.putSession(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// RequireAuth is the single enforcement point for protected operations:
// it refreshes and returns the session, or ErrSessionExpired when none is
// valid (the caller redirects to login).
func (s *Service) RequireAuth(ctx context.Context) (Session, error) {
	return s.Refresh(ctx)
}

func (s *Service) putSession(ctx context.Context, sess Session) error {
	token, err := SignSession(sess, s.secret)
	if err != nil {
		return err
	}
	return s.sessions.Put(ctx, token)
}

// CreateUserInput carries the fields required to register an account.
type CreateUserInput struct {
	Username string
	Password string
	Role     Role
	FullName string
	Email    string
	Phone    string
}

// CreateUser registers a new account. Administrative roles only.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	actorSess, err := s.requireAdministrative(ctx)
	if err != nil {
		return nil, err
	}
	input.Username = strings.TrimSpace(strings.ToLower(input.Username))
	if input.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Password) == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	role, err := ParseRole(string(input.Role))
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	user := &User{
		ID:           ids.New(),
		Username:     input.Username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		FullName:     strings.TrimSpace(input.FullName),
		Email:        strings.TrimSpace(strings.ToLower(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Log(ctx, actor(actorSess), audit.ActionCreate, audit.EntityUser, user.ID, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns one account. Administrative roles only.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if _, err := s.requireAdministrative(ctx); err != nil {
		return nil, err
	}
	return s.users.Find(ctx, id)
}

// ListUsers returns every account. Administrative roles only.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	if _, err := s.requireAdministrative(ctx); err != nil {
		return nil, err
	}
	return s.users.List(ctx)
}

// UpdateUser applies a partial profile update. Administrative roles only;
// role changes additionally require super_admin.
func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	actorSess, err := s.requireAdministrative(ctx)
	if err != nil {
		return nil, err
	}
	if upd.Role != nil && actorSess.Role != RoleSuperAdmin {
		return nil, ErrForbidden
	}
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *user
	if upd.FullName != nil {
		user.FullName = strings.TrimSpace(*upd.FullName)
	}
	if upd.Email != nil {
		user.Email = strings.TrimSpace(strings.ToLower(*upd.Email))
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	if upd.Avatar != nil {
		user.Avatar = *upd.Avatar
	}
	if upd.Role != nil {
		role, err := ParseRole(string(*upd.Role))
		if err != nil {
			return nil, err
		}
		user.Role = role
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if _, err := s.recorder.Log(ctx, actor(actorSess), audit.ActionUpdate, audit.EntityUser, user.ID, before, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetPassword replaces the stored hash. Users may change their own password;
// administrative roles may change anyone's.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ErrSessionExpired
	}
	if sess.UserID != id && !sess.Role.IsAdministrative() {
		return ErrForbidden
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	_, err = s.recorder.Log(ctx, actor(sess), audit.ActionUpdate, audit.EntityUser, user.ID, nil, nil)
	return err
}

// DeleteUser removes an account. Restricted to super_admin. A user still
// assigned as inspector of an unresolved case cannot be deleted; reassign or
// resolve those cases first.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return ErrSessionExpired
	}
	if sess.Role != RoleSuperAdmin {
		return ErrForbidden
	}
	user, err := s.users.Find(ctx, id)
	if err != nil {
		return err
	}
	if s.assignments != nil {
		referenced, err := s.assignments.HasUnresolvedCases(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return ErrUserReferenced
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	_, err = s.recorder.Log(ctx, actor(sess), audit.ActionDelete, audit.EntityUser, id, user, nil)
	return err
}

func (s *Service) requireAdministrative(ctx context.Context) (Session, error) {
	sess, ok := SessionFromContext(ctx)
	if !ok {
		return Session{}, ErrSessionExpired
	}
	if !sess.Role.IsAdministrative() {
		return Session{}, ErrForbidden
	}
	return sess, nil
}

func actor(sess Session) audit.Actor {
	return audit.Actor{UserID: sess.UserID, UserName: sess.Username, UserRole: string(sess.Role)}
}
