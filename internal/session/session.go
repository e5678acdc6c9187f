// Package session tracks the logged-in operator.
//
// The current user is a single blob; its absence means nobody is logged in.
// Credentials are not checked: logging in records the name and assigns the
// admin role.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/campusmart/internal/store"
)

// BlobKey is the store key of the session.
const BlobKey = "campusmart_user"

// Roles.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var (
	// ErrNotLoggedIn is returned when an operation needs a user and none is
	// logged in.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrEmptyUsername is returned by Login for a blank name.
	ErrEmptyUsername = errors.New("username is required")
)

// User is the logged-in operator.
type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Store persists the current user.
type Store struct {
	coll   *store.Collection[*User]
	logger *slog.Logger
}

// New creates a session store over backend. A corrupt session blob under
// the reseed policy is removed, which reads as logged out.
func New(backend store.Backend, policy store.CorruptPolicy, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		coll: &store.Collection[*User]{
			Backend: backend,
			Key:     BlobKey,
			Policy:  policy,
			Logger:  logger,
		},
		logger: logger,
	}
}

// Login records username as the current user with the admin role.
func (s *Store) Login(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return User{}, ErrEmptyUsername
	}

	u := User{Username: username, Role: RoleAdmin}
	if err := s.coll.Save(ctx, &u); err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	s.logger.Debug("logged in", "username", u.Username)
	return u, nil
}

// Logout clears the current user. Logging out twice is fine.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.coll.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current returns the logged-in user, or nil.
func (s *Store) Current(ctx context.Context) (*User, error) {
	u, _, err := s.coll.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	if u == nil || u.Username == "" {
		return nil, nil
	}
	return u, nil
}

// Require returns the logged-in user or ErrNotLoggedIn.
func (s *Store) Require(ctx context.Context) (User, error) {
	u, err := s.Current(ctx)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrNotLoggedIn
	}
	return *u, nil
}

type userKey struct{}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the user carried by ctx.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}

// Require returns the user carried by ctx or ErrNotLoggedIn.
func Require(ctx context.Context) (User, error) {
	u, ok := FromContext(ctx)
	if !ok {
		return User{}, ErrNotLoggedIn
	}
	return u, nil
}
