// Package authpw provides email/password sign-in for the site admin.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"portfolio/api/internal/store"
	"portfolio/api/internal/util"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	UpsertUser(ctx context.Context, user store.User) (store.User, error)
}

type Service struct {
	store UserStore
	cost  int
}

func NewService(store UserStore) *Service {
	return &Service{store: store, cost: bcrypt.DefaultCost}
}

// SignIn checks the password against the stored bcrypt hash. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return store.User{}, errors.New("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the admin account, or resets its password and name when
// it already exists.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (store.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return store.User{}, errors.New("admin email is required")
	}
	if len(password) < minPasswordLength {
		return store.User{}, fmt.Errorf("admin password must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	id := util.NewID("usr")
	if existing, err := s.store.GetUserByEmail(ctx, email); err == nil {
		id = existing.ID
	} else if !store.IsNotFound(err) {
		return store.User{}, fmt.Errorf("lookup admin: %w", err)
	}

	return s.store.UpsertUser(ctx, store.User{
		ID:           id,
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		IsAdmin:      true,
	})
}
