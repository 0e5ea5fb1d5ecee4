package users

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/panolabel/panolabel/pkg/lifecycle"
)

// System provides user authentication and account lookup over a Store.
type System struct {
	store  Store
	logger *slog.Logger
}

// NewSystem creates a user System with the given store and logger.
func NewSystem(store Store, logger *slog.Logger) *System {
	return &System{
		store:  store,
		logger: logger.With("system", "users"),
	}
}

// Authenticate verifies credentials and returns the matching user.
// An unknown username and a wrong password both return
// ErrInvalidCredentials.
func (s *System) Authenticate(ctx context.Context, creds Credentials) (*User, error) {
	u, err := s.store.FindByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(creds.Password)) != 1 {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("user authenticated", "username", u.Username, "is_admin", u.IsAdmin)
	return u, nil
}

// Find returns a user by identifier.
func (s *System) Find(ctx context.Context, id string) (*User, error) {
	return s.store.Find(ctx, id)
}

// Count returns the number of registered users.
func (s *System) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Start registers default-account seeding with the lifecycle coordinator.
// An empty user store receives one admin and one annotator account so a
// fresh deployment is immediately usable.
func (s *System) Start(lc *lifecycle.Coordinator) {
	lc.OnStartup(func() {
		if err := s.seed(lc.Context()); err != nil {
			s.logger.Error("default user seeding failed", "error", err)
		}
	})
}

func (s *System) seed(ctx context.Context) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []User{
		{Username: "admin", Password: "admin123", IsAdmin: true},
		{Username: "annotator", Password: "anno123"},
	}

	for _, u := range defaults {
		if _, err := s.store.Insert(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		s.logger.Info("seeded default user", "username", u.Username, "is_admin", u.IsAdmin)
	}

	return nil
}
