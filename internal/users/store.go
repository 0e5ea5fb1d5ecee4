package users

import "context"

// Store is the user account store contract.
type Store interface {
	// FindByUsername returns the user with the given username.
	// Returns ErrNotFound when no such user exists.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// Find returns the user with the given identifier string.
	Find(ctx context.Context, id string) (*User, error)
	// Count returns the number of stored users.
	Count(ctx context.Context) (int, error)
	// Insert stores a new user and returns it with its assigned identifier.
	Insert(ctx context.Context, u User) (*User, error)
}
