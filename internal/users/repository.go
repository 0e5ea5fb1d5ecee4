package users

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panolabel/panolabel/pkg/repository"
)

const userColumns = "id, username, password, is_admin, created_at"

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a PostgreSQL-backed user Store.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "users"),
	}
}

func (r *repo) FindByUsername(ctx context.Context, username string) (*User, error) {
	q := fmt.Sprintf("SELECT %s FROM users WHERE username = $1", userColumns)

	u, err := repository.QueryOne(ctx, r.db, q, []any{username}, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) Find(ctx context.Context, id string) (*User, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	q := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)

	u, err := repository.QueryOne(ctx, r.db, q, []any{parsed}, scanUser)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &u, nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	count, err := repository.QueryCount(ctx, r.db, "SELECT COUNT(*) FROM users")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func (r *repo) Insert(ctx context.Context, u User) (*User, error) {
	q := fmt.Sprintf(`
		INSERT INTO users(id, username, password, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING %s`, userColumns)

	args := []any{uuid.New(), u.Username, u.Password, u.IsAdmin}

	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (User, error) {
		return repository.QueryOne(ctx, tx, q, args, scanUser)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("user stored", "id", stored.ID, "username", stored.Username)
	return &stored, nil
}

func scanUser(s repository.Scanner) (User, error) {
	var u User
	if err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Password,
		&u.IsAdmin,
		&u.CreatedAt,
	); err != nil {
		return u, err
	}
	return u, nil
}
