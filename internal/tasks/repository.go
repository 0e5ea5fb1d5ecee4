package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panolabel/panolabel/pkg/repository"
)

const taskColumns = "id, image_id, image_url, caption, questions, created_at"

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a PostgreSQL-backed task Store.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "tasks"),
	}
}

func (r *repo) List(ctx context.Context) ([]Task, error) {
	q := fmt.Sprintf("SELECT %s FROM tasks ORDER BY created_at, id", taskColumns)

	list, err := repository.QueryMany(ctx, r.db, q, nil, scanTask)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return list, nil
}

func (r *repo) Find(ctx context.Context, imageID string) (*Task, error) {
	q := fmt.Sprintf("SELECT %s FROM tasks WHERE image_id = $1", taskColumns)

	t, err := repository.QueryOne(ctx, r.db, q, []any{imageID}, scanTask)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &t, nil
}

func (r *repo) Count(ctx context.Context) (int, error) {
	count, err := repository.QueryCount(ctx, r.db, "SELECT COUNT(*) FROM tasks")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

func (r *repo) Insert(ctx context.Context, task Task) (*Task, error) {
	questions, err := json.Marshal(task.Questions)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO tasks(id, image_id, image_url, caption, questions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s`, taskColumns)

	args := []any{uuid.New(), task.ImageID, task.ImageURL, task.Caption, questions}

	t, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Task, error) {
		return repository.QueryOne(ctx, tx, q, args, scanTask)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("task stored", "id", t.ID, "image_id", t.ImageID)
	return &t, nil
}

func scanTask(s repository.Scanner) (Task, error) {
	var (
		t         Task
		questions []byte
		createdAt sql.NullTime
	)

	if err := s.Scan(
		&t.ID,
		&t.ImageID,
		&t.ImageURL,
		&t.Caption,
		&questions,
		&createdAt,
	); err != nil {
		return t, err
	}

	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &t.Questions); err != nil {
			return t, fmt.Errorf("decode questions: %w", err)
		}
	}

	return t, nil
}
