package annotations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/panolabel/panolabel/pkg/repository"
)

const annotationColumns = "id, image_id, image_url, caption, answers, is_complete, user_id, last_updated, created_at"

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRepository creates a PostgreSQL-backed annotation Store.
func NewRepository(db *sql.DB, logger *slog.Logger) Store {
	return &repo{
		db:     db,
		logger: logger.With("system", "annotations"),
	}
}

func (r *repo) Find(ctx context.Context, imageID, userID string) (*Annotation, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM annotations
		WHERE image_id = $1 AND user_id = $2`, annotationColumns)

	a, err := repository.QueryOne(ctx, r.db, q, []any{imageID, userID}, scanAnnotation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) List(ctx context.Context) ([]Annotation, error) {
	q := fmt.Sprintf("SELECT %s FROM annotations ORDER BY last_updated DESC, id", annotationColumns)

	list, err := repository.QueryMany(ctx, r.db, q, nil, scanAnnotation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return list, nil
}

func (r *repo) ListByUser(ctx context.Context, userID string) ([]Annotation, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM annotations
		WHERE user_id = $1
		ORDER BY last_updated DESC, id`, annotationColumns)

	list, err := repository.QueryMany(ctx, r.db, q, []any{userID}, scanAnnotation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return list, nil
}

func (r *repo) Insert(ctx context.Context, a Annotation) (*Annotation, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	q := fmt.Sprintf(`
		INSERT INTO annotations(id, image_id, image_url, caption, answers, is_complete, user_id, last_updated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s`, annotationColumns)

	args := []any{
		uuid.New(),
		a.ImageID,
		a.ImageURL,
		a.Caption,
		answers,
		a.IsComplete,
		a.UserID,
		a.LastUpdated,
		a.CreatedAt,
	}

	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Annotation, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAnnotation)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.Info("annotation stored",
		"id", stored.ID,
		"image_id", stored.ImageID,
		"user_id", stored.UserID,
	)
	return &stored, nil
}

func (r *repo) Update(ctx context.Context, a Annotation) (*Annotation, error) {
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}

	// id and created_at are never touched on update.
	q := fmt.Sprintf(`
		UPDATE annotations
		SET image_url = $3, caption = $4, answers = $5, is_complete = $6, last_updated = $7
		WHERE image_id = $1 AND user_id = $2
		RETURNING %s`, annotationColumns)

	args := []any{
		a.ImageID,
		a.UserID,
		a.ImageURL,
		a.Caption,
		answers,
		a.IsComplete,
		a.LastUpdated,
	}

	stored, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Annotation, error) {
		return repository.QueryOne(ctx, tx, q, args, scanAnnotation)
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	return &stored, nil
}

func scanAnnotation(s repository.Scanner) (Annotation, error) {
	var (
		a       Annotation
		answers []byte
	)

	if err := s.Scan(
		&a.ID,
		&a.ImageID,
		&a.ImageURL,
		&a.Caption,
		&answers,
		&a.IsComplete,
		&a.UserID,
		&a.LastUpdated,
		&a.CreatedAt,
	); err != nil {
		return a, err
	}

	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &a.Answers); err != nil {
			return a, fmt.Errorf("decode answers: %w", err)
		}
	}

	return a, nil
}
