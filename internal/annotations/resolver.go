package annotations

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// SaveResult reports where a save landed. Local is true when the remote
// store was unreachable and the annotation only reached the local cache.
type SaveResult struct {
	Annotation Annotation
	Local      bool
}

// Resolver implements the annotation persistence protocol over a remote
// Store and the local Cache: remote-first saves with local mirroring and
// degradation, remote-first lookups with local fallback and promotion.
type Resolver struct {
	remote  Store
	local   *Cache
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewResolver creates an annotation Resolver. remote may be nil, in which
// case every operation works against the local cache alone.
func NewResolver(remote Store, local *Cache, logger *slog.Logger, timeout time.Duration) *Resolver {
	return &Resolver{
		remote:  remote,
		local:   local,
		logger:  logger.With("system", "annotation-resolver"),
		timeout: timeout,
		now:     time.Now,
	}
}

// FindAnnotation loads prior work for an image. Without a user identity the
// lookup never touches the remote store. With one, the remote annotation is
// authoritative; a local-only annotation is returned and promoted to the
// remote store so future lookups from other machines see it.
func (r *Resolver) FindAnnotation(ctx context.Context, imageID, userID string) (*Annotation, error) {
	if userID == "" || r.remote == nil {
		return r.localGet(imageID)
	}

	remoteCtx, cancel := r.remoteContext(ctx)
	defer cancel()

	a, err := r.remote.Find(remoteCtx, imageID, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, ErrNotFound) {
		r.logger.Warn("remote annotation lookup failed, falling back to local cache",
			"image_id", imageID, "user_id", userID, "error", err)
		return r.localGet(imageID)
	}

	cached, cacheErr := r.localGet(imageID)
	if cacheErr != nil {
		return nil, cacheErr
	}

	promoted := r.promote(remoteCtx, *cached, userID)
	return promoted, nil
}

// SaveAnnotation persists an annotation remote-first. A remote save updates
// the existing record for the image and user, preserving its identifier and
// creation time, or inserts a new one. The local cache mirrors every
// successful remote save; when the remote store fails or no user identity
// is present, the save lands in the local cache alone.
func (r *Resolver) SaveAnnotation(ctx context.Context, a Annotation) (*SaveResult, error) {
	if a.ImageID == "" {
		return nil, ErrMissingImageID
	}

	a.LastUpdated = r.now()

	if a.UserID == "" || r.remote == nil {
		return r.saveLocal(a)
	}

	stored, err := r.saveRemote(ctx, a)
	if err != nil {
		r.logger.Warn("remote annotation save failed, saving locally",
			"image_id", a.ImageID, "user_id", a.UserID, "error", err)
		return r.saveLocal(a)
	}

	if _, err := r.local.Put(*stored); err != nil {
		r.logger.Warn("local annotation mirror failed",
			"image_id", stored.ImageID, "error", err)
	}

	return &SaveResult{Annotation: *stored}, nil
}

// Export returns every stored annotation: the remote store when available,
// else the local cache.
func (r *Resolver) Export(ctx context.Context) ([]Annotation, error) {
	if r.remote != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		list, err := r.remote.List(remoteCtx)
		cancel()

		if err == nil {
			return list, nil
		}
		r.logger.Warn("remote export failed, exporting local cache", "error", err)
	}

	return r.local.All()
}

// CompletedImageIDs returns the image identifiers of a user's completed
// annotations, for excluding finished tasks from the pending list.
func (r *Resolver) CompletedImageIDs(ctx context.Context, userID string) ([]string, error) {
	list, err := r.userAnnotations(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, a := range list {
		if a.IsComplete {
			ids = append(ids, a.ImageID)
		}
	}
	return ids, nil
}

// Progress summarizes a user's annotation state against the given task
// total. An annotation counts as in-progress when it has at least one
// answer but is not complete.
func (r *Resolver) Progress(ctx context.Context, userID string, total int) (*Progress, error) {
	list, err := r.userAnnotations(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := Progress{Total: total}
	for _, a := range list {
		switch {
		case a.IsComplete:
			p.Completed++
		case len(a.Answers) > 0:
			p.InProgress++
		}
	}

	return &p, nil
}

func (r *Resolver) saveRemote(ctx context.Context, a Annotation) (*Annotation, error) {
	remoteCtx, cancel := r.remoteContext(ctx)
	defer cancel()

	existing, err := r.remote.Find(remoteCtx, a.ImageID, a.UserID)
	if err == nil {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return r.remote.Update(remoteCtx, a)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.LastUpdated
	}
	return r.remote.Insert(remoteCtx, a)
}

func (r *Resolver) saveLocal(a Annotation) (*SaveResult, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.LastUpdated
	}

	stored, err := r.local.Put(a)
	if err != nil {
		return nil, err
	}

	return &SaveResult{Annotation: *stored, Local: true}, nil
}

// localGet reads the cache, treating an unreadable or corrupt cache file
// as a miss. Lookups degrade softly; the next save rewrites the file.
func (r *Resolver) localGet(imageID string) (*Annotation, error) {
	a, err := r.local.Get(imageID)
	if err != nil && errors.Is(err, ErrStoreUnavailable) {
		r.logger.Warn("local cache unreadable, treating lookup as a miss",
			"image_id", imageID, "error", err)
		return nil, ErrNotFound
	}
	return a, err
}

// promote copies a local-only annotation into the remote store under the
// user's identity, stamping the write-back time. Promotion is best-effort
// and idempotent: a concurrent promotion surfacing as a duplicate is not
// an error.
func (r *Resolver) promote(ctx context.Context, a Annotation, userID string) *Annotation {
	a.UserID = userID
	a.LastUpdated = r.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = a.LastUpdated
	}

	stored, err := r.remote.Insert(ctx, a)
	if err != nil {
		if !errors.Is(err, ErrDuplicate) {
			r.logger.Warn("annotation promotion failed",
				"image_id", a.ImageID, "user_id", userID, "error", err)
		}
		return &a
	}

	r.logger.Info("promoted local annotation to remote store",
		"image_id", a.ImageID, "user_id", userID)
	return stored
}

func (r *Resolver) userAnnotations(ctx context.Context, userID string) ([]Annotation, error) {
	if userID != "" && r.remote != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		list, err := r.remote.ListByUser(remoteCtx, userID)
		cancel()

		if err == nil {
			return list, nil
		}
		r.logger.Warn("remote annotation list failed, using local cache",
			"user_id", userID, "error", err)
	}

	return r.local.All()
}

func (r *Resolver) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
