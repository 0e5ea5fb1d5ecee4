// Package admin aggregates task, annotation, and user state into
// progress reports, dataset exports, and the administrative dashboard.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/internal/tasks"
	"github.com/panolabel/panolabel/internal/users"
	"github.com/panolabel/panolabel/pkg/blobstore"
)

const archivePrefix = "exports/"

// Dashboard summarizes annotation activity across all users.
type Dashboard struct {
	TotalImages      int `json:"totalImages"`
	CompletedImages  int `json:"completedImages"`
	InProgressImages int `json:"inProgressImages"`
	UserCount        int `json:"userCount"`
	ActiveUserCount  int `json:"activeUserCount"`
}

// System provides progress, export, and dashboard operations.
type System struct {
	tasks       *tasks.Resolver
	annotations *annotations.Resolver
	users       *users.System
	archive     blobstore.System
	logger      *slog.Logger
	maxArchives int32
	now         func() time.Time
}

// NewSystem creates an admin System. archive may be nil, disabling the
// export archive endpoints.
func NewSystem(
	taskResolver *tasks.Resolver,
	annotationResolver *annotations.Resolver,
	userSystem *users.System,
	archive blobstore.System,
	logger *slog.Logger,
	maxArchives int32,
) *System {
	return &System{
		tasks:       taskResolver,
		annotations: annotationResolver,
		users:       userSystem,
		archive:     archive,
		logger:      logger.With("system", "admin"),
		maxArchives: maxArchives,
		now:         time.Now,
	}
}

// Progress reports a user's annotation progress against the task total.
func (s *System) Progress(ctx context.Context, userID string) (*annotations.Progress, error) {
	total := s.tasks.Total(ctx)
	return s.annotations.Progress(ctx, userID, total)
}

// Export returns every stored annotation across all users.
func (s *System) Export(ctx context.Context) ([]annotations.Annotation, error) {
	return s.annotations.Export(ctx)
}

// DashboardFor builds the activity dashboard. A caller identified by
// userID must be an administrator; an empty userID skips the check for
// trusted internal callers.
func (s *System) DashboardFor(ctx context.Context, userID string) (*Dashboard, error) {
	if userID != "" {
		u, err := s.users.Find(ctx, userID)
		if err != nil && !errors.Is(err, users.ErrNotFound) {
			return nil, err
		}
		if err == nil && !u.IsAdmin {
			return nil, ErrUnauthorized
		}
	}

	var (
		total     int
		list      []annotations.Annotation
		userCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		total = s.tasks.Total(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		list, err = s.annotations.Export(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		userCount, err = s.users.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := Dashboard{
		TotalImages: total,
		UserCount:   userCount,
	}

	active := make(map[string]struct{})
	for _, a := range list {
		if a.IsComplete {
			d.CompletedImages++
		} else if len(a.Answers) > 0 {
			d.InProgressImages++
		}
		if a.UserID != "" {
			active[a.UserID] = struct{}{}
		}
	}
	d.ActiveUserCount = len(active)

	return &d, nil
}

// ArchiveExport snapshots the current export payload into blob storage
// and returns the archive entry.
func (s *System) ArchiveExport(ctx context.Context) (*blobstore.Entry, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}

	list, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}

	payload := annotations.ExportPayload{
		ExportedAt:  s.now().UTC(),
		Count:       len(list),
		Annotations: list,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode export payload: %w", err)
	}

	key := archivePrefix + payload.ExportedAt.Format(time.RFC3339) + ".json"
	if err := s.archive.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return nil, err
	}

	s.logger.Info("export archived", "key", key, "annotations", payload.Count)
	return &blobstore.Entry{Key: key, SizeBytes: int64(len(data))}, nil
}

// ListArchives returns stored export archives.
func (s *System) ListArchives(ctx context.Context) ([]blobstore.Entry, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx, archivePrefix, s.maxArchives)
}

// DownloadArchive streams a stored export archive.
func (s *System) DownloadArchive(ctx context.Context, key string) (*blobstore.DownloadResult, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.Download(ctx, key)
}
