package tasks

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/panolabel/panolabel/internal/dataset"
)

// indexTolerance is the window past the end of the canonical ordering within
// which a numeric reference resolves to the last task instead of failing.
// It absorbs off-by-one navigation from shared task links.
const indexTolerance = 10

// defaultPendingLimit caps how many pending tasks a catalog request returns
// when the caller does not specify a limit.
const defaultPendingLimit = 10

// Resolver implements task lookup over the canonical dataset and the remote
// task store, in that precedence. The dataset is authoritative for content;
// the remote store is consulted only when the dataset fails or has no match.
type Resolver struct {
	source  *dataset.Source
	store   Store
	ids     dataset.IDFunc
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver creates a task Resolver. store may be nil, in which case only
// the dataset (and its placeholder fallback) serves lookups.
func NewResolver(
	source *dataset.Source,
	store Store,
	ids dataset.IDFunc,
	logger *slog.Logger,
	timeout time.Duration,
) *Resolver {
	return &Resolver{
		source:  source,
		store:   store,
		ids:     ids,
		logger:  logger.With("system", "task-resolver"),
		timeout: timeout,
	}
}

// FindTask resolves a task reference. A non-negative integer is a zero-based
// position in the canonical ordering; anything else matches task identifiers
// exactly first, then by case-sensitive substring.
func (r *Resolver) FindTask(ctx context.Context, ref string) (*Task, error) {
	ref = strings.TrimSpace(ref)

	if index, err := strconv.Atoi(ref); err == nil && index >= 0 {
		return r.findByIndex(ctx, index)
	}

	return r.findByID(ctx, ref)
}

// Catalog returns the full task list: the canonical dataset when available
// (seeding the remote store as a side effect), else the remote store, else
// placeholder tasks. It never fails; degraded content is logged.
func (r *Resolver) Catalog(ctx context.Context) []Task {
	items, err := r.source.Load(ctx)
	if err == nil {
		list := r.fromItems(items)
		r.seed(ctx, list)
		return list
	}

	r.logger.Warn("dataset load failed, trying remote task store", "error", err)

	if r.store != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		defer cancel()

		list, err := r.store.List(remoteCtx)
		if err == nil && len(list) > 0 {
			return list
		}
		if err != nil {
			r.logger.Warn("remote task store unavailable", "error", err)
		}
	}

	r.logger.Warn("no task source available, using placeholder tasks")
	return r.fromItems(r.source.PlaceholderItems())
}

// Pending returns catalog tasks whose image identifiers are not in
// completed, limited to limit entries (a non-positive limit means the
// default of 10).
func (r *Resolver) Pending(ctx context.Context, completed []string, limit int) []Task {
	if limit <= 0 {
		limit = defaultPendingLimit
	}

	pending := make([]Task, 0, limit)
	for _, t := range r.Catalog(ctx) {
		if slices.Contains(completed, t.ImageID) {
			continue
		}
		pending = append(pending, t)
		if len(pending) == limit {
			break
		}
	}

	return pending
}

// Total reports the canonical task count for progress calculations:
// the remote store count when available and non-zero, else the dataset
// length, else the placeholder count.
func (r *Resolver) Total(ctx context.Context) int {
	if r.store != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		count, err := r.store.Count(remoteCtx)
		cancel()

		if err == nil && count > 0 {
			return count
		}
		if err != nil {
			r.logger.Warn("remote task count failed", "error", err)
		}
	}

	if items, err := r.source.Load(ctx); err == nil {
		return len(items)
	}

	return len(r.source.PlaceholderItems())
}

func (r *Resolver) findByIndex(ctx context.Context, index int) (*Task, error) {
	items, err := r.source.Load(ctx)
	if err == nil {
		if index < len(items) {
			t := FromItem(items[index], r.ids)
			return &t, nil
		}
		// Slightly past the end resolves to the last task.
		if len(items) > 0 && index < len(items)+indexTolerance {
			t := FromItem(items[len(items)-1], r.ids)
			return &t, nil
		}
	} else {
		r.logger.Warn("dataset load failed for index lookup", "index", index, "error", err)
	}

	if r.store != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		defer cancel()

		list, listErr := r.store.List(remoteCtx)
		if listErr != nil {
			r.logger.Warn("remote task store unavailable", "error", listErr)
		} else if index < len(list) {
			t := list[index]
			return &t, nil
		}
	}

	return nil, ErrNotFound
}

func (r *Resolver) findByID(ctx context.Context, ref string) (*Task, error) {
	items, err := r.source.Load(ctx)
	if err == nil {
		for _, item := range items {
			if item.URL == ref {
				t := FromItem(item, r.ids)
				return &t, nil
			}
		}
		for _, item := range items {
			if strings.Contains(item.URL, ref) {
				t := FromItem(item, r.ids)
				return &t, nil
			}
		}
	} else {
		r.logger.Warn("dataset load failed for id lookup", "ref", ref, "error", err)
	}

	if r.store != nil {
		remoteCtx, cancel := r.remoteContext(ctx)
		defer cancel()

		t, findErr := r.store.Find(remoteCtx, ref)
		if findErr == nil {
			return t, nil
		}
		if !errors.Is(findErr, ErrNotFound) {
			r.logger.Warn("remote task lookup failed", "ref", ref, "error", findErr)
			return nil, ErrNotFound
		}

		list, listErr := r.store.List(remoteCtx)
		if listErr != nil {
			r.logger.Warn("remote task store unavailable", "error", listErr)
		} else {
			for _, t := range list {
				if strings.Contains(t.ImageID, ref) || strings.Contains(t.ImageURL, ref) {
					found := t
					return &found, nil
				}
			}
		}
	}

	return nil, ErrNotFound
}

// seed copies the canonical tasks into an empty remote store. Seeding is
// best-effort and happens at most once per store (skipped when non-empty).
func (r *Resolver) seed(ctx context.Context, list []Task) {
	if r.store == nil {
		return
	}

	remoteCtx, cancel := r.remoteContext(ctx)
	defer cancel()

	count, err := r.store.Count(remoteCtx)
	if err != nil {
		r.logger.Warn("task store count failed, skipping seed", "error", err)
		return
	}
	if count > 0 {
		return
	}

	seeded := 0
	for _, t := range list {
		if _, err := r.store.Insert(remoteCtx, t); err != nil {
			r.logger.Warn("task seed insert failed", "image_id", t.ImageID, "error", err)
			continue
		}
		seeded++
	}

	r.logger.Info("seeded remote task store", "tasks", seeded)
}

func (r *Resolver) fromItems(items []dataset.Item) []Task {
	list := make([]Task, 0, len(items))
	for _, item := range items {
		list = append(list, FromItem(item, r.ids))
	}
	return list
}

func (r *Resolver) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
