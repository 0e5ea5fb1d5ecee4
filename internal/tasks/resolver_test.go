package tasks_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/panolabel/panolabel/internal/dataset"
	"github.com/panolabel/panolabel/internal/tasks"
)

const datasetDoc = `[
	{
		"url": "https://example.org/pano-alpha.jpg",
		"context": "Alpha panorama.",
		"generated_qa_pairs": [
			{"question": "Sky color?", "answer": "Blue.", "attribute": "Objects & Attributes"}
		]
	},
	{
		"url": "https://example.org/pano-beta.jpg",
		"context": "Beta panorama.",
		"generated_qa_pairs": [
			{"question": "Any water?", "answer": "A lake.", "attribute": "Objects & Attributes"}
		]
	},
	{
		"url": "https://example.org/pano-gamma.jpg",
		"context": "Gamma panorama.",
		"generated_qa_pairs": [
			{"question": "Time of day?", "answer": "Midday.", "attribute": "View / Scene"}
		]
	}
]`

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fileSource(t *testing.T, doc string) *dataset.Source {
	t.Helper()

	path := filepath.Join(t.TempDir(), "captions.json")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	cfg := &dataset.Config{Path: path}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	return dataset.NewSource(cfg, testLogger())
}

func missingSource(t *testing.T) *dataset.Source {
	t.Helper()

	cfg := &dataset.Config{Path: filepath.Join(t.TempDir(), "missing.json")}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	return dataset.NewSource(cfg, testLogger())
}

func newResolver(t *testing.T, source *dataset.Source, store tasks.Store) *tasks.Resolver {
	t.Helper()
	return tasks.NewResolver(source, store, dataset.StableIDs, testLogger(), 0)
}

func TestFindTaskByIndex(t *testing.T) {
	r := newResolver(t, fileSource(t, datasetDoc), nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		ref         string
		wantImageID string
		wantErr     error
	}{
		{"first", "0", "https://example.org/pano-alpha.jpg", nil},
		{"last", "2", "https://example.org/pano-gamma.jpg", nil},
		{"just past end", "3", "https://example.org/pano-gamma.jpg", nil},
		{"tolerance edge", "12", "https://example.org/pano-gamma.jpg", nil},
		{"beyond tolerance", "13", "", tasks.ErrNotFound},
		{"far beyond", "100", "", tasks.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := r.FindTask(ctx, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("find failed: %v", err)
			}
			if task.ImageID != tt.wantImageID {
				t.Errorf("got %q, want %q", task.ImageID, tt.wantImageID)
			}
		})
	}
}

func TestFindTaskByIdentifier(t *testing.T) {
	r := newResolver(t, fileSource(t, datasetDoc), nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		ref         string
		wantImageID string
		wantErr     error
	}{
		{"exact url", "https://example.org/pano-beta.jpg", "https://example.org/pano-beta.jpg", nil},
		{"substring", "pano-gamma", "https://example.org/pano-gamma.jpg", nil},
		{"substring first match", "pano-", "https://example.org/pano-alpha.jpg", nil},
		{"case sensitive", "PANO-GAMMA", "", tasks.ErrNotFound},
		{"no match", "nonexistent", "", tasks.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := r.FindTask(ctx, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("find failed: %v", err)
			}
			if task.ImageID != tt.wantImageID {
				t.Errorf("got %q, want %q", task.ImageID, tt.wantImageID)
			}
		})
	}
}

func TestFindTaskFallsBackToStore(t *testing.T) {
	store := tasks.NewMemoryStore()
	ctx := context.Background()

	for n := range 3 {
		_, err := store.Insert(ctx, tasks.Task{
			ImageID:  fmt.Sprintf("stored-%d", n),
			ImageURL: fmt.Sprintf("https://example.org/stored-%d.jpg", n),
		})
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	r := newResolver(t, missingSource(t), store)

	task, err := r.FindTask(ctx, "1")
	if err != nil {
		t.Fatalf("index lookup failed: %v", err)
	}
	if task.ImageID != "stored-1" {
		t.Errorf("got %q, want stored-1", task.ImageID)
	}

	task, err = r.FindTask(ctx, "stored-2")
	if err != nil {
		t.Fatalf("exact lookup failed: %v", err)
	}
	if task.ImageID != "stored-2" {
		t.Errorf("got %q, want stored-2", task.ImageID)
	}

	task, err = r.FindTask(ctx, "ored-0")
	if err != nil {
		t.Fatalf("substring lookup failed: %v", err)
	}
	if task.ImageID != "stored-0" {
		t.Errorf("got %q, want stored-0", task.ImageID)
	}

	if _, err := r.FindTask(ctx, "99"); !errors.Is(err, tasks.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestCatalogSeedsEmptyStoreOnce(t *testing.T) {
	store := tasks.NewMemoryStore()
	r := newResolver(t, fileSource(t, datasetDoc), store)
	ctx := context.Background()

	list := r.Catalog(ctx)
	if len(list) != 3 {
		t.Fatalf("got %d tasks, want 3", len(list))
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("got %d stored tasks after seed, want 3", count)
	}

	// A second catalog pass does not duplicate the seeded rows.
	r.Catalog(ctx)
	count, _ = store.Count(ctx)
	if count != 3 {
		t.Errorf("got %d stored tasks after second pass, want 3", count)
	}
}

func TestCatalogFallsBackToPlaceholder(t *testing.T) {
	r := newResolver(t, missingSource(t), tasks.NewMemoryStore())

	list := r.Catalog(context.Background())
	if len(list) != dataset.DefaultPlaceholderCount {
		t.Fatalf("got %d tasks, want %d", len(list), dataset.DefaultPlaceholderCount)
	}
	if len(list[0].Questions) == 0 {
		t.Error("placeholder task missing questions")
	}
}

func TestPendingFiltersCompleted(t *testing.T) {
	r := newResolver(t, fileSource(t, datasetDoc), nil)

	pending := r.Pending(context.Background(), []string{"https://example.org/pano-beta.jpg"}, 0)
	if len(pending) != 2 {
		t.Fatalf("got %d pending tasks, want 2", len(pending))
	}
	for _, task := range pending {
		if task.ImageID == "https://example.org/pano-beta.jpg" {
			t.Error("completed task not filtered")
		}
	}

	limited := r.Pending(context.Background(), nil, 1)
	if len(limited) != 1 {
		t.Errorf("got %d tasks with limit 1, want 1", len(limited))
	}
}

func TestTotalPrefersStoreCount(t *testing.T) {
	store := tasks.NewMemoryStore()
	ctx := context.Background()
	for n := range 5 {
		if _, err := store.Insert(ctx, tasks.Task{ImageID: fmt.Sprintf("t-%d", n)}); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	r := newResolver(t, fileSource(t, datasetDoc), store)
	if got := r.Total(ctx); got != 5 {
		t.Errorf("got total %d, want 5", got)
	}

	r = newResolver(t, fileSource(t, datasetDoc), nil)
	if got := r.Total(ctx); got != 3 {
		t.Errorf("got total %d, want 3", got)
	}
}
