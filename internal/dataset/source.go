package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/panolabel/panolabel/pkg/lifecycle"
)

// ErrUnavailable indicates the dataset could not be fetched or parsed.
// Malformed content is treated the same as absence: both trigger fallback.
var ErrUnavailable = errors.New("dataset unavailable")

// Source fetches and caches the canonical dataset from an HTTP URL or a
// local file. File-backed sources can invalidate their cache on file change.
type Source struct {
	url    string
	path   string
	count  int
	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	items  []Item
	loaded bool
}

// NewSource creates a Source from the dataset configuration.
func NewSource(cfg *Config, logger *slog.Logger) *Source {
	return &Source{
		url:    cfg.URL,
		path:   cfg.Path,
		count:  cfg.PlaceholderCount,
		client: &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		logger: logger.With("system", "dataset"),
	}
}

// Load returns the dataset items, fetching them on first use.
// Returns ErrUnavailable when the dataset cannot be fetched or parsed;
// callers decide whether to fall back to a remote store or placeholder data.
func (s *Source) Load(ctx context.Context) ([]Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.items, nil
	}

	data, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.items = items
	s.loaded = true
	s.logger.Info("dataset loaded", "items", len(items))

	return items, nil
}

// PlaceholderItems returns the configured-size synthetic dataset.
func (s *Source) PlaceholderItems() []Item {
	return Placeholder(s.count)
}

// Invalidate drops the cached items so the next Load re-fetches.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.loaded = false
}

// Start registers a file watcher that invalidates the cache when a
// file-backed dataset changes on disk. HTTP-backed sources are not watched.
func (s *Source) Start(lc *lifecycle.Coordinator) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create dataset watcher: %w", err)
	}

	// Watch the directory: editors replace files, which drops a watch
	// registered on the file itself.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dataset dir %s: %w", dir, err)
	}

	target, _ := filepath.Abs(s.path)

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-lc.Context().Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				changed, _ := filepath.Abs(event.Name)
				if changed != target {
					continue
				}
				if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Rename) {
					s.logger.Info("dataset file changed, invalidating cache", "path", s.path)
					s.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("dataset watcher error", "error", err)
			}
		}
	}()

	s.logger.Info("watching dataset file", "path", s.path)
	return nil
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	if s.url != "" {
		return s.fetchHTTP(ctx)
	}
	if s.path != "" {
		return os.ReadFile(s.path)
	}
	return nil, errors.New("no dataset source configured")
}

func (s *Source) fetchHTTP(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset fetch returned %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
