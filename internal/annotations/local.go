package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// errCorruptCache marks a cache file that exists but cannot be parsed.
// Reads report it as ErrStoreUnavailable; writes discard the file and
// start over.
var errCorruptCache = fmt.Errorf("%w: corrupt cache", ErrStoreUnavailable)

// Cache is the local annotation fallback: a single JSON file holding an
// array of annotations. It is keyed by image identifier only, so annotations
// from different users of the same machine overwrite each other. That
// matches its role as a per-workstation offline buffer, not a shared store.
type Cache struct {
	path string

	mu sync.Mutex
}

// NewCache creates a Cache persisting under dir with the given key as the
// file name stem.
func NewCache(dir, key string) *Cache {
	return &Cache{
		path: filepath.Join(dir, key+".json"),
	}
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// All returns every cached annotation. A missing file is an empty cache;
// a file that cannot be read or parsed reports the cache unavailable.
func (c *Cache) All() ([]Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Get returns the cached annotation for an image, or ErrNotFound.
func (c *Cache) Get(imageID string) (*Annotation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load()
	if err != nil {
		return nil, err
	}

	for _, a := range list {
		if a.ImageID == imageID {
			found := a
			return &found, nil
		}
	}

	return nil, ErrNotFound
}

// Put upserts an annotation by image identifier, rewriting the whole file.
// An existing entry's identifier and creation time survive when the
// incoming annotation leaves them zero. A corrupt cache file is discarded
// and rewritten from the incoming annotation alone, so saves always land.
func (c *Cache) Put(a Annotation) (*Annotation, error) {
	if a.ImageID == "" {
		return nil, ErrMissingImageID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.load()
	if errors.Is(err, errCorruptCache) {
		list = nil
	} else if err != nil {
		return nil, err
	}

	replaced := false
	for i, existing := range list {
		if existing.ImageID != a.ImageID {
			continue
		}
		if a.ID == uuid.Nil {
			a.ID = existing.ID
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = existing.CreatedAt
		}
		list[i] = a
		replaced = true
		break
	}
	if !replaced {
		list = append(list, a)
	}

	if err := c.write(list); err != nil {
		return nil, err
	}

	return &a, nil
}

func (c *Cache) load() ([]Annotation, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read cache: %v", ErrStoreUnavailable, err)
	}

	var list []Annotation
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorruptCache, err)
	}

	return list, nil
}

func (c *Cache) write(list []Annotation) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: create cache dir: %v", ErrStoreUnavailable, err)
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write cache: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("%w: replace cache: %v", ErrStoreUnavailable, err)
	}

	return nil
}
