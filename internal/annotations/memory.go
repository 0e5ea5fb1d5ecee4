package annotations

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory annotation Store for tests and store-less
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Annotation
}

// NewMemoryStore creates an empty in-memory annotation store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Find(ctx context.Context, imageID, userID string) (*Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.items {
		if a.ImageID == imageID && a.UserID == userID {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) List(ctx context.Context) ([]Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(m.items), nil
}

func (m *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Annotation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var list []Annotation
	for _, a := range m.items {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return m.sorted(list), nil
}

func (m *MemoryStore) Insert(ctx context.Context, a Annotation) (*Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.items {
		if existing.ImageID == a.ImageID && existing.UserID == a.UserID {
			return nil, ErrDuplicate
		}
	}

	a.ID = uuid.New()
	m.items = append(m.items, a)

	stored := a
	return &stored, nil
}

func (m *MemoryStore) Update(ctx context.Context, a Annotation) (*Annotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.items {
		if existing.ImageID != a.ImageID || existing.UserID != a.UserID {
			continue
		}
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		m.items[i] = a

		stored := a
		return &stored, nil
	}

	return nil, ErrNotFound
}

func (m *MemoryStore) sorted(items []Annotation) []Annotation {
	list := make([]Annotation, len(items))
	copy(list, items)
	slices.SortStableFunc(list, func(a, b Annotation) int {
		return b.LastUpdated.Compare(a.LastUpdated)
	})
	return list
}
