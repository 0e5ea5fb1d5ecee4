package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory task Store. It backs tests and store-less
// deployments with the same contract as the PostgreSQL store.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Task
}

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) List(ctx context.Context) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Task, len(m.items))
	copy(list, m.items)
	return list, nil
}

func (m *MemoryStore) Find(ctx context.Context, imageID string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.items {
		if t.ImageID == imageID {
			found := t
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items), nil
}

func (m *MemoryStore) Insert(ctx context.Context, task Task) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.items {
		if t.ImageID == task.ImageID {
			return nil, ErrDuplicate
		}
	}

	task.ID = uuid.New()
	m.items = append(m.items, task)

	stored := task
	return &stored, nil
}
