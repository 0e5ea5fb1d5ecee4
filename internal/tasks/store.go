package tasks

import "context"

// Store is the remote task store contract: a read-mostly collection of Task
// documents, written only by opportunistic seeding from the canonical dataset.
type Store interface {
	// List returns all tasks in canonical (insertion) order.
	List(ctx context.Context) ([]Task, error)
	// Find returns the task with the given image identifier.
	// Returns ErrNotFound when no such task exists.
	Find(ctx context.Context, imageID string) (*Task, error)
	// Count returns the number of stored tasks.
	Count(ctx context.Context) (int, error)
	// Insert stores a new task and returns it with its assigned identifier.
	Insert(ctx context.Context, task Task) (*Task, error)
}
