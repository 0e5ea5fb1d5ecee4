package annotations

import "context"

// Store is the remote annotation store contract. PostgreSQL, in-memory, and
// REST-backed variants all satisfy it; the Resolver layers local-cache
// fallback on top.
type Store interface {
	// Find returns the annotation for an image by a specific user.
	// Returns ErrNotFound when no such annotation exists.
	Find(ctx context.Context, imageID, userID string) (*Annotation, error)
	// List returns all annotations, most recently updated first.
	List(ctx context.Context) ([]Annotation, error)
	// ListByUser returns all annotations by a user, most recently updated first.
	ListByUser(ctx context.Context, userID string) ([]Annotation, error)
	// Insert stores a new annotation and returns it with its assigned identifier.
	Insert(ctx context.Context, a Annotation) (*Annotation, error)
	// Update replaces an existing annotation matched by image and user,
	// preserving its identifier and creation time.
	Update(ctx context.Context, a Annotation) (*Annotation, error)
}
