package resumes

import "context"

// Repo defines persistence operations for resumes.
type Repo interface {
	ListByOwner(ctx context.Context, ownerID string) ([]Resume, error)
	Get(ctx context.Context, id string) (Resume, error)
	Insert(ctx context.Context, r Resume) error
	Update(ctx context.Context, id string, fn func(*Resume) error) (Resume, error)
	Delete(ctx context.Context, id string) error
}
