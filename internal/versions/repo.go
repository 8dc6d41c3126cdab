package versions

import "context"

// Repo persists versions.
type Repo interface {
	// ListByResume returns a resume's versions oldest first.
	ListByResume(ctx context.Context, resumeID string) ([]Version, error)
	Get(ctx context.Context, id string) (Version, error)
	// Append adds v and trims the resume's list to the newest keep entries.
	Append(ctx context.Context, v Version, keep int) error
	Rename(ctx context.Context, id, label string) (Version, error)
	Delete(ctx context.Context, id string) error
}
