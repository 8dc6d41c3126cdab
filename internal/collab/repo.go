package collab

import "context"

// Repo persists comments and review requests. Update callbacks may return
// kv.ErrNoChange to skip the write.
type Repo interface {
	ListComments(ctx context.Context, resumeID string) ([]Comment, error)
	GetComment(ctx context.Context, id string) (Comment, error)
	InsertComment(ctx context.Context, c Comment) error
	UpdateComment(ctx context.Context, id string, fn func(*Comment) error) (Comment, error)
	DeleteComment(ctx context.Context, id string) error

	ListReviews(ctx context.Context, resumeID string) ([]ReviewRequest, error)
	GetReview(ctx context.Context, id string) (ReviewRequest, error)
	InsertReview(ctx context.Context, r ReviewRequest) error
	UpdateReview(ctx context.Context, id string, fn func(*ReviewRequest) error) (ReviewRequest, error)
}
