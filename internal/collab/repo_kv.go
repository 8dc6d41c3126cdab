package collab

import (
	"context"

	"resume-workspace/internal/shared/storage/kv"
)

// KVRepo stores comments and reviews in their own collections.
type KVRepo struct {
	comments *kv.Collection[Comment]
	reviews  *kv.Collection[ReviewRequest]
}

// NewKVRepo binds the repo to store.
func NewKVRepo(store kv.Store) *KVRepo {
	return &KVRepo{
		comments: kv.NewCollection[Comment](store, kv.KeyComments),
		reviews:  kv.NewCollection[ReviewRequest](store, kv.KeyReviewRequests),
	}
}

func (r *KVRepo) ListComments(ctx context.Context, resumeID string) ([]Comment, error) {
	all, err := r.comments.Load(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(c Comment) bool { return c.ResumeID == resumeID }), nil
}

func (r *KVRepo) GetComment(ctx context.Context, id string) (Comment, error) {
	all, err := r.comments.Load(ctx)
	if err != nil {
		return Comment{}, err
	}
	for _, c := range all {
		if c.ID == id {
			return c, nil
		}
	}
	return Comment{}, ErrNotFound
}

func (r *KVRepo) InsertComment(ctx context.Context, c Comment) error {
	return r.comments.Update(ctx, func(all []Comment) ([]Comment, error) {
		return append(all, c), nil
	})
}

func (r *KVRepo) UpdateComment(ctx context.Context, id string, fn func(*Comment) error) (Comment, error) {
	var out Comment
	err := r.comments.Update(ctx, func(all []Comment) ([]Comment, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			err := fn(&all[i])
			out = all[i]
			if err != nil {
				return nil, err
			}
			return all, nil
		}
		return nil, ErrNotFound
	})
	return out, err
}

func (r *KVRepo) DeleteComment(ctx context.Context, id string) error {
	return r.comments.Update(ctx, func(all []Comment) ([]Comment, error) {
		for i := range all {
			if all[i].ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *KVRepo) ListReviews(ctx context.Context, resumeID string) ([]ReviewRequest, error) {
	all, err := r.reviews.Load(ctx)
	if err != nil {
		return nil, err
	}
	return filter(all, func(rr ReviewRequest) bool { return rr.ResumeID == resumeID }), nil
}

func (r *KVRepo) GetReview(ctx context.Context, id string) (ReviewRequest, error) {
	all, err := r.reviews.Load(ctx)
	if err != nil {
		return ReviewRequest{}, err
	}
	for _, rr := range all {
		if rr.ID == id {
			return rr, nil
		}
	}
	return ReviewRequest{}, ErrNotFound
}

func (r *KVRepo) InsertReview(ctx context.Context, rr ReviewRequest) error {
	return r.reviews.Update(ctx, func(all []ReviewRequest) ([]ReviewRequest, error) {
		return append(all, rr), nil
	})
}

func (r *KVRepo) UpdateReview(ctx context.Context, id string, fn func(*ReviewRequest) error) (ReviewRequest, error) {
	var out ReviewRequest
	err := r.reviews.Update(ctx, func(all []ReviewRequest) ([]ReviewRequest, error) {
		for i := range all {
			if all[i].ID != id {
				continue
			}
			err := fn(&all[i])
			out = all[i]
			if err != nil {
				return nil, err
			}
			return all, nil
		}
		return nil, ErrNotFound
	})
	return out, err
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
