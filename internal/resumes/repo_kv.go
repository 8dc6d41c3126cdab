package resumes

import (
	"context"

	"resume-workspace/internal/shared/storage/kv"
)

// KVRepo keeps every resume in the "resumes" collection.
type KVRepo struct {
	col *kv.Collection[Resume]
}

func NewKVRepo(store kv.Store) *KVRepo {
	return &KVRepo{col: kv.NewCollection[Resume](store, kv.KeyResumes)}
}

func (r *KVRepo) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	all, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Resume, 0)
	for _, res := range all {
		if res.OwnerID == ownerID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *KVRepo) Get(ctx context.Context, id string) (Resume, error) {
	all, err := r.col.Load(ctx)
	if err != nil {
		return Resume{}, err
	}
	for _, res := range all {
		if res.ID == id {
			return res, nil
		}
	}
	return Resume{}, ErrNotFound
}

func (r *KVRepo) Insert(ctx context.Context, res Resume) error {
	return r.col.Update(ctx, func(all []Resume) ([]Resume, error) {
		return append(all, res), nil
	})
}

func (r *KVRepo) Update(ctx context.Context, id string, fn func(*Resume) error) (Resume, error) {
	var out Resume
	err := r.col.Update(ctx, func(all []Resume) ([]Resume, error) {
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

func (r *KVRepo) Delete(ctx context.Context, id string) error {
	return r.col.Update(ctx, func(all []Resume) ([]Resume, error) {
		for i := range all {
			if all[i].ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
