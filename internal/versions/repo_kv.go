package versions

import (
	"context"

	"resume-workspace/internal/shared/storage/kv"
)

// KVRepo stores every version in the resume_versions collection.
type KVRepo struct {
	col *kv.Collection[Version]
}

// NewKVRepo binds the repo to store.
func NewKVRepo(store kv.Store) *KVRepo {
	return &KVRepo{col: kv.NewCollection[Version](store, kv.KeyVersions)}
}

func (r *KVRepo) ListByResume(ctx context.Context, resumeID string) ([]Version, error) {
	all, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Version, 0)
	for _, v := range all {
		if v.ResumeID == resumeID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *KVRepo) Get(ctx context.Context, id string) (Version, error) {
	all, err := r.col.Load(ctx)
	if err != nil {
		return Version{}, err
	}
	for _, v := range all {
		if v.ID == id {
			return v, nil
		}
	}
	return Version{}, ErrVersionNotFound
}

func (r *KVRepo) Append(ctx context.Context, v Version, keep int) error {
	return r.col.Update(ctx, func(all []Version) ([]Version, error) {
		all = append(all, v)
		if keep <= 0 {
			return all, nil
		}
		count := 0
		for _, existing := range all {
			if existing.ResumeID == v.ResumeID {
				count++
			}
		}
		drop := count - keep
		if drop <= 0 {
			return all, nil
		}
		out := all[:0]
		for _, existing := range all {
			if drop > 0 && existing.ResumeID == v.ResumeID {
				drop--
				continue
			}
			out = append(out, existing)
		}
		return out, nil
	})
}

func (r *KVRepo) Rename(ctx context.Context, id, label string) (Version, error) {
	var renamed Version
	err := r.col.Update(ctx, func(all []Version) ([]Version, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].Label = label
				renamed = all[i]
				return all, nil
			}
		}
		return nil, ErrVersionNotFound
	})
	return renamed, err
}

func (r *KVRepo) Delete(ctx context.Context, id string) error {
	return r.col.Update(ctx, func(all []Version) ([]Version, error) {
		for i := range all {
			if all[i].ID == id {
				return append(all[:i], all[i+1:]...), nil
			}
		}
		return nil, ErrVersionNotFound
	})
}
