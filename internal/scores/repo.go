package scores

import (
	"context"

	"resume-workspace/internal/shared/storage/kv"
)

type Repo interface {
	ListByResume(ctx context.Context, resumeID string) ([]Entry, error)
	Append(ctx context.Context, e Entry, keep int) error
}

// KVRepo stores entries in the "ats_score_history" collection.
type KVRepo struct {
	col *kv.Collection[Entry]
}

func NewKVRepo(store kv.Store) *KVRepo {
	return &KVRepo{col: kv.NewCollection[Entry](store, kv.KeyATSScoreHistory)}
}

func (r *KVRepo) ListByResume(ctx context.Context, resumeID string) ([]Entry, error) {
	all, err := r.col.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0)
	for _, e := range all {
		if e.ResumeID == resumeID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Append adds e and drops the resume's oldest entries beyond keep.
func (r *KVRepo) Append(ctx context.Context, e Entry, keep int) error {
	return r.col.Update(ctx, func(all []Entry) ([]Entry, error) {
		all = append(all, e)
		if keep <= 0 {
			return all, nil
		}
		count := 0
		for _, it := range all {
			if it.ResumeID == e.ResumeID {
				count++
			}
		}
		drop := count - keep
		out := all[:0]
		for _, it := range all {
			if drop > 0 && it.ResumeID == e.ResumeID {
				drop--
				continue
			}
			out = append(out, it)
		}
		return out, nil
	})
}
