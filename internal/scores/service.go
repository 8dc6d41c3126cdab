package scores

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/shared/util"
)

type Service struct {
	Repo  Repo
	Limit int
	Now   func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Limit: DefaultLimit, Now: func() time.Time { return time.Now().UTC() }}
}

// Record appends an ATS result. The job description is stored only as a
// hash.
func (s *Service) Record(ctx context.Context, resumeID string, res ai.ATSResult, jobDescription string) (Entry, error) {
	e := Entry{
		ID:          uuid.NewString(),
		ResumeID:    resumeID,
		Score:       res.Score,
		Breakdown:   res.Breakdown,
		Suggestions: res.Suggestions,
		CreatedAt:   s.Now(),
	}
	if strings.TrimSpace(jobDescription) != "" {
		e.JobDescriptionHash = util.HashText(jobDescription)
	}
	if err := s.Repo.Append(ctx, e, s.Limit); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// History returns entries newest first.
func (s *Service) History(ctx context.Context, resumeID string) ([]Entry, error) {
	items, err := s.Repo.ListByResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}
