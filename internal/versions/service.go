package versions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-workspace/internal/diff"
	"resume-workspace/internal/shared/metrics"
	"resume-workspace/internal/shared/telemetry"
)

// Service appends, lists and edits versions.
type Service struct {
	Repo  Repo
	Limit int
	Now   func() time.Time

	mu   sync.Mutex
	last map[string]string
}

// NewService returns a service capped at limit versions per resume.
func NewService(repo Repo, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{Repo: repo, Limit: limit, Now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput describes a version request.
type CreateInput struct {
	ResumeID   string
	Content    string
	ChangeType ChangeType
	Summary    string
	Label      string
	ATSScore   *int
	// Force appends even when Content matches the last version.
	Force bool
}

// CreateVersion appends a version unless the request is not forced and the
// content matches the resume's last version. created reports which happened.
func (s *Service) CreateVersion(ctx context.Context, in CreateInput) (Version, bool, error) {
	if strings.TrimSpace(in.ResumeID) == "" {
		return Version{}, false, fmt.Errorf("%w: resumeId is required", ErrInvalidInput)
	}
	if in.ChangeType == "" {
		in.ChangeType = ChangeManual
	}
	if !in.ChangeType.Valid() {
		return Version{}, false, fmt.Errorf("%w: unknown change type %q", ErrInvalidInput, in.ChangeType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Repo.ListByResume(ctx, in.ResumeID)
	if err != nil {
		return Version{}, false, err
	}
	lastContent, hasLast := s.lastContentLocked(in.ResumeID, existing)
	if !in.Force && hasLast && lastContent == in.Content {
		return Version{}, false, nil
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = fmt.Sprintf("Version %d", len(existing)+1)
	}
	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		if hasLast {
			summary = diff.Compare(lastContent, in.Content).Summary()
		} else {
			summary = "Initial version"
		}
	}

	v := Version{
		ID:            uuid.NewString(),
		ResumeID:      in.ResumeID,
		Content:       in.Content,
		Timestamp:     s.now(),
		Label:         label,
		ChangeType:    in.ChangeType,
		ChangeSummary: summary,
		ATSScore:      in.ATSScore,
	}
	if err := s.Repo.Append(ctx, v, s.Limit); err != nil {
		return Version{}, false, err
	}
	if s.last == nil {
		s.last = make(map[string]string)
	}
	s.last[in.ResumeID] = in.Content
	metrics.IncVersionsCreated(string(in.ChangeType))

	telemetry.Info("version.created", map[string]any{
		"resume_id":   in.ResumeID,
		"version_id":  v.ID,
		"change_type": v.ChangeType,
		"forced":      in.Force,
		"label":       v.Label,
	})
	return v, true, nil
}

// lastContentLocked returns the last recorded content, filling the cache
// from the stored list on a miss.
func (s *Service) lastContentLocked(resumeID string, existing []Version) (string, bool) {
	if content, ok := s.last[resumeID]; ok {
		return content, true
	}
	if len(existing) == 0 {
		return "", false
	}
	latest := existing[len(existing)-1]
	if s.last == nil {
		s.last = make(map[string]string)
	}
	s.last[resumeID] = latest.Content
	return latest.Content, true
}

// List returns a resume's versions newest first.
func (s *Service) List(ctx context.Context, resumeID string) ([]Version, error) {
	items, err := s.Repo.ListByResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// Get fetches one version.
func (s *Service) Get(ctx context.Context, id string) (Version, error) {
	return s.Repo.Get(ctx, id)
}

// Rename changes a version's label.
func (s *Service) Rename(ctx context.Context, id, label string) (Version, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Version{}, fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return Version{}, fmt.Errorf("%w: label longer than %d characters", ErrInvalidInput, MaxLabelLength)
	}
	return s.Repo.Rename(ctx, id, label)
}

// Delete removes a version. Nothing else references versions, so there is
// nothing to cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	v, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	delete(s.last, v.ResumeID)
	return nil
}

// Forget drops cached state for a resume.
func (s *Service) Forget(resumeID string) {
	s.mu.Lock()
	delete(s.last, resumeID)
	s.mu.Unlock()
}

// Compare diffs two versions, from -> to.
func (s *Service) Compare(ctx context.Context, fromID, toID string) (diff.Result, error) {
	from, err := s.Repo.Get(ctx, fromID)
	if err != nil {
		return diff.Result{}, err
	}
	to, err := s.Repo.Get(ctx, toID)
	if err != nil {
		return diff.Result{}, err
	}
	return diff.Compare(from.Content, to.Content), nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
