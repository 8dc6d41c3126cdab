package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-workspace/internal/diff"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/shared/metrics"
	"resume-workspace/internal/shared/storage/kv"
	"resume-workspace/internal/shared/telemetry"
	"resume-workspace/internal/versions"
)

const defaultSaveTimeout = 10 * time.Second

// SaveResult reports what a manual save produced.
type SaveResult struct {
	Version *versions.Version `json:"version,omitempty"`
	Created bool              `json:"versionCreated"`
}

// autosaveNow is the debounce callback: persist content and updatedAt, no
// version and no notification. A fire that finds nothing new is a no-op,
// which covers a manual save that won the race.
func (s *Session) autosaveNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.content == s.persisted {
		return
	}
	timeout := s.deps.Options.SaveTimeout
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.persistLocked(ctx); err != nil {
		metrics.IncAutosaveFailed()
		telemetry.Warn("autosave.failed", map[string]any{
			"resume_id": s.id,
			"error":     err.Error(),
			"quota":     errors.Is(err, kv.ErrQuotaExceeded),
		})
		return
	}
	metrics.IncAutosave()
	telemetry.Info("autosave.saved", map[string]any{
		"resume_id": s.id,
		"bytes":     len(s.persisted),
	})
}

// Save persists immediately, cancelling any pending autosave, then appends a
// manual version when the content changed since the last version.
func (s *Session) Save(ctx context.Context) (State, SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, SaveResult{}, ErrSessionClosed
	}
	s.autosave.Cancel()
	if err := s.persistLocked(ctx); err != nil {
		s.rearmIfDirtyLocked()
		return s.stateLocked(), SaveResult{}, err
	}
	metrics.IncManualSave()

	v, created, err := s.deps.Versions.CreateVersion(ctx, versions.CreateInput{
		ResumeID:   s.id,
		Content:    s.content,
		ChangeType: versions.ChangeManual,
		ATSScore:   s.atsScore,
	})
	if err != nil {
		s.noteStorageErrLocked(err)
		return s.stateLocked(), SaveResult{}, err
	}
	res := SaveResult{Created: created}
	if created {
		res.Version = &v
	}
	telemetry.Info("save.manual", map[string]any{
		"resume_id":       s.id,
		"version_created": created,
	})
	return s.stateLocked(), res, nil
}

// CreateSnapshot force-appends a manual version of the current content.
func (s *Session) CreateSnapshot(ctx context.Context, label string) (versions.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return versions.Version{}, ErrSessionClosed
	}
	v, _, err := s.deps.Versions.CreateVersion(ctx, versions.CreateInput{
		ResumeID:   s.id,
		Content:    s.content,
		ChangeType: versions.ChangeManual,
		Label:      label,
		ATSScore:   s.atsScore,
		Force:      true,
	})
	if err != nil {
		s.noteStorageErrLocked(err)
		return versions.Version{}, err
	}
	return v, nil
}

// RestoreVersion checkpoints the current content as "Before restore point",
// switches to the version's content and persists at once. When the
// checkpoint cannot be written nothing is restored.
func (s *Session) RestoreVersion(ctx context.Context, versionID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	target, err := s.deps.Versions.Get(ctx, versionID)
	if err != nil {
		return s.stateLocked(), err
	}
	if target.ResumeID != s.id {
		return s.stateLocked(), versions.ErrVersionNotFound
	}

	if _, _, err := s.deps.Versions.CreateVersion(ctx, versions.CreateInput{
		ResumeID:   s.id,
		Content:    s.content,
		ChangeType: versions.ChangeManual,
		Label:      versions.RestoreLabel,
		Summary:    "Checkpoint before restoring " + target.Label,
		ATSScore:   s.atsScore,
		Force:      true,
	}); err != nil {
		s.noteStorageErrLocked(err)
		return s.stateLocked(), fmt.Errorf("checkpoint before restore: %w", err)
	}

	s.recordLocked(target.Content)
	s.autosave.Cancel()
	if err := s.persistLocked(ctx); err != nil {
		s.rearmIfDirtyLocked()
		return s.stateLocked(), err
	}
	telemetry.Info("version.restored", map[string]any{
		"resume_id":  s.id,
		"version_id": target.ID,
	})
	return s.stateLocked(), nil
}

// ApplyTemplate switches the visual template, persists, and records a
// forced template-change version.
func (s *Session) ApplyTemplate(ctx context.Context, templateID string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return s.stateLocked(), fmt.Errorf("%w: templateId is required", resumes.ErrInvalidInput)
	}
	s.autosave.Cancel()
	res, err := s.deps.Resumes.SetTemplate(ctx, s.id, templateID, s.content)
	if err != nil {
		s.noteStorageErrLocked(err)
		s.rearmIfDirtyLocked()
		return s.stateLocked(), err
	}
	previous := s.templateID
	s.templateID = res.TemplateID
	s.persisted = s.content
	s.updatedAt = res.UpdatedAt
	s.saveErr = nil

	summary := "Template changed to " + templateID
	if previous != "" {
		summary = fmt.Sprintf("Template changed from %s to %s", previous, templateID)
	}
	if _, _, err := s.deps.Versions.CreateVersion(ctx, versions.CreateInput{
		ResumeID:   s.id,
		Content:    s.content,
		ChangeType: versions.ChangeTemplateChange,
		Summary:    summary,
		ATSScore:   s.atsScore,
		Force:      true,
	}); err != nil {
		s.noteStorageErrLocked(err)
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// CompareWithVersion diffs a version against the current content.
func (s *Session) CompareWithVersion(ctx context.Context, versionID string) (diff.Result, error) {
	v, err := s.deps.Versions.Get(ctx, versionID)
	if err != nil {
		return diff.Result{}, err
	}
	if v.ResumeID != s.id {
		return diff.Result{}, versions.ErrVersionNotFound
	}
	s.mu.Lock()
	current := s.content
	s.mu.Unlock()
	return diff.Compare(v.Content, current), nil
}

// persistLocked writes the current content. On failure the in-memory state
// is kept untouched.
func (s *Session) persistLocked(ctx context.Context) error {
	content := s.content
	res, err := s.deps.Resumes.UpdateContent(ctx, s.id, content)
	if err != nil {
		s.noteStorageErrLocked(err)
		return err
	}
	s.persisted = content
	s.updatedAt = res.UpdatedAt
	s.saveErr = nil
	return nil
}

// rearmIfDirtyLocked gives a failed explicit save one more silent attempt.
// Silent saves do not re-arm themselves; the next edit does.
func (s *Session) rearmIfDirtyLocked() {
	if !s.closed && s.content != s.persisted {
		s.autosave.Touch()
	}
}

func (s *Session) noteStorageErrLocked(err error) {
	s.saveErr = err
	if errors.Is(err, kv.ErrQuotaExceeded) {
		metrics.IncStorageQuota()
	}
}
