package resumes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-workspace/internal/document"
	"resume-workspace/internal/extract"
	"resume-workspace/internal/shared/telemetry"
	"resume-workspace/internal/versions"
)

// VersionRecorder appends versions. *versions.Service satisfies it.
type VersionRecorder interface {
	CreateVersion(ctx context.Context, in versions.CreateInput) (versions.Version, bool, error)
}

// Service owns resume records. Editing goes through the session engine,
// which calls UpdateContent to persist.
type Service struct {
	Repo     Repo
	Versions VersionRecorder
	Now      func() time.Time
	// OnDelete runs after a resume is removed, e.g. to close its session.
	OnDelete func(resumeID string)
}

func NewService(repo Repo, recorder VersionRecorder) *Service {
	return &Service{Repo: repo, Versions: recorder, Now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput describes a blank resume.
type CreateInput struct {
	Title      string
	Type       Type
	TemplateID string
	Sections   []string
}

// Create persists a resume seeded with template sections.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (Resume, error) {
	names := in.Sections
	if len(names) == 0 {
		names = document.DefaultSections
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if err := document.ValidateSectionName(n); err != nil {
			return Resume{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if seen[n] {
			return Resume{}, fmt.Errorf("%w: duplicate section %q", ErrInvalidInput, n)
		}
		seen[n] = true
	}
	return s.insert(ctx, ownerID, in.Title, in.Type, in.TemplateID, document.Template(names...))
}

// Import creates a resume from an uploaded PDF, DOCX or text file and
// records an import version.
func (s *Service) Import(ctx context.Context, ownerID, title string, data []byte, mimeType, fileName string) (Resume, error) {
	text, err := extract.FromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Resume{}, err
		}
		return Resume{}, fmt.Errorf("%w: %s: %v", ErrInvalidInput, fileName, err)
	}
	if strings.TrimSpace(text) == "" {
		return Resume{}, fmt.Errorf("%w: no text found in %s", ErrInvalidInput, fileName)
	}
	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	content := contentFromSections(extract.SplitSections(text))
	return s.importContent(ctx, ownerID, title, content, "Imported from "+fileName)
}

// ImportProfile creates a resume from a structured profile.
func (s *Service) ImportProfile(ctx context.Context, ownerID, title string, p Profile) (Resume, error) {
	if p.Name() == "" {
		return Resume{}, fmt.Errorf("%w: profile name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(title) == "" {
		title = p.Name()
	}
	return s.importContent(ctx, ownerID, title, contentFromProfile(p), "Imported from profile")
}

func (s *Service) importContent(ctx context.Context, ownerID, title, content, summary string) (Resume, error) {
	res, err := s.insert(ctx, ownerID, title, TypeMaster, "", content)
	if err != nil {
		return Resume{}, err
	}
	if s.Versions != nil {
		if _, _, err := s.Versions.CreateVersion(ctx, versions.CreateInput{
			ResumeID:   res.ID,
			Content:    content,
			ChangeType: versions.ChangeImport,
			Summary:    summary,
			Force:      true,
		}); err != nil {
			return res, err
		}
	}
	telemetry.Info("resume.imported", map[string]any{
		"resume_id": res.ID,
		"sections":  len(document.Names(content)),
	})
	return res, nil
}

func (s *Service) insert(ctx context.Context, ownerID, title string, typ Type, templateID, content string) (Resume, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Resume{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	title, err := cleanTitle(title)
	if err != nil {
		return Resume{}, err
	}
	if typ == "" {
		typ = TypeMaster
	}
	if typ != TypeMaster && typ != TypeCampaign {
		return Resume{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, typ)
	}
	now := s.now()
	res := Resume{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Title:      title,
		Type:       typ,
		Content:    content,
		TemplateID: strings.TrimSpace(templateID),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Insert(ctx, res); err != nil {
		return Resume{}, err
	}
	return res, nil
}

// Get returns a resume by id.
func (s *Service) Get(ctx context.Context, id string) (Resume, error) {
	return s.Repo.Get(ctx, id)
}

// List returns the owner's resumes, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Summary, error) {
	items, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	out := make([]Summary, 0, len(items))
	for _, r := range items {
		out = append(out, Summary{
			ID:         r.ID,
			Title:      r.Title,
			Type:       r.Type,
			ATSScore:   r.ATSScore,
			TemplateID: r.TemplateID,
			Sections:   document.Names(r.Content),
			UpdatedAt:  r.UpdatedAt,
		})
	}
	return out, nil
}

// Rename changes the title.
func (s *Service) Rename(ctx context.Context, id, title string) (Resume, error) {
	title, err := cleanTitle(title)
	if err != nil {
		return Resume{}, err
	}
	return s.Repo.Update(ctx, id, func(r *Resume) error {
		r.Title = title
		r.UpdatedAt = s.now()
		return nil
	})
}

// UpdateContent persists content and bumps UpdatedAt. It never creates a
// version.
func (s *Service) UpdateContent(ctx context.Context, id, content string) (Resume, error) {
	return s.Repo.Update(ctx, id, func(r *Resume) error {
		r.Content = content
		r.UpdatedAt = s.now()
		return nil
	})
}

// SetATSScore stores the latest ATS score.
func (s *Service) SetATSScore(ctx context.Context, id string, score int) (Resume, error) {
	if score < 0 || score > 100 {
		return Resume{}, fmt.Errorf("%w: score %d out of range", ErrInvalidInput, score)
	}
	return s.Repo.Update(ctx, id, func(r *Resume) error {
		r.ATSScore = &score
		return nil
	})
}

// SetTemplate records the visual template and persists content alongside it.
func (s *Service) SetTemplate(ctx context.Context, id, templateID, content string) (Resume, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return Resume{}, fmt.Errorf("%w: templateId is required", ErrInvalidInput)
	}
	return s.Repo.Update(ctx, id, func(r *Resume) error {
		r.TemplateID = templateID
		r.Content = content
		r.UpdatedAt = s.now()
		return nil
	})
}

// SetPhoto stores the photo reference used by templates that show one.
func (s *Service) SetPhoto(ctx context.Context, id, photoURL string) (Resume, error) {
	return s.Repo.Update(ctx, id, func(r *Resume) error {
		r.PhotoURL = strings.TrimSpace(photoURL)
		r.UpdatedAt = s.now()
		return nil
	})
}

// Delete removes the record only. Comments, reviews and versions that refer
// to it are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.OnDelete != nil {
		s.OnDelete(id)
	}
	telemetry.Info("resume.deleted", map[string]any{"resume_id": id})
	return nil
}

// Authorize reports whether userID owns resumeID.
func (s *Service) Authorize(ctx context.Context, userID, resumeID string) error {
	r, err := s.Repo.Get(ctx, resumeID)
	if err != nil {
		return err
	}
	if r.OwnerID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func cleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", fmt.Errorf("%w: title longer than %d characters", ErrInvalidInput, maxTitleLength)
	}
	return title, nil
}
