package editor

import (
	"context"
	"time"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/autosave"
	"resume-workspace/internal/export"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/scores"
	"resume-workspace/internal/versions"
)

// ResumeStore loads and persists resume records.
type ResumeStore interface {
	Get(ctx context.Context, id string) (resumes.Resume, error)
	UpdateContent(ctx context.Context, id, content string) (resumes.Resume, error)
	SetATSScore(ctx context.Context, id string, score int) (resumes.Resume, error)
	SetTemplate(ctx context.Context, id, templateID, content string) (resumes.Resume, error)
}

// VersionStore appends and reads versions.
type VersionStore interface {
	CreateVersion(ctx context.Context, in versions.CreateInput) (versions.Version, bool, error)
	Get(ctx context.Context, id string) (versions.Version, error)
}

// ScoreRecorder keeps ATS score history.
type ScoreRecorder interface {
	Record(ctx context.Context, resumeID string, res ai.ATSResult, jobDescription string) (scores.Entry, error)
}

// Exporter stages snapshots for rendering.
type Exporter interface {
	Stage(ctx context.Context, snap export.Snapshot) (export.Receipt, error)
}

// Options tunes sessions.
type Options struct {
	HistoryLimit  int
	AutosaveDelay time.Duration
	RedoEnabled   bool
	// SaveTimeout bounds a silent save, which has no request context.
	SaveTimeout time.Duration
}

// Deps are the collaborators shared by every session.
type Deps struct {
	Resumes  ResumeStore
	Versions VersionStore
	Scores   ScoreRecorder
	Exporter Exporter
	AI       ai.Gateway
	Options  Options

	// AfterFunc and Now are overridable for tests.
	AfterFunc autosave.AfterFunc
	Now       func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}
