package editor

import (
	"context"
	"sync"

	"resume-workspace/internal/document"
	"resume-workspace/internal/export"
	"resume-workspace/internal/shared/telemetry"
)

// Manager owns the open sessions, one per resume.
type Manager struct {
	deps *Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	return &Manager{deps: &deps, sessions: make(map[string]*Session)}
}

// RedoEnabled reports whether redo is exposed.
func (m *Manager) RedoEnabled() bool { return m.deps.Options.RedoEnabled }

// Open returns the open session for resumeID, loading the resume on first
// use.
func (m *Manager) Open(ctx context.Context, resumeID string) (*Session, error) {
	if s, ok := m.Get(resumeID); ok {
		return s, nil
	}
	res, err := m.deps.Resumes.Get(ctx, resumeID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[resumeID]; ok {
		return s, nil
	}
	s := newSession(res, m.deps)
	m.sessions[resumeID] = s
	telemetry.Info("session.open", map[string]any{
		"resume_id": resumeID,
		"sections":  len(document.Names(res.Content)),
	})
	return s, nil
}

// Get returns an already open session.
func (m *Manager) Get(resumeID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[resumeID]
	return s, ok
}

// Close tears a session down without writing: pending autosave is dropped,
// the reorder controller reset and any AI request invalidated. Unsaved
// content is lost, matching navigation away from the editor.
func (m *Manager) Close(resumeID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[resumeID]
	delete(m.sessions, resumeID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	return true
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.autosave.Stop()
	s.reorder.Reset()
	s.cancelAILocked()
	telemetry.Info("session.close", map[string]any{
		"resume_id": s.id,
		"dirty":     s.content != s.persisted,
	})
}

// Export stages the committed content. An in-progress drag never affects
// it because drags do not touch content before drop.
func (s *Session) Export(ctx context.Context, format string) (export.Receipt, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Receipt{}, err
	}
	// Title and photo are edited outside the session.
	res, err := s.deps.Resumes.Get(ctx, s.id)
	if err != nil {
		return export.Receipt{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return export.Receipt{}, ErrSessionClosed
	}
	s.title = res.Title
	s.photoURL = res.PhotoURL
	snap := export.Snapshot{
		ResumeID:     s.id,
		Title:        s.title,
		Content:      s.content,
		Format:       f,
		TemplateID:   s.templateID,
		PhotoURL:     s.photoURL,
		SectionOrder: document.Names(s.content),
	}
	s.mu.Unlock()
	return s.deps.Exporter.Stage(ctx, snap)
}
