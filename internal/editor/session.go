package editor

import (
	"context"
	"sync"
	"time"

	"resume-workspace/internal/autosave"
	"resume-workspace/internal/document"
	"resume-workspace/internal/history"
	"resume-workspace/internal/reorder"
	"resume-workspace/internal/resumes"
)

// Session is one open resume. All mutations and saves run under mu, so the
// session behaves as a single logical thread. The autosave timer and AI
// requests are the only work that runs outside it.
type Session struct {
	id   string
	deps *Deps

	mu         sync.Mutex
	closed     bool
	title      string
	templateID string
	photoURL   string
	atsScore   *int
	content    string
	persisted  string
	updatedAt  time.Time
	saveErr    error

	history  *history.History
	reorder  *reorder.Controller
	autosave *autosave.Scheduler

	aiGen    uint64
	aiBusy   bool
	aiCancel context.CancelFunc
}

func newSession(res resumes.Resume, deps *Deps) *Session {
	s := &Session{
		id:         res.ID,
		deps:       deps,
		title:      res.Title,
		templateID: res.TemplateID,
		photoURL:   res.PhotoURL,
		atsScore:   res.ATSScore,
		content:    res.Content,
		persisted:  res.Content,
		updatedAt:  res.UpdatedAt,
		history:    history.New(deps.Options.HistoryLimit),
		reorder:    reorder.New(),
	}
	s.history.Record(res.Content)
	var opts []autosave.Option
	if deps.AfterFunc != nil {
		opts = append(opts, autosave.WithAfterFunc(deps.AfterFunc))
	}
	s.autosave = autosave.New(deps.Options.AutosaveDelay, s.autosaveNow, opts...)
	return s
}

// ID returns the resume id.
func (s *Session) ID() string { return s.id }

// State is a read-only view of the session.
type State struct {
	ResumeID       string       `json:"resumeId"`
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	Sections       []string     `json:"sections"`
	TemplateID     string       `json:"templateId,omitempty"`
	ATSScore       *int         `json:"atsScore,omitempty"`
	Dirty          bool         `json:"dirty"`
	AutosaveArmed  bool         `json:"autosavePending"`
	LastSaveError  string       `json:"lastSaveError,omitempty"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	CanUndo        bool         `json:"canUndo"`
	CanRedo        bool         `json:"canRedo"`
	HistoryLength  int          `json:"historyLength"`
	HistoryPointer int          `json:"historyPointer"`
	Reorder        ReorderState `json:"reorder"`
	AIBusy         bool         `json:"aiBusy"`
}

// ReorderState mirrors the reorder controller.
type ReorderState struct {
	Mode        reorder.State        `json:"mode"`
	Dragged     string               `json:"dragged,omitempty"`
	Placeholder *reorder.Placeholder `json:"placeholder,omitempty"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		ResumeID:       s.id,
		Title:          s.title,
		Content:        s.content,
		Sections:       document.Names(s.content),
		TemplateID:     s.templateID,
		ATSScore:       s.atsScore,
		Dirty:          s.content != s.persisted,
		AutosaveArmed:  s.autosave.Pending(),
		UpdatedAt:      s.updatedAt,
		CanUndo:        s.history.CanUndo(),
		CanRedo:        s.deps.Options.RedoEnabled && s.history.CanRedo(),
		HistoryLength:  s.history.Len(),
		HistoryPointer: s.history.Pointer(),
		Reorder: ReorderState{
			Mode:        s.reorder.State(),
			Dragged:     s.reorder.Dragged(),
			Placeholder: s.reorder.Placeholder(),
		},
		AIBusy: s.aiBusy,
	}
	if s.saveErr != nil {
		st.LastSaveError = s.saveErr.Error()
	}
	return st
}

// Edit replaces the content wholesale, as typed in the editor.
func (s *Session) Edit(content string) (State, error) {
	return s.mutate(func(string) (string, error) { return content, nil })
}

// AddSection appends a template section.
func (s *Session) AddSection(name string) (State, error) {
	return s.mutate(func(cur string) (string, error) { return document.AddSection(cur, name) })
}

// RemoveSection deletes a section. The last section cannot be removed.
func (s *Session) RemoveSection(name string) (State, error) {
	return s.mutate(func(cur string) (string, error) { return document.RemoveSection(cur, name) })
}

// ReorderSections applies an explicit order.
func (s *Session) ReorderSections(order []string) (State, error) {
	return s.mutate(func(cur string) (string, error) { return document.ReorderSections(cur, order) })
}

// Undo steps back one snapshot. At the oldest snapshot it returns the
// unchanged state with ErrNothingToUndo.
func (s *Session) Undo() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	prev, ok := s.history.Undo()
	if !ok {
		return s.stateLocked(), ErrNothingToUndo
	}
	s.setContentLocked(prev)
	return s.stateLocked(), nil
}

// Redo steps forward again when enabled.
func (s *Session) Redo() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	if !s.deps.Options.RedoEnabled {
		return s.stateLocked(), ErrRedoDisabled
	}
	next, ok := s.history.Redo()
	if !ok {
		return s.stateLocked(), ErrNothingToRedo
	}
	s.setContentLocked(next)
	return s.stateLocked(), nil
}

// mutate runs fn against the current content and records the result.
func (s *Session) mutate(fn func(current string) (string, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	next, err := fn(s.content)
	if err != nil {
		return s.stateLocked(), err
	}
	s.recordLocked(next)
	return s.stateLocked(), nil
}

// recordLocked makes next the current content and pushes it onto history.
// A recorded change re-arms the autosave debounce.
func (s *Session) recordLocked(next string) bool {
	if !s.history.Record(next) {
		return false
	}
	s.content = next
	s.autosave.Touch()
	return true
}

// setContentLocked moves content without touching history (undo/redo).
func (s *Session) setContentLocked(next string) {
	if next == s.content {
		return
	}
	s.content = next
	s.autosave.Touch()
}
