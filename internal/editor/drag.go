package editor

import (
	"errors"
	"fmt"
	"time"

	"resume-workspace/internal/document"
	"resume-workspace/internal/reorder"
)

// Trigger records one reorder activation gesture. Two within
// reorder.ActivationWindow arm drag mode. A zero at uses the clock.
func (s *Session) Trigger(at time.Time) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	if at.IsZero() {
		at = s.deps.now()
	}
	s.reorder.Trigger(at)
	return s.stateLocked(), nil
}

// Interact disarms drag mode after a primary interaction outside a drag.
func (s *Session) Interact() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	s.reorder.Interact()
	return s.stateLocked(), nil
}

// BeginDrag picks up a section. Content does not change until Drop.
func (s *Session) BeginDrag(name string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	if err := s.reorder.BeginDrag(document.Names(s.content), name); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// Hover moves the placeholder relative to target.
func (s *Session) Hover(target string, pointerY, top, height float64) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	if _, err := s.reorder.Hover(target, pointerY, top, height); err != nil {
		return s.stateLocked(), err
	}
	return s.stateLocked(), nil
}

// Drop commits the drag. The new order goes through the same path as any
// other edit, so it lands in history and re-arms autosave.
func (s *Session) Drop() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	order, changed, err := s.reorder.Drop()
	if err != nil {
		return s.stateLocked(), err
	}
	if !changed {
		return s.stateLocked(), nil
	}
	next, err := document.ReorderSections(s.content, order)
	if errors.Is(err, document.ErrInvalidOrder) {
		// A section was added or removed while the block was held.
		return s.stateLocked(), fmt.Errorf("%w: %v", ErrDropOutdated, err)
	}
	if err != nil {
		return s.stateLocked(), err
	}
	s.recordLocked(next)
	return s.stateLocked(), nil
}

// CancelDrag abandons the drag and stays armed.
func (s *Session) CancelDrag() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return State{}, ErrSessionClosed
	}
	s.reorder.Cancel()
	return s.stateLocked(), nil
}

// ReorderMode reports the controller state.
func (s *Session) ReorderMode() reorder.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reorder.State()
}
