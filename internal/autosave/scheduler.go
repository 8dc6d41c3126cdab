// Package autosave debounces silent saves. Every Touch re-arms a single
// timer; the save runs once the content has been quiet for the delay.
package autosave

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a silent save.
const DefaultDelay = 2 * time.Second

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it via
// RealAfterFunc; tests inject a manual clock.
type AfterFunc func(d time.Duration, f func()) Timer

// RealAfterFunc wraps time.AfterFunc.
func RealAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Scheduler owns one debounce timer.
type Scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	save    func()
	after   AfterFunc
	timer   Timer
	gen     uint64
	stopped bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterFunc overrides the timer source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.after = fn
		}
	}
}

// New returns a scheduler calling save after delay of inactivity.
func New(delay time.Duration, save func(), opts ...Option) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	s := &Scheduler{delay: delay, save: save, after: RealAfterFunc}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Touch restarts the debounce window. No-op after Stop.
func (s *Scheduler) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.resetLocked()
	gen := s.gen
	s.timer = s.after(s.delay, func() { s.fire(gen) })
}

// Cancel drops a pending save. Manual saves call it before persisting.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Stop cancels and refuses further Touch calls. Used on session teardown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.stopped = true
}

// Pending reports whether a save is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Delay returns the debounce window.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// resetLocked invalidates the current generation so a timer that already
// fired but has not yet taken the lock becomes a no-op.
func (s *Scheduler) resetLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if s.stopped || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	// Run outside the lock: the save takes the session lock, and session
	// code calls Touch/Cancel while holding it.
	s.save()
}
