package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/diff"
	"resume-workspace/internal/document"
	"resume-workspace/internal/shared/metrics"
	"resume-workspace/internal/shared/telemetry"
	"resume-workspace/internal/versions"
)

// aiTicket is an in-flight request. gen ties it to the session generation
// at the time it started.
type aiTicket struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	content string
	op      string
	start   time.Time
}

// beginAI claims the single AI slot. check, when set, validates the current
// content under the same lock so a rejected request never holds the slot.
func (s *Session) beginAI(ctx context.Context, op string, check func(content string) error) (*aiTicket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.aiBusy {
		return nil, ErrAIBusy
	}
	if s.deps.AI == nil {
		return nil, ai.ErrMissingCredential
	}
	if check != nil {
		if err := check(s.content); err != nil {
			return nil, err
		}
	}
	callCtx, cancel := context.WithCancel(ctx)
	s.aiBusy = true
	s.aiCancel = cancel
	metrics.IncAIRequest()
	telemetry.Info("ai.request", map[string]any{
		"resume_id": s.id,
		"op":        op,
	})
	return &aiTicket{ctx: callCtx, cancel: cancel, gen: s.aiGen, content: s.content, op: op, start: time.Now()}, nil
}

// finishAILocked releases the slot and reports whether the response may be
// applied. callErr is the gateway error, if any.
func (s *Session) finishAILocked(t *aiTicket, callErr error) error {
	t.cancel()
	metrics.ObserveAIDurationMs(metrics.SinceMillis(t.start))
	if t.gen != s.aiGen || s.closed {
		metrics.IncAIStaleDiscard()
		telemetry.Info("ai.discarded_stale", map[string]any{
			"resume_id": s.id,
			"op":        t.op,
		})
		return ErrStaleResponse
	}
	s.aiBusy = false
	s.aiCancel = nil
	if callErr != nil {
		metrics.IncAIFailed()
		telemetry.Warn("ai.failed", map[string]any{
			"resume_id": s.id,
			"op":        t.op,
			"error":     callErr.Error(),
		})
		return callErr
	}
	return nil
}

// cancelAILocked invalidates any in-flight request.
func (s *Session) cancelAILocked() {
	s.aiGen++
	if s.aiCancel != nil {
		s.aiCancel()
		s.aiCancel = nil
	}
	s.aiBusy = false
}

// EnhanceSelection rewrites the first visible occurrence of selection inside
// a section body. The result is applied as a normal edit and recorded as an
// ai-enhanced version.
func (s *Session) EnhanceSelection(ctx context.Context, selection string) (State, ai.Enhancement, error) {
	if strings.TrimSpace(selection) == "" {
		return State{}, ai.Enhancement{}, ErrEmptySelection
	}
	t, err := s.beginAI(ctx, "enhance_text", func(content string) error {
		if _, ok := findSelection(document.Parse(content), selection); !ok {
			return ErrSelectionNotFound
		}
		return nil
	})
	if err != nil {
		return s.State(), ai.Enhancement{}, err
	}

	res, callErr := s.deps.AI.EnhanceText(t.ctx, selection, diff.StripMarkup(t.content))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishAILocked(t, callErr); err != nil {
		return s.stateLocked(), ai.Enhancement{}, err
	}
	next, err := replaceSelection(s.content, selection, res.Text)
	if errors.Is(err, ErrSelectionNotFound) {
		metrics.IncAIStaleDiscard()
		return s.stateLocked(), ai.Enhancement{}, ErrStaleResponse
	}
	if err != nil {
		metrics.IncAIFailed()
		telemetry.Warn("ai.rejected", map[string]any{
			"resume_id": s.id,
			"op":        "enhance_text",
			"error":     err.Error(),
		})
		return s.stateLocked(), ai.Enhancement{}, err
	}
	if err := s.applyAILocked(ctx, next, "Enhanced selected text"); err != nil {
		return s.stateLocked(), res, err
	}
	return s.stateLocked(), res, nil
}

// RewriteSection asks the gateway to rewrite one section's text and replaces
// the section body with the result. instruction is optional guidance.
func (s *Session) RewriteSection(ctx context.Context, name, instruction string) (State, ai.Enhancement, error) {
	t, err := s.beginAI(ctx, "rewrite_section", func(content string) error {
		if _, ok := document.Parse(content).Section(name); !ok {
			return fmt.Errorf("%w: %s", document.ErrSectionNotFound, name)
		}
		return nil
	})
	if err != nil {
		return s.State(), ai.Enhancement{}, err
	}
	sec, _ := document.Parse(t.content).Section(name)

	prompt := "Rewrite the " + name + " section of this resume."
	if instruction = strings.TrimSpace(instruction); instruction != "" {
		prompt += " " + instruction
	}
	prompt += "\n\n" + diff.StripMarkup(t.content)
	res, callErr := s.deps.AI.EnhanceText(t.ctx, strings.TrimSpace(sectionText(sec)), prompt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishAILocked(t, callErr); err != nil {
		return s.stateLocked(), ai.Enhancement{}, err
	}
	current, ok := document.Parse(s.content).Section(name)
	if !ok || current.Body != sec.Body {
		metrics.IncAIStaleDiscard()
		return s.stateLocked(), ai.Enhancement{}, ErrStaleResponse
	}
	next, err := document.ReplaceSectionBody(s.content, name, renderBody(name, res.Text))
	if err != nil {
		return s.stateLocked(), ai.Enhancement{}, err
	}
	if err := s.applyAILocked(ctx, next, "Rewrote "+name+" section"); err != nil {
		return s.stateLocked(), res, err
	}
	return s.stateLocked(), res, nil
}

// applyAILocked records next as an edit and appends an ai-enhanced version.
func (s *Session) applyAILocked(ctx context.Context, next, summary string) error {
	if !s.recordLocked(next) {
		return nil
	}
	if _, _, err := s.deps.Versions.CreateVersion(ctx, versions.CreateInput{
		ResumeID:   s.id,
		Content:    next,
		ChangeType: versions.ChangeAIEnhanced,
		Summary:    summary,
		ATSScore:   s.atsScore,
	}); err != nil {
		s.noteStorageErrLocked(err)
		return err
	}
	return nil
}

// AnalyzeATS scores the current content. The score is stored on the resume
// and in score history; the content is never touched.
func (s *Session) AnalyzeATS(ctx context.Context, jobDescription string) (ai.ATSResult, error) {
	t, err := s.beginAI(ctx, "analyze_ats", nil)
	if err != nil {
		return ai.ATSResult{}, err
	}
	res, callErr := s.deps.AI.AnalyzeATS(t.ctx, diff.StripMarkup(t.content), jobDescription)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishAILocked(t, callErr); err != nil {
		return ai.ATSResult{}, err
	}
	score := res.Score
	s.atsScore = &score
	if _, err := s.deps.Resumes.SetATSScore(ctx, s.id, score); err != nil {
		s.noteStorageErrLocked(err)
		return res, err
	}
	if s.deps.Scores != nil {
		if _, err := s.deps.Scores.Record(ctx, s.id, res, jobDescription); err != nil {
			s.noteStorageErrLocked(err)
			return res, err
		}
	}
	return res, nil
}

// AnalyzeGaps reports weaknesses in the current content.
func (s *Session) AnalyzeGaps(ctx context.Context) (ai.GapReport, error) {
	t, err := s.beginAI(ctx, "analyze_gaps", nil)
	if err != nil {
		return ai.GapReport{}, err
	}
	res, callErr := s.deps.AI.AnalyzeGaps(t.ctx, diff.StripMarkup(t.content))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishAILocked(t, callErr); err != nil {
		return ai.GapReport{}, err
	}
	return res, nil
}

// MatchKeywords compares the current content with a job description.
func (s *Session) MatchKeywords(ctx context.Context, jobDescription string) (ai.KeywordMatch, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return ai.KeywordMatch{}, ErrMissingJobDescription
	}
	t, err := s.beginAI(ctx, "match_keywords", nil)
	if err != nil {
		return ai.KeywordMatch{}, err
	}
	res, callErr := s.deps.AI.MatchKeywords(t.ctx, diff.StripMarkup(t.content), jobDescription)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.finishAILocked(t, callErr); err != nil {
		return ai.KeywordMatch{}, err
	}
	return res, nil
}

// sectionText is the section body without its heading.
func sectionText(sec document.Section) string {
	body := sec.Body
	heading := "<h2>" + html.EscapeString(sec.Name) + "</h2>"
	if i := strings.Index(body, heading); i >= 0 {
		body = body[i+len(heading):]
	}
	return diff.StripMarkup(body)
}

// renderBody lays text out as a heading plus one paragraph per line.
func renderBody(name, text string) string {
	var b strings.Builder
	b.WriteString("\n<h2>" + html.EscapeString(name) + "</h2>\n")
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			b.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
		}
	}
	return b.String()
}
