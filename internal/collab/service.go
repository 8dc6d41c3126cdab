package collab

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resume-workspace/internal/shared/storage/kv"
	"resume-workspace/internal/shared/telemetry"
)

// Service manages comments and review requests. It does not depend on the
// save cycle of the editing session.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// AddComment appends a comment by author, optionally anchored to a section.
func (s *Service) AddComment(ctx context.Context, author Identity, resumeID, content, section string) (Comment, error) {
	content, err := cleanText("content", content, maxCommentLength, true)
	if err != nil {
		return Comment{}, err
	}
	if strings.TrimSpace(resumeID) == "" {
		return Comment{}, fmt.Errorf("%w: resumeId is required", ErrInvalidInput)
	}
	c := Comment{
		ID:        uuid.NewString(),
		ResumeID:  resumeID,
		Author:    author,
		Content:   content,
		Timestamp: s.now(),
		Section:   strings.TrimSpace(section),
		Replies:   []Reply{},
	}
	if err := s.Repo.InsertComment(ctx, c); err != nil {
		return Comment{}, err
	}
	return c, nil
}

// ListComments returns a resume's comments oldest first.
func (s *Service) ListComments(ctx context.Context, resumeID string) ([]Comment, error) {
	return s.Repo.ListComments(ctx, resumeID)
}

// GetComment fetches one comment.
func (s *Service) GetComment(ctx context.Context, id string) (Comment, error) {
	return s.Repo.GetComment(ctx, id)
}

// ResolveComment marks a comment resolved. Resolving again writes nothing.
// There is no way back to unresolved.
func (s *Service) ResolveComment(ctx context.Context, id string) (Comment, error) {
	return s.Repo.UpdateComment(ctx, id, func(c *Comment) error {
		if c.Resolved {
			return kv.ErrNoChange
		}
		c.Resolved = true
		return nil
	})
}

// DeleteComment permanently removes a comment and its replies.
func (s *Service) DeleteComment(ctx context.Context, id string) error {
	return s.Repo.DeleteComment(ctx, id)
}

// AddReply appends to a comment's thread.
func (s *Service) AddReply(ctx context.Context, author Identity, commentID, content string) (Comment, error) {
	content, err := cleanText("content", content, maxCommentLength, true)
	if err != nil {
		return Comment{}, err
	}
	now := s.now()
	return s.Repo.UpdateComment(ctx, commentID, func(c *Comment) error {
		c.Replies = append(c.Replies, Reply{Author: author, Content: content, Timestamp: now})
		return nil
	})
}

// SendReviewRequest records a pending review. Name and email must be
// non-empty; the email format is not checked and nothing is sent.
func (s *Service) SendReviewRequest(ctx context.Context, requester Identity, resumeID, reviewerName, reviewerEmail, message string) (ReviewRequest, error) {
	if strings.TrimSpace(resumeID) == "" {
		return ReviewRequest{}, fmt.Errorf("%w: resumeId is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(reviewerName)
	email := strings.TrimSpace(reviewerEmail)
	if name == "" || email == "" {
		return ReviewRequest{}, fmt.Errorf("%w: reviewer name and email are required", ErrInvalidInput)
	}
	msg, err := cleanText("message", message, maxMessageLength, false)
	if err != nil {
		return ReviewRequest{}, err
	}
	rr := ReviewRequest{
		ID:        uuid.NewString(),
		ResumeID:  resumeID,
		Requester: requester,
		Reviewer:  Reviewer{Name: name, Email: email},
		Message:   msg,
		Status:    StatusPending,
		CreatedAt: s.now(),
	}
	if err := s.Repo.InsertReview(ctx, rr); err != nil {
		return ReviewRequest{}, err
	}
	telemetry.Info("review.requested", map[string]any{
		"resume_id": resumeID,
		"review_id": rr.ID,
	})
	return rr, nil
}

// ListReviews returns a resume's review requests oldest first.
func (s *Service) ListReviews(ctx context.Context, resumeID string) ([]ReviewRequest, error) {
	return s.Repo.ListReviews(ctx, resumeID)
}

// GetReview fetches one review request.
func (s *Service) GetReview(ctx context.Context, id string) (ReviewRequest, error) {
	return s.Repo.GetReview(ctx, id)
}

// UpdateReviewStatus moves a review forward. Steps may be skipped but never
// reversed or repeated. Feedback is accepted only with completed.
func (s *Service) UpdateReviewStatus(ctx context.Context, id string, status ReviewStatus, feedback string) (ReviewRequest, error) {
	if status.Rank() < 0 {
		return ReviewRequest{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	feedback, err := cleanText("feedback", feedback, maxFeedbackLength, false)
	if err != nil {
		return ReviewRequest{}, err
	}
	if feedback != "" && status != StatusCompleted {
		return ReviewRequest{}, fmt.Errorf("%w: feedback is only accepted when completing a review", ErrInvalidInput)
	}
	now := s.now()
	return s.Repo.UpdateReview(ctx, id, func(rr *ReviewRequest) error {
		if status.Rank() <= rr.Status.Rank() {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, rr.Status, status)
		}
		rr.Status = status
		if status == StatusCompleted {
			rr.CompletedAt = &now
			rr.Feedback = feedback
		}
		return nil
	})
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func cleanText(field, value string, max int, required bool) (string, error) {
	value = strings.TrimSpace(value)
	if required && value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if utf8.RuneCountInString(value) > max {
		return "", fmt.Errorf("%w: %s longer than %d characters", ErrInvalidInput, field, max)
	}
	return value, nil
}
