package collab

import "time"

// Identity is the author of comments and review requests. It is resolved once
// per request by the auth middleware.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Reply is an entry in a comment thread. Replies cannot be resolved or
// deleted on their own.
type Reply struct {
	Author    Identity  `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Comment is a threaded note on a resume, optionally tied to a section.
type Comment struct {
	ID        string    `json:"id"`
	ResumeID  string    `json:"resumeId"`
	Author    Identity  `json:"author"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Section   string    `json:"section,omitempty"`
	Resolved  bool      `json:"resolved"`
	Replies   []Reply   `json:"replies"`
}

// ReviewStatus moves strictly forward: pending, in-review, completed.
type ReviewStatus string

const (
	StatusPending   ReviewStatus = "pending"
	StatusInReview  ReviewStatus = "in-review"
	StatusCompleted ReviewStatus = "completed"
)

// Rank orders statuses; unknown statuses rank -1.
func (s ReviewStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusInReview:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// Reviewer is who a review request is addressed to.
type Reviewer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ReviewRequest is local bookkeeping for a requested review. Nothing is
// delivered to the reviewer.
type ReviewRequest struct {
	ID          string       `json:"id"`
	ResumeID    string       `json:"resumeId"`
	Requester   Identity     `json:"requester"`
	Reviewer    Reviewer     `json:"reviewer"`
	Message     string       `json:"message"`
	Status      ReviewStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	Feedback    string       `json:"feedback,omitempty"`
}

const (
	maxCommentLength  = 5000
	maxMessageLength  = 2000
	maxFeedbackLength = 10000
)
