// Package kv is the persistence port for workspace collections. Each
// collection is one JSON document stored under a fixed key and is read,
// modified and written back whole.
package kv

import (
	"context"
	"errors"
)

// Fixed collection keys.
const (
	KeyResumes         = "resumes"
	KeyVersions        = "resume_versions"
	KeyComments        = "resume_comments"
	KeyReviewRequests  = "review_requests"
	KeyATSScoreHistory = "ats_score_history"
)

var (
	// ErrQuotaExceeded is returned by Set when the backend refuses the write
	// for lack of space. Callers keep their in-memory state and may retry.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrNoChange may be returned from an Update callback to skip the write.
	ErrNoChange = errors.New("no change")
)

// Store is the get/set contract every backend satisfies.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
