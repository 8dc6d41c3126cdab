package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"resume-workspace/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// Retrying retries a transient gateway failure once.
type Retrying struct {
	Base  Gateway
	Delay time.Duration
}

// WithRetry wraps base. A nil base stays nil.
func WithRetry(base Gateway) Gateway {
	if base == nil {
		return nil
	}
	return &Retrying{Base: base, Delay: retryBaseDelay}
}

func (r *Retrying) AnalyzeATS(ctx context.Context, content, jobDescription string) (ATSResult, error) {
	return retry(ctx, r.Delay, "analyze_ats", func() (ATSResult, error) {
		return r.Base.AnalyzeATS(ctx, content, jobDescription)
	})
}

func (r *Retrying) EnhanceText(ctx context.Context, selection, surrounding string) (Enhancement, error) {
	return retry(ctx, r.Delay, "enhance_text", func() (Enhancement, error) {
		return r.Base.EnhanceText(ctx, selection, surrounding)
	})
}

func (r *Retrying) AnalyzeGaps(ctx context.Context, content string) (GapReport, error) {
	return retry(ctx, r.Delay, "analyze_gaps", func() (GapReport, error) {
		return r.Base.AnalyzeGaps(ctx, content)
	})
}

func (r *Retrying) MatchKeywords(ctx context.Context, content, jobDescription string) (KeywordMatch, error) {
	return retry(ctx, r.Delay, "match_keywords", func() (KeywordMatch, error) {
		return r.Base.MatchKeywords(ctx, content, jobDescription)
	})
}

func retry[T any](ctx context.Context, delay time.Duration, op string, call func() (T, error)) (T, error) {
	out, err := call()
	if err == nil || !ShouldRetry(err) {
		return out, err
	}

	telemetry.Warn("ai.retry", map[string]any{
		"op":      op,
		"attempt": 1,
		"error":   err.Error(),
	})
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	return call()
}

// ShouldRetry reports whether err looks transient. Missing credentials and
// caller cancellation are never retried.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrMissingCredential) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrInvalidResult) {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) && re.Status > 0 {
		return re.Status >= 500 || re.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "eof")
}

var _ Gateway = (*Retrying)(nil)
