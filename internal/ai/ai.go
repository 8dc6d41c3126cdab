// Package ai defines the enhancement gateway used by editing sessions. The
// gateway is a remote collaborator: results are typed, failures are either
// ErrMissingCredential or a *RemoteError.
package ai

import (
	"context"
)

// Gateway is the set of AI operations a session can request.
type Gateway interface {
	AnalyzeATS(ctx context.Context, content, jobDescription string) (ATSResult, error)
	EnhanceText(ctx context.Context, selection, surrounding string) (Enhancement, error)
	AnalyzeGaps(ctx context.Context, content string) (GapReport, error)
	MatchKeywords(ctx context.Context, content, jobDescription string) (KeywordMatch, error)
}

// ATSResult scores content against an applicant tracking system.
type ATSResult struct {
	Score       int            `json:"score"`
	Breakdown   map[string]int `json:"breakdown"`
	Suggestions []string       `json:"suggestions"`
}

// Enhancement is rewritten text for a selection.
type Enhancement struct {
	Text  string   `json:"text"`
	Notes []string `json:"notes,omitempty"`
}

type Gap struct {
	Area       string `json:"area"`
	Severity   string `json:"severity"`
	Suggestion string `json:"suggestion"`
}

// GapReport lists weaknesses found in a resume.
type GapReport struct {
	Summary string `json:"summary"`
	Gaps    []Gap  `json:"gaps"`
}

// KeywordMatch compares resume terms with a job description.
type KeywordMatch struct {
	Matched      []string `json:"matched"`
	Missing      []string `json:"missing"`
	MatchPercent int      `json:"matchPercent"`
}
