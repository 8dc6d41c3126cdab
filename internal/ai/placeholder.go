package ai

import "context"

// PlaceholderGateway stands in when no provider is configured.
type PlaceholderGateway struct{}

func (PlaceholderGateway) AnalyzeATS(context.Context, string, string) (ATSResult, error) {
	return ATSResult{}, ErrMissingCredential
}

func (PlaceholderGateway) EnhanceText(context.Context, string, string) (Enhancement, error) {
	return Enhancement{}, ErrMissingCredential
}

func (PlaceholderGateway) AnalyzeGaps(context.Context, string) (GapReport, error) {
	return GapReport{}, ErrMissingCredential
}

func (PlaceholderGateway) MatchKeywords(context.Context, string, string) (KeywordMatch, error) {
	return KeywordMatch{}, ErrMissingCredential
}

var _ Gateway = PlaceholderGateway{}
