package ai

import (
	"sort"
	"strings"
)

// Normalize clamps scores and drops blank entries so callers can rely on
// result shape regardless of provider.
func (r ATSResult) Normalize() ATSResult {
	r.Score = clamp(r.Score)
	breakdown := make(map[string]int, len(r.Breakdown))
	for k, v := range r.Breakdown {
		if k = strings.TrimSpace(k); k != "" {
			breakdown[k] = clamp(v)
		}
	}
	r.Breakdown = breakdown
	r.Suggestions = compact(r.Suggestions)
	return r
}

func (e Enhancement) Normalize() Enhancement {
	e.Text = strings.TrimSpace(e.Text)
	e.Notes = compact(e.Notes)
	return e
}

func (g GapReport) Normalize() GapReport {
	g.Summary = strings.TrimSpace(g.Summary)
	gaps := make([]Gap, 0, len(g.Gaps))
	for _, gap := range g.Gaps {
		gap.Area = strings.TrimSpace(gap.Area)
		if gap.Area == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(gap.Severity)) {
		case "high":
			gap.Severity = "high"
		case "low":
			gap.Severity = "low"
		default:
			gap.Severity = "medium"
		}
		gap.Suggestion = strings.TrimSpace(gap.Suggestion)
		gaps = append(gaps, gap)
	}
	g.Gaps = gaps
	return g
}

// Normalize dedupes keyword lists case-insensitively and recomputes the
// match percentage from them.
func (k KeywordMatch) Normalize() KeywordMatch {
	k.Matched = dedupe(k.Matched)
	k.Missing = dedupe(k.Missing)
	total := len(k.Matched) + len(k.Missing)
	if total == 0 {
		k.MatchPercent = 0
		return k
	}
	k.MatchPercent = len(k.Matched) * 100 / total
	return k
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range compact(items) {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
