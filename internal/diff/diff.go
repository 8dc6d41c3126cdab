// Package diff compares two content snapshots by word presence. Both sides
// are stripped of markup and reduced to word sets; repeated words count once
// and order is ignored.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Result summarizes a comparison.
type Result struct {
	Additions int      `json:"additions"`
	Deletions int      `json:"deletions"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
}

// Unchanged reports whether no word was added or removed.
func (r Result) Unchanged() bool {
	return r.Additions == 0 && r.Deletions == 0
}

// Summary renders the counts for a version's change summary.
func (r Result) Summary() string {
	if r.Unchanged() {
		return "No word changes"
	}
	return fmt.Sprintf("%d words added, %d words removed", r.Additions, r.Deletions)
}

// Compare computes additions = |new - old| and deletions = |old - new| over
// word sets.
func Compare(oldContent, newContent string) Result {
	oldSet := wordSet(oldContent)
	newSet := wordSet(newContent)

	res := Result{Added: []string{}, Removed: []string{}}
	for w := range newSet {
		if _, ok := oldSet[w]; !ok {
			res.Added = append(res.Added, w)
		}
	}
	for w := range oldSet {
		if _, ok := newSet[w]; !ok {
			res.Removed = append(res.Removed, w)
		}
	}
	sort.Strings(res.Added)
	sort.Strings(res.Removed)
	res.Additions = len(res.Added)
	res.Deletions = len(res.Removed)
	return res
}

// StripMarkup returns the text content of an HTML fragment with tags
// removed and entities decoded. Tags act as word boundaries.
func StripMarkup(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

// Words splits the text content of a snapshot on whitespace.
func Words(content string) []string {
	return strings.Fields(StripMarkup(content))
}

func wordSet(content string) map[string]struct{} {
	words := Words(content)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
