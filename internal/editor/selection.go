package editor

import (
	"slices"
	"strings"

	"golang.org/x/net/html"

	"resume-workspace/internal/document"
)

// selectionMatch is where a selection sits inside one section body.
type selectionMatch struct {
	section int
	offset  int
	length  int
}

// findSelection locates the first visible occurrence of selection. Only text
// between tags inside section bodies is searched, so section markers, tag
// names and attributes never match. The escaped form is tried when the raw
// text is not found, since bodies store entities.
func findSelection(doc document.Document, selection string) (selectionMatch, bool) {
	candidates := []string{selection}
	if escaped := html.EscapeString(selection); escaped != selection {
		candidates = append(candidates, escaped)
	}
	for i, sec := range doc.Sections {
		for _, c := range candidates {
			if at := textIndex(sec.Body, c); at >= 0 {
				return selectionMatch{section: i, offset: at, length: len(c)}, true
			}
		}
	}
	return selectionMatch{}, false
}

// textIndex returns the first index of needle in body that lies in a text
// node, or -1.
func textIndex(body, needle string) int {
	if needle == "" || strings.ContainsAny(needle, "<>") {
		return -1
	}
	for from := 0; from < len(body); {
		i := strings.Index(body[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		if strings.LastIndex(body[:i], "<") <= strings.LastIndex(body[:i], ">") {
			return i
		}
		from = i + 1
	}
	return -1
}

// replaceSelection swaps the first visible occurrence of selection for text.
// text is escaped, and the result is rejected if the section list changed.
func replaceSelection(content, selection, text string) (string, error) {
	doc := document.Parse(content)
	m, ok := findSelection(doc, selection)
	if !ok {
		return content, ErrSelectionNotFound
	}
	before := doc.Names()
	body := doc.Sections[m.section].Body
	doc.Sections[m.section].Body = body[:m.offset] + html.EscapeString(text) + body[m.offset+m.length:]
	next := doc.String()
	if !slices.Equal(before, document.Names(next)) {
		return content, ErrStructureChanged
	}
	return next, nil
}
