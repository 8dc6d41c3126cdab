// Package document models resume content as an ordered list of named
// section blocks. Content is serialized as
//
//	<section data-section="NAME">BODY</section>
//
// blocks. Text before the first block and between blocks is kept verbatim so
// Parse followed by String returns the input unchanged.
package document

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	openPrefix = `<section data-section="`
	openSuffix = `">`
	closeTag   = `</section>`

	// MaxSectionNameLength bounds section names in runes.
	MaxSectionNameLength = 60
)

// DefaultSections seeds a new resume.
var DefaultSections = []string{"Heading", "Summary", "Experience", "Education", "Skills"}

// Section is one named block. Body is opaque. Tail is whatever followed the
// block's closing tag up to the next block and travels with the block.
type Section struct {
	Name string
	Body string
	Tail string
}

// Document is the structured form of a content string.
type Document struct {
	Prelude  string
	Sections []Section
}

// Parse splits content into blocks. Unterminated markers are treated as
// plain text of the preceding block.
func Parse(content string) Document {
	var doc Document
	rest := content

	idx := strings.Index(rest, openPrefix)
	if idx < 0 {
		doc.Prelude = content
		return doc
	}
	doc.Prelude = rest[:idx]
	rest = rest[idx:]

	for len(rest) > 0 {
		sec, consumed, ok := parseBlock(rest)
		if !ok {
			// Not a well-formed block: fold into the previous tail or prelude.
			appendText(&doc, rest)
			break
		}
		rest = rest[consumed:]
		next := strings.Index(rest, openPrefix)
		if next < 0 {
			sec.Tail = rest
			rest = ""
		} else {
			sec.Tail = rest[:next]
			rest = rest[next:]
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func parseBlock(s string) (Section, int, bool) {
	if !strings.HasPrefix(s, openPrefix) {
		return Section{}, 0, false
	}
	nameEnd := strings.Index(s[len(openPrefix):], openSuffix)
	if nameEnd < 0 {
		return Section{}, 0, false
	}
	name := s[len(openPrefix) : len(openPrefix)+nameEnd]
	if strings.ContainsAny(name, "\"<>\n") {
		return Section{}, 0, false
	}
	bodyStart := len(openPrefix) + nameEnd + len(openSuffix)
	bodyEnd := matchingClose(s[bodyStart:])
	if bodyEnd < 0 {
		return Section{}, 0, false
	}
	return Section{
		Name: name,
		Body: s[bodyStart : bodyStart+bodyEnd],
	}, bodyStart + bodyEnd + len(closeTag), true
}

// matchingClose finds the </section> that closes the block, skipping nested
// <section ...> elements inside the body.
func matchingClose(s string) int {
	depth := 0
	for i := 0; i < len(s); {
		switch {
		case strings.HasPrefix(s[i:], closeTag):
			if depth == 0 {
				return i
			}
			depth--
			i += len(closeTag)
		case strings.HasPrefix(s[i:], "<section") && len(s) > i+8 && (s[i+8] == '>' || s[i+8] == ' '):
			depth++
			i += len("<section")
		default:
			i++
		}
	}
	return -1
}

func appendText(doc *Document, text string) {
	if n := len(doc.Sections); n > 0 {
		doc.Sections[n-1].Tail += text
		return
	}
	doc.Prelude += text
}

// String serializes the document.
func (d Document) String() string {
	var b strings.Builder
	b.WriteString(d.Prelude)
	for _, s := range d.Sections {
		b.WriteString(openPrefix)
		b.WriteString(s.Name)
		b.WriteString(openSuffix)
		b.WriteString(s.Body)
		b.WriteString(closeTag)
		b.WriteString(s.Tail)
	}
	return b.String()
}

// Names returns section names in document order.
func (d Document) Names() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}

// Index returns the position of name, or -1.
func (d Document) Index(name string) int {
	for i, s := range d.Sections {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Section looks up a block by name.
func (d Document) Section(name string) (Section, bool) {
	if i := d.Index(name); i >= 0 {
		return d.Sections[i], true
	}
	return Section{}, false
}

// ValidateSectionName rejects names that cannot round-trip through the
// serialized marker.
func ValidateSectionName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSectionName)
	}
	if trimmed != name {
		return fmt.Errorf("%w: leading or trailing whitespace", ErrInvalidSectionName)
	}
	if utf8.RuneCountInString(name) > MaxSectionNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidSectionName, MaxSectionNameLength)
	}
	if strings.ContainsAny(name, "\"<>&\r\n") {
		return fmt.Errorf("%w: contains markup characters", ErrInvalidSectionName)
	}
	return nil
}

// NewSection returns the template block appended by AddSection. Template
// passes names through unvalidated, so the heading text is escaped.
func NewSection(name string) Section {
	return Section{
		Name: name,
		Body: "\n<h2>" + html.EscapeString(name) + "</h2>\n<p></p>\n",
		Tail: "\n",
	}
}

// Template builds a fresh document holding the named sections.
func Template(names ...string) string {
	var doc Document
	for _, n := range names {
		doc.Sections = append(doc.Sections, NewSection(n))
	}
	return doc.String()
}
