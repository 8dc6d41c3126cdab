package document

import "fmt"

// AddSection appends a template block for name.
func AddSection(content, name string) (string, error) {
	if err := ValidateSectionName(name); err != nil {
		return "", err
	}
	doc := Parse(content)
	if doc.Index(name) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrDuplicateSection, name)
	}
	if n := len(doc.Sections); n > 0 && doc.Sections[n-1].Tail == "" {
		doc.Sections[n-1].Tail = "\n"
	}
	doc.Sections = append(doc.Sections, NewSection(name))
	return doc.String(), nil
}

// RemoveSection drops the block named name.
func RemoveSection(content, name string) (string, error) {
	doc := Parse(content)
	i := doc.Index(name)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	if len(doc.Sections) == 1 {
		return "", ErrLastSection
	}
	doc.Sections = append(doc.Sections[:i:i], doc.Sections[i+1:]...)
	return doc.String(), nil
}

// ReorderSections rewrites block order to match order, which must name every
// current block exactly once.
func ReorderSections(content string, order []string) (string, error) {
	doc := Parse(content)
	if len(order) != len(doc.Sections) {
		return "", fmt.Errorf("%w: got %d names for %d sections", ErrInvalidOrder, len(order), len(doc.Sections))
	}
	// Names are unique in practice, but content imported from elsewhere may
	// repeat one, so match as a multiset and keep relative order of repeats.
	pool := make(map[string][]Section, len(doc.Sections))
	for _, s := range doc.Sections {
		pool[s.Name] = append(pool[s.Name], s)
	}
	out := make([]Section, 0, len(order))
	for _, name := range order {
		queue := pool[name]
		if len(queue) == 0 {
			return "", fmt.Errorf("%w: unexpected %q", ErrInvalidOrder, name)
		}
		out = append(out, queue[0])
		pool[name] = queue[1:]
	}
	doc.Sections = out
	return doc.String(), nil
}

// ReplaceSectionBody swaps the body of one block, leaving the rest intact.
func ReplaceSectionBody(content, name, body string) (string, error) {
	doc := Parse(content)
	i := doc.Index(name)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrSectionNotFound, name)
	}
	doc.Sections[i].Body = body
	return doc.String(), nil
}

// Names lists the section names of content.
func Names(content string) []string {
	return Parse(content).Names()
}
