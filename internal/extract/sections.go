package extract

import (
	"strings"
)

// Section is a run of lines under a recognized heading.
type Section struct {
	Name  string
	Lines []string
}

// headings maps lower-cased heading text to the section name used in the
// editor.
var headings = map[string]string{
	"summary":                 "Summary",
	"professional summary":    "Summary",
	"profile":                 "Summary",
	"objective":               "Summary",
	"about":                   "Summary",
	"experience":              "Experience",
	"work experience":         "Experience",
	"professional experience": "Experience",
	"employment history":      "Experience",
	"education":               "Education",
	"skills":                  "Skills",
	"technical skills":        "Skills",
	"core competencies":       "Skills",
	"projects":                "Projects",
	"certifications":          "Certifications",
	"awards":                  "Awards",
	"publications":            "Publications",
	"languages":               "Languages",
	"volunteer":               "Volunteer",
	"volunteering":            "Volunteer",
	"interests":               "Interests",
}

// SplitSections groups text into sections by recognized headings. Lines
// before the first heading land in a "Heading" section. Repeated headings
// are merged into the first occurrence.
func SplitSections(text string) []Section {
	var out []Section
	index := map[string]int{}
	current := -1

	open := func(name string) {
		if i, ok := index[name]; ok {
			current = i
			return
		}
		index[name] = len(out)
		current = len(out)
		out = append(out, Section{Name: name})
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if name, ok := matchHeading(line); ok {
			open(name)
			continue
		}
		if current < 0 {
			open("Heading")
		}
		out[current].Lines = append(out[current].Lines, line)
	}
	return out
}

func matchHeading(line string) (string, bool) {
	key := strings.ToLower(strings.TrimRight(line, ": "))
	if len(key) > 40 {
		return "", false
	}
	name, ok := headings[key]
	return name, ok
}
