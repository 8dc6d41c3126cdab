package resumes

import (
	"strings"

	"golang.org/x/net/html"

	"resume-workspace/internal/document"
	"resume-workspace/internal/extract"
)

// Profile is a structured profile export, e.g. from LinkedIn.
type Profile struct {
	FirstName string             `json:"firstName"`
	LastName  string             `json:"lastName"`
	Headline  string             `json:"headline"`
	Email     string             `json:"email"`
	Phone     string             `json:"phone"`
	Location  string             `json:"location"`
	Summary   string             `json:"summary"`
	Positions []ProfilePosition  `json:"positions"`
	Education []ProfileEducation `json:"education"`
	Skills    []string           `json:"skills"`
}

type ProfilePosition struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type ProfileEducation struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Name joins first and last name.
func (p Profile) Name() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// contentFromSections renders extracted text sections as serialized content.
func contentFromSections(sections []extract.Section) string {
	var doc document.Document
	for _, s := range sections {
		var b strings.Builder
		b.WriteString("\n<h2>" + html.EscapeString(s.Name) + "</h2>\n")
		for _, line := range s.Lines {
			b.WriteString("<p>" + html.EscapeString(line) + "</p>\n")
		}
		doc.Sections = append(doc.Sections, document.Section{Name: s.Name, Body: b.String(), Tail: "\n"})
	}
	if len(doc.Sections) == 0 {
		return document.Template(document.DefaultSections...)
	}
	return doc.String()
}

// contentFromProfile maps profile fields onto the default sections.
func contentFromProfile(p Profile) string {
	var sections []extract.Section

	heading := extract.Section{Name: "Heading"}
	heading.Lines = appendNonEmpty(heading.Lines, p.Name(), p.Headline,
		joinNonEmpty(" | ", p.Email, p.Phone, p.Location))
	sections = append(sections, heading)

	summary := extract.Section{Name: "Summary"}
	summary.Lines = appendNonEmpty(summary.Lines, p.Summary)
	sections = append(sections, summary)

	exp := extract.Section{Name: "Experience"}
	for _, pos := range p.Positions {
		exp.Lines = appendNonEmpty(exp.Lines,
			joinNonEmpty(" at ", pos.Title, pos.Company),
			joinNonEmpty(" - ", pos.StartDate, orPresent(pos.StartDate, pos.EndDate)),
			pos.Location, pos.Description)
	}
	sections = append(sections, exp)

	edu := extract.Section{Name: "Education"}
	for _, e := range p.Education {
		edu.Lines = appendNonEmpty(edu.Lines,
			joinNonEmpty(", ", e.Degree, e.Field),
			e.School,
			joinNonEmpty(" - ", e.StartDate, e.EndDate))
	}
	sections = append(sections, edu)

	skills := extract.Section{Name: "Skills"}
	skills.Lines = appendNonEmpty(skills.Lines, joinNonEmpty(", ", p.Skills...))
	sections = append(sections, skills)

	return contentFromSections(sections)
}

func orPresent(start, end string) string {
	if strings.TrimSpace(end) == "" && strings.TrimSpace(start) != "" {
		return "Present"
	}
	return end
}

func appendNonEmpty(lines []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			lines = append(lines, v)
		}
	}
	return lines
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
