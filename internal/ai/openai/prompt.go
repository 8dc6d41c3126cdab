package openai

import (
	_ "embed"
	"fmt"
	"strings"
)

var (
	//go:embed prompts/ats.txt
	promptATS string
	//go:embed prompts/enhance.txt
	promptEnhance string
	//go:embed prompts/gaps.txt
	promptGaps string
	//go:embed prompts/keywords.txt
	promptKeywords string
)

func userPrompt(content, jobDescription string) string {
	return fmt.Sprintf("Resume:\n%s\n\nJob Description:\n%s", content, orNA(jobDescription))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
