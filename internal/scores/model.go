package scores

import "time"

// Entry is one ATS scoring run.
type Entry struct {
	ID                 string         `json:"id"`
	ResumeID           string         `json:"resumeId"`
	Score              int            `json:"score"`
	Breakdown          map[string]int `json:"breakdown"`
	Suggestions        []string       `json:"suggestions"`
	JobDescriptionHash string         `json:"jobDescriptionHash,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// DefaultLimit caps history per resume.
const DefaultLimit = 50
