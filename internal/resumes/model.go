package resumes

import "time"

// Type distinguishes the master resume from job-specific copies.
type Type string

const (
	TypeMaster   Type = "master"
	TypeCampaign Type = "campaign"
)

const maxTitleLength = 100

// Resume is the persisted record. Content is the serialized section list.
type Resume struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	Title      string    `json:"title"`
	Type       Type      `json:"type"`
	Content    string    `json:"content"`
	ATSScore   *int      `json:"atsScore,omitempty"`
	TemplateID string    `json:"templateId,omitempty"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Summary is the list view of a resume.
type Summary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Type       Type      `json:"type"`
	ATSScore   *int      `json:"atsScore,omitempty"`
	TemplateID string    `json:"templateId,omitempty"`
	Sections   []string  `json:"sections"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
