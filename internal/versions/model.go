package versions

import "time"

// ChangeType records what produced a version.
type ChangeType string

const (
	ChangeAuto           ChangeType = "auto"
	ChangeManual         ChangeType = "manual"
	ChangeAIEnhanced     ChangeType = "ai-enhanced"
	ChangeImport         ChangeType = "import"
	ChangeTemplateChange ChangeType = "template-change"
)

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeAuto, ChangeManual, ChangeAIEnhanced, ChangeImport, ChangeTemplateChange:
		return true
	}
	return false
}

// Version is an immutable labeled snapshot. Only Label may change.
type Version struct {
	ID            string     `json:"id"`
	ResumeID      string     `json:"resumeId"`
	Content       string     `json:"content"`
	Timestamp     time.Time  `json:"timestamp"`
	Label         string     `json:"label"`
	ChangeType    ChangeType `json:"changeType"`
	ChangeSummary string     `json:"changeSummary"`
	ATSScore      *int       `json:"atsScore,omitempty"`
}

// RestoreLabel marks the safety checkpoint taken before a restore.
const RestoreLabel = "Before restore point"

// DefaultLimit is the per-resume cap when none is configured.
const DefaultLimit = 30

// MaxLabelLength bounds version labels in runes.
const MaxLabelLength = 100
