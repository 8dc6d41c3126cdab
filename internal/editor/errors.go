package editor

import (
	"context"
	"errors"

	"resume-workspace/internal/ai"
	"resume-workspace/internal/collab"
	"resume-workspace/internal/document"
	"resume-workspace/internal/export"
	"resume-workspace/internal/reorder"
	"resume-workspace/internal/resumes"
	"resume-workspace/internal/versions"
)

var (
	ErrSessionClosed     = errors.New("editing session is closed")
	ErrAIBusy            = errors.New("an ai request is already running for this resume")
	ErrStaleResponse     = errors.New("ai response arrived after the session moved on")
	ErrNothingToUndo     = errors.New("nothing to undo")
	ErrNothingToRedo     = errors.New("nothing to redo")
	ErrRedoDisabled      = errors.New("redo is disabled")
	ErrSelectionNotFound = errors.New("selection is not part of the current content")
	ErrEmptySelection    = errors.New("selection is empty")
	ErrStructureChanged  = errors.New("ai result would change the section structure")
	ErrDropOutdated      = errors.New("sections changed during the drag")

	ErrMissingJobDescription = errors.New("job description is required")
)

// Kind groups errors by how a caller should react.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: bad input; nothing changed.
	KindValidation
	// KindNotFound: the referenced resume, version or section does not exist.
	KindNotFound
	// KindStorage: persistence failed; in-memory state is kept.
	KindStorage
	// KindRemote: the AI gateway failed or has no credential.
	KindRemote
	// KindStructural: the request was a no-op in the current state.
	KindStructural
	// KindConflict: the session is busy, closed or moved on.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindRemote:
		return "remote"
	case KindStructural:
		return "structural"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrNothingToUndo),
		errors.Is(err, ErrNothingToRedo),
		errors.Is(err, reorder.ErrNoActiveDrag),
		errors.Is(err, reorder.ErrNotArmed),
		errors.Is(err, reorder.ErrUnknownSection),
		errors.Is(err, ErrDropOutdated):
		return KindStructural
	case errors.Is(err, ErrSessionClosed),
		errors.Is(err, ErrAIBusy),
		errors.Is(err, ErrStaleResponse):
		return KindConflict
	case errors.Is(err, resumes.ErrNotFound),
		errors.Is(err, versions.ErrVersionNotFound),
		errors.Is(err, document.ErrSectionNotFound),
		errors.Is(err, collab.ErrNotFound):
		return KindNotFound
	case errors.Is(err, document.ErrDuplicateSection),
		errors.Is(err, document.ErrLastSection),
		errors.Is(err, document.ErrInvalidOrder),
		errors.Is(err, document.ErrInvalidSectionName),
		errors.Is(err, resumes.ErrInvalidInput),
		errors.Is(err, versions.ErrInvalidInput),
		errors.Is(err, collab.ErrInvalidInput),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, ErrRedoDisabled),
		errors.Is(err, ErrSelectionNotFound),
		errors.Is(err, ErrEmptySelection),
		errors.Is(err, ErrMissingJobDescription):
		return KindValidation
	case errors.Is(err, ai.ErrMissingCredential),
		errors.Is(err, ErrStructureChanged):
		return KindRemote
	}
	var remote *ai.RemoteError
	if errors.As(err, &remote) || errors.Is(err, context.Canceled) {
		return KindRemote
	}
	// Everything else surfaced from a store call.
	return KindStorage
}
