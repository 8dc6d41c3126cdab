package resumes

import (
	"errors"

	"resume-workspace/internal/shared/access"
)

var (
	ErrNotFound     = access.ErrResumeNotFound
	ErrForbidden    = access.ErrForbidden
	ErrInvalidInput = errors.New("invalid input")
)
