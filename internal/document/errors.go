package document

import "errors"

var (
	ErrDuplicateSection   = errors.New("section already exists")
	ErrSectionNotFound    = errors.New("section not found")
	ErrLastSection        = errors.New("cannot remove the last section")
	ErrInvalidOrder       = errors.New("order does not match current sections")
	ErrInvalidSectionName = errors.New("invalid section name")
)
