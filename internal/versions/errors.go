package versions

import "errors"

var (
	ErrVersionNotFound = errors.New("version not found")
	ErrInvalidInput    = errors.New("invalid input")
)
