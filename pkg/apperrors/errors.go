package apperrors

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDepth    = errors.New("depth must be positive")
	ErrUnknownTemplate = errors.New("unknown query template")
)
