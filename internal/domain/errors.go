package domain

import "errors"

var (
	ErrNotFound        = errors.New("source file not found")
	ErrFileTooLarge    = errors.New("source file exceeds maximum allowed size")
	ErrInvalidPage     = errors.New("page number out of range")
	ErrCorruptDocument = errors.New("document cannot be parsed as a PDF")
	ErrMissingAPIKey   = errors.New("gemini API key is required")
	ErrAuthentication  = errors.New("gemini API key rejected")
	ErrModelUnavailable = errors.New("gemini API unavailable")
	ErrTruncatedOutput = errors.New("model output truncated or unparsable")
)
