package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsafeSQL         = errors.New("unsafe SQL rejected")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrEngineTimeout     = errors.New("query exceeded timeout")
	ErrGeneration        = errors.New("AI generation failed")
	ErrUnknownTable      = errors.New("unknown table")
	ErrUnknownReportType = errors.New("unknown report type")
)
