package apperrors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrMissingFile       = errors.New("required input file missing")
	ErrMissingColumn     = errors.New("required column missing")
	ErrPreconditionUnmet = errors.New("stage precondition unmet")
	ErrUnknownDateFormat = errors.New("unknown date format family")
	ErrUnknownReport     = errors.New("unknown report")
)
