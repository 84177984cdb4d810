package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrNoAnalysis = errors.New("no analysis has completed yet")
	ErrDuplicate  = errors.New("duplicate identifier")
)
