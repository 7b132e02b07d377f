package internalerr

import "errors"

// Sentinel errors shared across lmclass packages
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrEmptyCorpus   = errors.New("corpus has no classes")
	ErrNotTrained    = errors.New("classifier not trained")
)
