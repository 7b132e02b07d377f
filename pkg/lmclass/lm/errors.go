package lm

import (
	"fmt"

	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
)

// InvalidModeError is returned when a scoring mode is not supported
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("lm: invalid mode %q", e.Mode)
}

func (e *InvalidModeError) Unwrap() error { return internalerr.ErrInvalidInput }

// LabelMismatchError is returned when a document is added to the model of another class
type LabelMismatchError struct {
	Model    string
	Document string
}

func (e *LabelMismatchError) Error() string {
	return fmt.Sprintf("lm: document label %q does not match model label %q", e.Document, e.Model)
}

func (e *LabelMismatchError) Unwrap() error { return internalerr.ErrInvalidInput }
