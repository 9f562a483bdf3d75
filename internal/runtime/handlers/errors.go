package handlers

import "errors"

var (
	ErrInvalidAttribute = errors.New("Invalid attribute")
	ErrInvalidAmount    = errors.New("Invalid amount")
)

// SemanticValidationError reports well-formed input a prover refuses. Its
// message is what the caller sees in Response.ErrorMessage.
type SemanticValidationError struct {
	Field string
	Err   error
}

func (e *SemanticValidationError) Error() string {
	return e.Err.Error()
}

func (e *SemanticValidationError) Unwrap() error {
	return e.Err
}
