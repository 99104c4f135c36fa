package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Per-record failure kinds. Each surfaces as a reason string on the
// corresponding result row; none aborts the batch.
var (
	ErrFileNotReadable     = errors.New("file not readable")
	ErrNoCandidateFound    = errors.New("no candidate found")
	ErrAmbiguousCandidates = errors.New("ambiguous candidates")
	ErrTransferMissing     = errors.New("transfer document missing")
	ErrOCRFailure          = errors.New("ocr failure")
	ErrValueMismatch       = errors.New("declared and extracted values disagree")
	ErrWriteFailure        = errors.New("cannot write merged output")
	ErrInvalidInput        = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
