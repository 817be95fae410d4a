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

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrValidation   = errors.New("validation failed")
	ErrDatabase     = errors.New("database error")

	// ErrUnparseableDate marks text with no recognizable date token.
	// Non-fatal; resolved via the fallback policy.
	ErrUnparseableDate = errors.New("no recognizable date token")

	// ErrRoundingReconciliation marks an item whose rounded allocations
	// cannot be forced to the original total without a negative last month.
	ErrRoundingReconciliation = errors.New("rounding reconciliation failed")

	// ErrNegativeAmount is a programming-level invariant violation and the
	// only per-item error allowed to abort a batch.
	ErrNegativeAmount = errors.New("negative total amount")
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
