package services

import (
	"errors"
	"fmt"
)

// Orchestrator-level error categories. Handlers map these to HTTP
// statuses with errors.Is / errors.As; messages never reveal whether a
// request exists when the caller does not own it.
var (
	ErrNotFound              = errors.New("return request not found")
	ErrSubOrderNotReturnable = errors.New("sub-order is not eligible for return")
	ErrWindowExpired         = errors.New("return window has expired")
	ErrDuplicateRequest      = errors.New("an active return request already exists for this sub-order")
	ErrInvalidDecision       = errors.New("decision must be 'approved' or 'rejected'")
)

// ValidationError reports a malformed or missing input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
