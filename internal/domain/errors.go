package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the API.

// ErrNotFound indicates a resource was not found or does not belong to the
// caller.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a single-field validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// FieldError is one entry of a structured field-error list.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrInvalidInput carries the full field-error list produced by request
// validation. Nothing is persisted when it is returned.
type ErrInvalidInput struct {
	Fields []FieldError
}

func (e *ErrInvalidInput) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// ErrConflict indicates a uniqueness violation (duplicate category name+type,
// duplicate bill for a billing period).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrInvalidAccountType indicates an operation that requires a different
// account type, e.g. generating a bill for a checking account.
type ErrInvalidAccountType struct {
	AccountID string
	Type      AccountType
}

func (e *ErrInvalidAccountType) Error() string {
	return fmt.Sprintf("account %s has type %q, operation requires a credit-card account", e.AccountID, e.Type)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrUnauthorized indicates a missing or invalid token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}
