// Package services implements the use cases behind the API: process definitions,
// tasks, the org directory and the process journal.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/bizflow/pkg/engine"
	"github.com/dukex/bizflow/pkg/orgdir"
	"github.com/dukex/bizflow/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest    = errors.New("invalid request")
	ErrDuplicateStepID   = errors.New("step ids must be unique within a process")
	ErrInvalidDocument   = errors.New("invalid process document")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrInvalidStatus     = errors.New("invalid instance status")
	ErrEmptyID           = errors.New("id cannot be empty")

	// Not Found Errors (404 Not Found).
	ErrProcessNotFound  = persistence.ErrProcessNotFound
	ErrInstanceNotFound = persistence.ErrInstanceNotFound
	ErrTaskNotFound     = persistence.ErrTaskNotFound
	ErrPositionNotFound = persistence.ErrPositionNotFound
	ErrUserNotFound     = errors.New("user not found")

	// Business Logic Conflicts (409 Conflict).
	ErrHierarchyCycle = orgdir.ErrHierarchyCycle
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrDuplicateStepID) ||
		errors.Is(err, ErrInvalidDocument) ||
		errors.Is(err, ErrInvalidTaskStatus) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrEmptyID) ||
		errors.Is(err, persistence.ErrInvalidID) ||
		errors.Is(err, engine.ErrEmptyProcess)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProcessNotFound) ||
		errors.Is(err, ErrInstanceNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrPositionNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrHierarchyCycle) ||
		errors.Is(err, persistence.ErrVersionConflict) ||
		errors.Is(err, engine.ErrInstanceNotActive) ||
		errors.Is(err, engine.ErrInstanceNotPaused)
}

// IsUnprocessableError checks if the request was valid but cannot be carried out
// with the current org directory (HTTP 422).
func IsUnprocessableError(err error) bool {
	return errors.Is(err, engine.ErrUnresolvedAssignee) ||
		errors.Is(err, engine.ErrStepNotInDefinition)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
