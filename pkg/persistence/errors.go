package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrProcessNotFound indicates a process definition was not found.
	ErrProcessNotFound = errors.New("process not found")

	// ErrInstanceNotFound indicates a process instance was not found.
	ErrInstanceNotFound = errors.New("process instance not found")

	// ErrTaskNotFound indicates a task was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrPositionNotFound indicates an org position was not found.
	ErrPositionNotFound = errors.New("position not found")

	// ErrVersionConflict indicates a stale write: the stored record changed since it was read.
	ErrVersionConflict = errors.New("version conflict")

	// ErrInvalidID indicates an identifier that cannot be used as a storage key.
	ErrInvalidID = errors.New("invalid identifier")
)

// EntityError wraps storage errors with the operation and the entity involved.
type EntityError struct {
	Op     string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	Entity string // Entity kind: process, instance, task, position, user
	ID     string
	Err    error
}

func (e *EntityError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for entity errors.
func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewEntityError creates a new entity error with context.
func NewEntityError(op, entity, id string, err error) *EntityError {
	return &EntityError{
		Op:     op,
		Entity: entity,
		ID:     id,
		Err:    err,
	}
}

// IsProcessNotFound checks if an error indicates a process definition was not found.
func IsProcessNotFound(err error) bool {
	return errors.Is(err, ErrProcessNotFound)
}

// IsInstanceNotFound checks if an error indicates a process instance was not found.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// IsTaskNotFound checks if an error indicates a task was not found.
func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

// IsPositionNotFound checks if an error indicates an org position was not found.
func IsPositionNotFound(err error) bool {
	return errors.Is(err, ErrPositionNotFound)
}

// IsVersionConflict checks if an error indicates a lost update was prevented.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
