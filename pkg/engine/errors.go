package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyProcess is returned when starting a definition without steps.
	ErrEmptyProcess = errors.New("process has no steps")

	// ErrUnresolvedAssignee is returned when a step's position is vacant or missing.
	ErrUnresolvedAssignee = errors.New("no resolvable assignee for step")

	// ErrInstanceNotActive is returned when pausing an instance that is not active.
	ErrInstanceNotActive = errors.New("process instance is not active")

	// ErrInstanceNotPaused is returned when resuming an instance that is not paused.
	ErrInstanceNotPaused = errors.New("process instance is not paused")

	// ErrStepNotInDefinition is returned when an instance points at a step its definition no longer has.
	ErrStepNotInDefinition = errors.New("current step is not part of the process definition")
)

// StepError reports which step of which process an engine error refers to.
type StepError struct {
	ProcessID string
	StepID    string
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("process %s step %s: %v", e.ProcessID, e.StepID, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func newStepError(processID, stepID string, err error) *StepError {
	return &StepError{ProcessID: processID, StepID: stepID, Err: err}
}
