// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"strconv"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/google/uuid"
)

// CreateTestStep creates a step executed by the given position.
func CreateTestStep(id, positionID string, overrides ...func(*models.ProcessStep)) *models.ProcessStep {
	step := &models.ProcessStep{
		ID:           id,
		Title:        "Step " + id,
		AssigneeType: models.AssigneeTypePosition,
		AssigneeID:   positionID,
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// WithUserAssignee assigns the step directly to a user.
func WithUserAssignee(userID string) func(*models.ProcessStep) {
	return func(s *models.ProcessStep) {
		s.AssigneeType = models.AssigneeTypeUser
		s.AssigneeID = userID
	}
}

// WithStepTitle sets the step title.
func WithStepTitle(title string) func(*models.ProcessStep) {
	return func(s *models.ProcessStep) {
		s.Title = title
	}
}

// CreateTestProcess creates a process with one position-assigned step per
// positionID, with ids s1, s2 and titles Step 1, Step 2.
func CreateTestProcess(positionIDs []string, overrides ...func(*models.BusinessProcess)) *models.BusinessProcess {
	process := &models.BusinessProcess{
		ID:    uuid.New().String(),
		Title: "Test Process",
		Steps: make([]*models.ProcessStep, 0, len(positionIDs)),
	}

	for i, positionID := range positionIDs {
		step := CreateTestStep("s"+strconv.Itoa(i+1), positionID, WithStepTitle("Step "+strconv.Itoa(i+1)))
		step.Order = i
		process.Steps = append(process.Steps, step)
	}

	for _, override := range overrides {
		override(process)
	}

	return process
}

// WithID sets the process ID.
func WithID(id string) func(*models.BusinessProcess) {
	return func(p *models.BusinessProcess) {
		p.ID = id
	}
}

// WithTitle sets the process title.
func WithTitle(title string) func(*models.BusinessProcess) {
	return func(p *models.BusinessProcess) {
		p.Title = title
	}
}

// CreateTestPosition creates a position held by holderUserID, or a vacant one
// when holderUserID is empty.
func CreateTestPosition(id, holderUserID string, overrides ...func(*models.OrgPosition)) *models.OrgPosition {
	position := &models.OrgPosition{
		ID:    id,
		Title: "Position " + id,
	}

	if holderUserID != "" {
		position.HolderUserID = &holderUserID
	}

	for _, override := range overrides {
		override(position)
	}

	return position
}

// WithManager links the position to its manager position.
func WithManager(managerPositionID string) func(*models.OrgPosition) {
	return func(p *models.OrgPosition) {
		p.ManagerPositionID = &managerPositionID
	}
}

