package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		label    string
		expected TaskStatus
		ok       bool
	}{
		{"done", TaskStatusDone, true},
		{"Done", TaskStatusDone, true},
		{" Выполнено ", TaskStatusDone, true},
		{"Готово", TaskStatusDone, true},
		{"В работе", TaskStatusInProgress, true},
		{"not started", TaskStatusNotStarted, true},
		{"canceled", TaskStatusCancelled, true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			status, ok := ParseTaskStatus(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, status)
		})
	}
}

func TestTaskStatus_Valid(t *testing.T) {
	assert.True(t, TaskStatusDone.Valid())
	assert.True(t, TaskStatusNotStarted.Valid())
	assert.False(t, TaskStatus("Выполнено").Valid())
}

func TestBusinessProcess_StepIndex(t *testing.T) {
	process := &BusinessProcess{
		Steps: []*ProcessStep{{ID: "a"}, {ID: "b"}},
	}

	assert.Equal(t, 0, process.StepIndex("a"))
	assert.Equal(t, 1, process.StepIndex("b"))
	assert.Equal(t, -1, process.StepIndex("c"))
	assert.Nil(t, process.Step("c"))
	assert.Equal(t, "b", process.Step("b").ID)
}

func TestProcessInstance_Accessors(t *testing.T) {
	instance := &ProcessInstance{}
	assert.Empty(t, instance.CurrentStep())
	assert.Empty(t, instance.LastTaskID())

	step := "s1"
	instance.CurrentStepID = &step
	instance.TaskIDs = []string{"t1", "t2"}

	assert.Equal(t, "s1", instance.CurrentStep())
	assert.Equal(t, "t2", instance.LastTaskID())
}

func TestOrgPosition_Vacant(t *testing.T) {
	empty := ""
	holder := "u1"

	assert.True(t, (&OrgPosition{}).Vacant())
	assert.True(t, (&OrgPosition{HolderUserID: &empty}).Vacant())
	assert.False(t, (&OrgPosition{HolderUserID: &holder}).Vacant())
}
