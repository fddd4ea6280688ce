package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseWorkspaceRole(t *testing.T) {
	tests := []struct {
		raw   string
		want  WorkspaceRole
		valid bool
	}{
		{"admin", RoleAdmin, true},
		{"Member", RoleMember, true},
		{"org:admin", RoleAdmin, true},
		{" org:member ", RoleMember, true},
		{"owner", WorkspaceRole("OWNER"), false},
		{"", WorkspaceRole(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseWorkspaceRole(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
		})
	}
}

func TestFullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", FullName("Ada", "Lovelace"))
	assert.Equal(t, "Ada", FullName("Ada", ""))
	assert.Equal(t, "Lovelace", FullName("", " Lovelace"))
	assert.Equal(t, "", FullName("", ""))
}

func TestTaskIsCompleted(t *testing.T) {
	task := Task{Status: TaskStatusInProgress}
	assert.False(t, task.IsCompleted())

	task.Status = TaskStatusDone
	assert.True(t, task.IsCompleted())
}

func TestEnumValid(t *testing.T) {
	assert.True(t, ProjectStatusOnHold.Valid())
	assert.False(t, ProjectStatus("ARCHIVED").Valid())
	assert.True(t, PriorityHigh.Valid())
	assert.False(t, Priority("URGENT").Valid())
	assert.True(t, TaskStatusInProgress.Valid())
	assert.False(t, TaskStatus("completed").Valid())
	assert.True(t, TaskTypeImprovement.Valid())
	assert.False(t, TaskType("EPIC").Valid())
}
