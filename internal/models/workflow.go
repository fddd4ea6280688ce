package models

import (
	"time"

	"gorm.io/datatypes"
)

type WorkflowRunStatus string

const (
	WorkflowRunPending   WorkflowRunStatus = "PENDING"
	WorkflowRunSleeping  WorkflowRunStatus = "SLEEPING"
	WorkflowRunRunning   WorkflowRunStatus = "RUNNING"
	WorkflowRunCompleted WorkflowRunStatus = "COMPLETED"
	WorkflowRunFailed    WorkflowRunStatus = "FAILED"
)

// WorkflowRun is one invocation of a workflow function for one event.
type WorkflowRun struct {
	ID          string            `gorm:"type:varchar(36);primarykey" json:"id"`
	FunctionID  string            `gorm:"column:function_id;type:varchar(128);not null;uniqueIndex:idx_workflow_run_event" json:"function_id"`
	EventID     string            `gorm:"column:event_id;type:varchar(128);not null;uniqueIndex:idx_workflow_run_event" json:"event_id"`
	EventName   string            `gorm:"column:event_name;type:varchar(128);not null" json:"event_name"`
	Payload     datatypes.JSON    `json:"payload"`
	Status      WorkflowRunStatus `gorm:"type:varchar(20);not null;index:idx_workflow_run_due" json:"status"`
	WakeAt      time.Time         `gorm:"column:wake_at;not null;index:idx_workflow_run_due" json:"wake_at"`
	LockedUntil *time.Time        `gorm:"column:locked_until" json:"locked_until"`
	Attempts    int               `gorm:"not null;default:0" json:"attempts"`
	LastError   string            `gorm:"column:last_error;type:text" json:"last_error"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`

	// Relations
	Steps []WorkflowStep `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
}

// WorkflowStep memoizes the output of a completed step so that a replayed run
// skips it.
type WorkflowStep struct {
	RunID       string         `gorm:"column:run_id;type:varchar(36);primarykey" json:"run_id"`
	StepID      string         `gorm:"column:step_id;type:varchar(128);primarykey" json:"step_id"`
	Output      datatypes.JSON `json:"output"`
	CompletedAt time.Time      `gorm:"column:completed_at" json:"completed_at"`
}
