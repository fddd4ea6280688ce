package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Project struct {
	ID          string        `gorm:"type:varchar(36);primarykey" json:"id"`
	WorkspaceID string        `gorm:"column:workspace_id;type:varchar(64);not null;index" json:"workspaceId"`
	Name        string        `gorm:"type:varchar(255);not null" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Status      ProjectStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	Priority    Priority      `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Progress    int           `gorm:"not null;default:0" json:"progress"`
	TeamLead    *string       `gorm:"column:team_lead;type:varchar(64);index" json:"team_lead"`
	StartDate   *time.Time    `gorm:"column:start_date" json:"start_date"`
	EndDate     *time.Time    `gorm:"column:end_date" json:"end_date"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Relations
	Workspace *Workspace      `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Owner     *User           `gorm:"foreignKey:TeamLead;constraint:OnDelete:SET NULL" json:"owner,omitempty"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"members"`
	Tasks     []Task          `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"tasks"`
}
