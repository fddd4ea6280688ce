package models

import (
	"strings"
	"time"
)

type WorkspaceRole string

const (
	RoleAdmin  WorkspaceRole = "ADMIN"
	RoleMember WorkspaceRole = "MEMBER"
)

// Valid reports whether r is one of the fixed workspace roles.
func (r WorkspaceRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// ParseWorkspaceRole normalizes a role name coming from the identity provider
// ("org:admin", "Admin", " member ") into a WorkspaceRole.
func ParseWorkspaceRole(raw string) (WorkspaceRole, bool) {
	name := strings.TrimSpace(raw)
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	role := WorkspaceRole(strings.ToUpper(name))
	return role, role.Valid()
}

type WorkspaceMember struct {
	ID          string        `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      string        `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_workspace_member" json:"userId"`
	WorkspaceID string        `gorm:"column:workspace_id;type:varchar(64);not null;uniqueIndex:idx_workspace_member" json:"workspaceId"`
	Role        WorkspaceRole `gorm:"type:varchar(20);not null;default:'MEMBER'" json:"role"`
	Message     string        `gorm:"type:text" json:"message"`
	CreatedAt   time.Time     `json:"createdAt"`

	// Relations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}
