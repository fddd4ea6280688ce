// Package authz holds the access predicates evaluated by services before a
// mutation. They operate on entities whose members are already loaded and
// never touch storage.
package authz

import "github.com/yukikurage/project-management-api/internal/models"

// IsWorkspaceAdmin reports whether userID holds the ADMIN role in ws.
func IsWorkspaceAdmin(ws *models.Workspace, userID string) bool {
	if ws == nil || userID == "" {
		return false
	}
	for _, m := range ws.Members {
		if m.UserID == userID && m.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// IsWorkspaceMember reports whether userID has any membership in ws.
func IsWorkspaceMember(ws *models.Workspace, userID string) bool {
	return FindWorkspaceMember(ws, userID) != nil
}

// FindWorkspaceMember returns the membership row of userID in ws, if any.
func FindWorkspaceMember(ws *models.Workspace, userID string) *models.WorkspaceMember {
	if ws == nil || userID == "" {
		return nil
	}
	for i := range ws.Members {
		if ws.Members[i].UserID == userID {
			return &ws.Members[i]
		}
	}
	return nil
}

// IsProjectLead reports whether userID is the team lead of p.
func IsProjectLead(p *models.Project, userID string) bool {
	return p != nil && userID != "" && p.TeamLead != nil && *p.TeamLead == userID
}

// IsProjectMember reports whether userID is on the member list of p.
func IsProjectMember(p *models.Project, userID string) bool {
	if p == nil || userID == "" {
		return false
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanUpdateProject is the gate of a project update: a workspace admin or the
// project's lead. ws must be the project's workspace with members loaded.
func CanUpdateProject(ws *models.Workspace, p *models.Project, userID string) bool {
	return IsWorkspaceAdmin(ws, userID) || IsProjectLead(p, userID)
}
