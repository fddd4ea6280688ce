package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound            = errors.New("project not found")
	ErrInvalidProjectName         = errors.New("project name cannot be empty")
	ErrInvalidProjectStatus       = errors.New("invalid project status")
	ErrInvalidPriority            = errors.New("invalid priority")
	ErrInvalidProgress            = errors.New("progress must be between 0 and 100")
	ErrInvalidDateRange           = errors.New("end date cannot be before start date")
	ErrTeamLeadNotWorkspaceMember = errors.New("team lead must be a member of the workspace")
	ErrNotProjectUpdater          = errors.New("you don't have permission to update projects in this workspace")
	ErrNotProjectLead             = errors.New("only the project lead can perform this action")
	ErrAlreadyProjectMember       = errors.New("user is already a member of this project")
	ErrNotWorkspaceMember         = errors.New("user is not a member of the workspace")
)

// ProjectService provides business logic for project operations.
type ProjectService struct {
	projectRepo   repository.ProjectRepository
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, workspaceRepo repository.WorkspaceRepository, userRepo repository.UserRepository) *ProjectService {
	return &ProjectService{
		projectRepo:   projectRepo,
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
	}
}

// CreateProjectInput represents parameters to create a project.
type CreateProjectInput struct {
	ActorID          string
	WorkspaceID      string
	Name             string
	Description      string
	Status           models.ProjectStatus
	Priority         models.Priority
	Progress         int
	TeamLeadEmail    string
	TeamMemberEmails []string
	StartDate        *time.Time
	EndDate          *time.Time
}

// CreateProject creates a project in a workspace. Only workspace admins may
// create projects. Listed member emails that do not belong to the workspace
// are ignored; the team lead always becomes a member.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	ws, err := s.workspaceRepo.FindByID(ctx, input.WorkspaceID, "Members.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if !authz.IsWorkspaceAdmin(ws, input.ActorID) {
		return nil, ErrNotWorkspaceAdmin
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidProjectName
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if err := validateProjectFields(input.Status, input.Priority, input.Progress, input.StartDate, input.EndDate); err != nil {
		return nil, err
	}

	project := &models.Project{
		WorkspaceID: ws.ID,
		Name:        name,
		Description: input.Description,
		Status:      input.Status,
		Priority:    input.Priority,
		Progress:    input.Progress,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
	}

	memberIDs := make([]string, 0, len(input.TeamMemberEmails)+1)
	if email := strings.TrimSpace(input.TeamLeadEmail); email != "" {
		lead := workspaceMemberByEmail(ws, email)
		if lead == nil {
			return nil, ErrTeamLeadNotWorkspaceMember
		}
		project.TeamLead = &lead.UserID
		memberIDs = append(memberIDs, lead.UserID)
	}
	for _, email := range input.TeamMemberEmails {
		if m := workspaceMemberByEmail(ws, email); m != nil {
			memberIDs = append(memberIDs, m.UserID)
		}
	}

	if err := s.projectRepo.CreateWithMembers(ctx, project, uniqueStrings(memberIDs)); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.loadTree(ctx, project.ID)
}

// UpdateProjectInput represents a partial project update. Nil fields are kept.
type UpdateProjectInput struct {
	Name           *string
	Description    *string
	Status         *models.ProjectStatus
	Priority       *models.Priority
	Progress       *int
	TeamLeadEmail  *string
	StartDate      *time.Time
	EndDate        *time.Time
	ClearStartDate bool
	ClearEndDate   bool
}

// UpdateProject applies a partial update. Workspace admins and the project
// lead may update a project.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID, actorID string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, projectID, "Members", "Workspace.Members.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if !authz.CanUpdateProject(project.Workspace, project, actorID) {
		return nil, ErrNotProjectUpdater
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidProjectName
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		project.Status = *input.Status
	}
	if input.Priority != nil {
		project.Priority = *input.Priority
	}
	if input.Progress != nil {
		project.Progress = *input.Progress
	}
	if input.ClearStartDate {
		project.StartDate = nil
	} else if input.StartDate != nil {
		project.StartDate = input.StartDate
	}
	if input.ClearEndDate {
		project.EndDate = nil
	} else if input.EndDate != nil {
		project.EndDate = input.EndDate
	}

	if err := validateProjectFields(project.Status, project.Priority, project.Progress, project.StartDate, project.EndDate); err != nil {
		return nil, err
	}

	var newLead *models.WorkspaceMember
	if input.TeamLeadEmail != nil {
		email := strings.TrimSpace(*input.TeamLeadEmail)
		if email == "" {
			project.TeamLead = nil
		} else {
			newLead = workspaceMemberByEmail(project.Workspace, email)
			if newLead == nil {
				return nil, ErrTeamLeadNotWorkspaceMember
			}
			project.TeamLead = &newLead.UserID
		}
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	if newLead != nil && !authz.IsProjectMember(project, newLead.UserID) {
		if err := s.projectRepo.AddMember(ctx, &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    newLead.UserID,
		}); err != nil {
			return nil, fmt.Errorf("failed to add team lead to project: %w", err)
		}
	}

	return s.loadTree(ctx, project.ID)
}

// AddProjectMemberInput represents parameters to add a user to a project.
type AddProjectMemberInput struct {
	ActorID   string
	ProjectID string
	Email     string
}

// AddMember adds a workspace member to a project. Only the project lead may
// add members.
func (s *ProjectService) AddMember(ctx context.Context, input AddProjectMemberInput) (*models.ProjectMember, error) {
	project, err := s.projectRepo.FindByID(ctx, input.ProjectID, "Members", "Workspace.Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if !authz.IsProjectLead(project, input.ActorID) {
		return nil, ErrNotProjectLead
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if authz.IsProjectMember(project, user.ID) {
		return nil, ErrAlreadyProjectMember
	}
	if !authz.IsWorkspaceMember(project.Workspace, user.ID) {
		return nil, ErrNotWorkspaceMember
	}

	member := &models.ProjectMember{
		ProjectID: project.ID,
		UserID:    user.ID,
	}
	if err := s.projectRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add project member: %w", err)
	}

	member.User = user
	return member, nil
}

func (s *ProjectService) loadTree(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id, repository.ProjectTree...)
	if err != nil {
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return project, nil
}

func validateProjectFields(status models.ProjectStatus, priority models.Priority, progress int, start, end *time.Time) error {
	if !status.Valid() {
		return ErrInvalidProjectStatus
	}
	if !priority.Valid() {
		return ErrInvalidPriority
	}
	if progress < 0 || progress > 100 {
		return ErrInvalidProgress
	}
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

// workspaceMemberByEmail finds a member of ws by the email of its user.
// ws must have Members.User loaded.
func workspaceMemberByEmail(ws *models.Workspace, email string) *models.WorkspaceMember {
	email = models.NormalizeEmail(email)
	if ws == nil || email == "" {
		return nil
	}
	for i := range ws.Members {
		if u := ws.Members[i].User; u != nil && models.NormalizeEmail(u.Email) == email {
			return &ws.Members[i]
		}
	}
	return nil
}

// uniqueStrings removes duplicate values and keeps the first occurrence order.
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
