package dto

import (
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
)

// CreateWorkspaceRequest is sent by the client when the identity provider
// reports an organization the API has not stored yet.
type CreateWorkspaceRequest struct {
	ID          string `json:"id" binding:"max=64"`
	Name        string `json:"name" binding:"required,max=255"`
	Slug        string `json:"slug" binding:"max=255"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (r CreateWorkspaceRequest) ToInput(ownerID string) services.CreateWorkspaceInput {
	return services.CreateWorkspaceInput{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		OwnerID:     ownerID,
	}
}

type AddWorkspaceMemberRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Role        string `json:"role" binding:"required,workspace_role"`
	WorkspaceID string `json:"workspaceId" binding:"required"`
	Message     string `json:"message"`
}

func (r AddWorkspaceMemberRequest) ToInput(actorID string) services.AddMemberInput {
	role, _ := models.ParseWorkspaceRole(r.Role)
	return services.AddMemberInput{
		ActorID:     actorID,
		WorkspaceID: r.WorkspaceID,
		Email:       r.Email,
		Role:        role,
		Message:     r.Message,
	}
}

// CreateProjectRequest identifies the lead and members by e-mail.
type CreateProjectRequest struct {
	WorkspaceID string               `json:"workspaceId" binding:"required"`
	Name        string               `json:"name" binding:"required,max=255"`
	Description string               `json:"description"`
	Status      models.ProjectStatus `json:"status"`
	Priority    models.Priority      `json:"priority"`
	Progress    int                  `json:"progress"`
	TeamLead    string               `json:"team_lead"`
	TeamMembers []string             `json:"teamMembers"`
	StartDate   *Date                `json:"start_date"`
	EndDate     *Date                `json:"end_date"`
}

func (r CreateProjectRequest) ToInput(actorID string) services.CreateProjectInput {
	return services.CreateProjectInput{
		ActorID:          actorID,
		WorkspaceID:      r.WorkspaceID,
		Name:             r.Name,
		Description:      r.Description,
		Status:           r.Status,
		Priority:         r.Priority,
		Progress:         r.Progress,
		TeamLeadEmail:    r.TeamLead,
		TeamMemberEmails: r.TeamMembers,
		StartDate:        r.StartDate.Ptr(),
		EndDate:          r.EndDate.Ptr(),
	}
}

// UpdateProjectRequest is a partial update; absent keys are left unchanged
// and a null date clears it.
type UpdateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
	Priority    *models.Priority      `json:"priority"`
	Progress    *int                  `json:"progress"`
	TeamLead    *string               `json:"team_lead"`
	StartDate   Nullable[Date]        `json:"start_date"`
	EndDate     Nullable[Date]        `json:"end_date"`
}

func (r UpdateProjectRequest) ToInput() services.UpdateProjectInput {
	input := services.UpdateProjectInput{
		Name:          r.Name,
		Description:   r.Description,
		Status:        r.Status,
		Priority:      r.Priority,
		Progress:      r.Progress,
		TeamLeadEmail: r.TeamLead,
	}
	input.StartDate, input.ClearStartDate = dateUpdate(r.StartDate)
	input.EndDate, input.ClearEndDate = dateUpdate(r.EndDate)
	return input
}

type AddProjectMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type CreateTaskRequest struct {
	ProjectID   string            `json:"projectId" binding:"required"`
	Title       string            `json:"title" binding:"required,max=255"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	Type        models.TaskType   `json:"type"`
	Priority    models.Priority   `json:"priority"`
	AssigneeID  *string           `json:"assigneeId"`
	DueDate     *Date             `json:"due_date"`
}

// ToInput keeps origin so the assignment e-mail links back to the client the
// task was created from.
func (r CreateTaskRequest) ToInput(actorID, origin string) services.CreateTaskInput {
	return services.CreateTaskInput{
		ActorID:     actorID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Type:        r.Type,
		Priority:    r.Priority,
		AssigneeID:  r.AssigneeID,
		DueDate:     r.DueDate.Ptr(),
		Origin:      origin,
	}
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
	Type        *models.TaskType   `json:"type"`
	Priority    *models.Priority   `json:"priority"`
	AssigneeID  Nullable[string]   `json:"assigneeId"`
	DueDate     Nullable[Date]     `json:"due_date"`
}

func (r UpdateTaskRequest) ToInput() services.UpdateTaskInput {
	input := services.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Type:        r.Type,
		Priority:    r.Priority,
	}
	if r.AssigneeID.Set {
		if r.AssigneeID.Value == nil || *r.AssigneeID.Value == "" {
			input.ClearAssignee = true
		} else {
			input.AssigneeID = r.AssigneeID.Value
		}
	}
	input.DueDate, input.ClearDueDate = dateUpdate(r.DueDate)
	return input
}

type DeleteTasksRequest struct {
	TaskIDs []string `json:"taskIds"`
}

type GenerateTasksRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
	Text      string `json:"text" binding:"required,max=10000"`
}

type CreateCommentRequest struct {
	TaskID  string `json:"taskId" binding:"required"`
	Content string `json:"content"`
}
