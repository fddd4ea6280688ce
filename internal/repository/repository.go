package repository

import (
	"context"

	"github.com/yukikurage/project-management-api/internal/models"
)

// Preload paths shared by services that return deeply loaded entities.
var (
	WorkspaceTree = []string{
		"Owner",
		"Members.User",
		"Projects.Members.User",
		"Projects.Tasks.Assignee",
		"Projects.Tasks.Comments.User",
	}
	ProjectTree = []string{
		"Owner",
		"Members.User",
		"Tasks.Assignee",
		"Tasks.Comments.User",
	}
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Upsert creates the user or overwrites its profile fields.
	Upsert(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Delete removes a user; a missing row is not an error
	Delete(ctx context.Context, id string) error
}

// WorkspaceRepository defines the interface for workspace data access
type WorkspaceRepository interface {
	// CreateWithOwner creates a workspace and its first ADMIN membership in one transaction.
	CreateWithOwner(ctx context.Context, ws *models.Workspace, owner *models.WorkspaceMember) error

	// UpsertWithOwner is CreateWithOwner that tolerates re-delivery: an
	// existing workspace gets its profile fields refreshed and an existing
	// membership is left untouched.
	UpsertWithOwner(ctx context.Context, ws *models.Workspace, owner *models.WorkspaceMember) error

	// FindByID finds a workspace by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Workspace, error)

	// ListForUser lists every workspace userID belongs to, fully loaded
	ListForUser(ctx context.Context, userID string) ([]models.Workspace, error)

	// UpdateProfile overwrites name, slug, and image_url
	UpdateProfile(ctx context.Context, ws *models.Workspace) error

	// Delete removes a workspace; a missing row is not an error
	Delete(ctx context.Context, id string) error

	// AddMember adds a member to a workspace
	AddMember(ctx context.Context, member *models.WorkspaceMember) error

	// RemoveMember removes a member from a workspace
	RemoveMember(ctx context.Context, workspaceID, userID string) error

	// FindMember finds a specific workspace member
	FindMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithMembers creates a project and its member rows in one transaction
	CreateWithMembers(ctx context.Context, project *models.Project, memberIDs []string) error

	// FindByID finds a project by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Project, error)

	// FindByIDs finds projects by ID with their members
	FindByIDs(ctx context.Context, ids []string) ([]models.Project, error)

	// Update saves the project's own columns
	Update(ctx context.Context, project *models.Project) error

	// AddMember adds a member to a project
	AddMember(ctx context.Context, member *models.ProjectMember) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// FindByIDs finds every existing task among ids
	FindByIDs(ctx context.Context, ids []string) ([]models.Task, error)

	// Update saves the task's own columns
	Update(ctx context.Context, task *models.Task) error

	// DeleteByIDs deletes tasks in one statement
	DeleteByIDs(ctx context.Context, ids []string) error
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a comment and loads its author
	Create(ctx context.Context, comment *models.Comment) error

	// ListByTask lists the comments of a task, oldest first
	ListByTask(ctx context.Context, taskID string) ([]models.Comment, error)
}
