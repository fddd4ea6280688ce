package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/project-management-api/internal/authz"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrWorkspaceNotFound      = errors.New("workspace not found")
	ErrInvalidWorkspaceName   = errors.New("workspace name cannot be empty")
	ErrWorkspaceExists        = errors.New("a workspace with this id or slug already exists")
	ErrNotWorkspaceAdmin      = errors.New("you don't have admin privileges for this workspace")
	ErrUserNotFound           = errors.New("user not found")
	ErrAlreadyWorkspaceMember = errors.New("user is already a member")
	ErrInvalidRole            = errors.New("role must be ADMIN or MEMBER")
)

// WorkspaceService provides business logic for workspace operations.
type WorkspaceService struct {
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(workspaceRepo repository.WorkspaceRepository, userRepo repository.UserRepository) *WorkspaceService {
	return &WorkspaceService{
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
	}
}

// CreateWorkspaceInput represents parameters to create a workspace from the client.
type CreateWorkspaceInput struct {
	ID          string
	Name        string
	Slug        string
	Description string
	ImageURL    string
	OwnerID     string
}

// CreateWorkspace creates a workspace owned by the caller, who becomes its
// only ADMIN. When the id already exists and the caller belongs to it the
// existing workspace is returned and created is false.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, input CreateWorkspaceInput) (ws *models.Workspace, created bool, err error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, false, ErrInvalidWorkspaceName
	}

	if input.ID != "" {
		existing, err := s.workspaceRepo.FindByID(ctx, input.ID, "Members")
		switch {
		case err == nil:
			if !authz.IsWorkspaceMember(existing, input.OwnerID) {
				return nil, false, ErrWorkspaceExists
			}
			loaded, err := s.loadTree(ctx, existing.ID)
			return loaded, false, err
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, false, fmt.Errorf("failed to find workspace: %w", err)
		}
	}

	if _, err := s.userRepo.FindByID(ctx, input.OwnerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}

	ws = &models.Workspace{
		ID:          input.ID,
		Name:        name,
		Slug:        slug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		OwnerID:     input.OwnerID,
	}
	owner := &models.WorkspaceMember{
		UserID: input.OwnerID,
		Role:   models.RoleAdmin,
	}

	if err := s.workspaceRepo.CreateWithOwner(ctx, ws, owner); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, ErrWorkspaceExists
		}
		return nil, false, fmt.Errorf("failed to create workspace: %w", err)
	}

	ws, err = s.loadTree(ctx, ws.ID)
	return ws, true, err
}

// ListWorkspaces returns every workspace the user belongs to with members,
// projects, tasks, comments and owner loaded.
func (s *WorkspaceService) ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error) {
	workspaces, err := s.workspaceRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return workspaces, nil
}

// AddMemberInput represents parameters to add a user to a workspace.
type AddMemberInput struct {
	ActorID     string
	WorkspaceID string
	Email       string
	Role        models.WorkspaceRole
	Message     string
}

// AddMember adds an existing user, found by email, to a workspace. Only
// workspace admins may add members.
func (s *WorkspaceService) AddMember(ctx context.Context, input AddMemberInput) (*models.WorkspaceMember, error) {
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	ws, err := s.workspaceRepo.FindByID(ctx, input.WorkspaceID, "Members")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	if !authz.IsWorkspaceAdmin(ws, input.ActorID) {
		return nil, ErrNotWorkspaceAdmin
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if authz.IsWorkspaceMember(ws, user.ID) {
		return nil, ErrAlreadyWorkspaceMember
	}

	member := &models.WorkspaceMember{
		UserID:      user.ID,
		WorkspaceID: ws.ID,
		Role:        input.Role,
		Message:     input.Message,
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyWorkspaceMember
		}
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	member.User = user
	return member, nil
}

func (s *WorkspaceService) loadTree(ctx context.Context, id string) (*models.Workspace, error) {
	ws, err := s.workspaceRepo.FindByID(ctx, id, repository.WorkspaceTree...)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}
	return ws, nil
}
