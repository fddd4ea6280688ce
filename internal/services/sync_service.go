package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrInvalidUserProfile = errors.New("user id and email are required")
	ErrInvalidWorkspaceID = errors.New("workspace id is required")
)

// SyncService mirrors users, workspaces and memberships owned by the
// identity provider into local storage. Every operation is safe to repeat.
type SyncService struct {
	userRepo      repository.UserRepository
	workspaceRepo repository.WorkspaceRepository
}

// NewSyncService creates a new SyncService.
func NewSyncService(userRepo repository.UserRepository, workspaceRepo repository.WorkspaceRepository) *SyncService {
	return &SyncService{
		userRepo:      userRepo,
		workspaceRepo: workspaceRepo,
	}
}

// UserProfile is a user as known by the identity provider.
type UserProfile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	ImageURL  string
}

// UpsertUser creates or refreshes a user.
func (s *SyncService) UpsertUser(ctx context.Context, profile UserProfile) (*models.User, error) {
	if profile.ID == "" || strings.TrimSpace(profile.Email) == "" {
		return nil, ErrInvalidUserProfile
	}

	user := &models.User{
		ID:    profile.ID,
		Email: strings.TrimSpace(profile.Email),
		Name:  models.FullName(profile.FirstName, profile.LastName),
		Image: profile.ImageURL,
	}
	if err := s.userRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}

// DeleteUser removes a user. Deleting an unknown user succeeds.
func (s *SyncService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// WorkspaceProfile is an organization as known by the identity provider.
type WorkspaceProfile struct {
	ID        string
	Name      string
	Slug      string
	ImageURL  string
	CreatedBy string
}

// UpsertWorkspace creates or refreshes a workspace and makes its creator an
// ADMIN. Re-delivery never produces a second workspace or membership.
func (s *SyncService) UpsertWorkspace(ctx context.Context, profile WorkspaceProfile) (*models.Workspace, error) {
	if profile.ID == "" {
		return nil, ErrInvalidWorkspaceID
	}

	ws := s.workspaceFromProfile(profile)
	ws.OwnerID = profile.CreatedBy

	owner := &models.WorkspaceMember{
		UserID: profile.CreatedBy,
		Role:   models.RoleAdmin,
	}
	if err := s.workspaceRepo.UpsertWithOwner(ctx, ws, owner); err != nil {
		return nil, fmt.Errorf("failed to upsert workspace: %w", err)
	}
	return ws, nil
}

// UpdateWorkspace refreshes the mirrored fields of a workspace. An update
// for a workspace that was never mirrored is ignored.
func (s *SyncService) UpdateWorkspace(ctx context.Context, profile WorkspaceProfile) error {
	if profile.ID == "" {
		return ErrInvalidWorkspaceID
	}

	err := s.workspaceRepo.UpdateProfile(ctx, s.workspaceFromProfile(profile))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Str("workspace_id", profile.ID).Msg("Skipping update of unknown workspace")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	return nil
}

// DeleteWorkspace removes a workspace with everything it owns.
func (s *SyncService) DeleteWorkspace(ctx context.Context, id string) error {
	if err := s.workspaceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	return nil
}

// MembershipInput identifies a provider membership. UserID wins over Email
// when both are set.
type MembershipInput struct {
	WorkspaceID string
	UserID      string
	Email       string
	Role        string
}

// AddWorkspaceMember mirrors a membership. The role is normalized and must
// be ADMIN or MEMBER; an existing membership is left as is.
func (s *SyncService) AddWorkspaceMember(ctx context.Context, input MembershipInput) (*models.WorkspaceMember, error) {
	role, ok := models.ParseWorkspaceRole(input.Role)
	if !ok {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidRole, input.Role)
	}

	userID, err := s.resolveUserID(ctx, input)
	if err != nil {
		return nil, err
	}

	if _, err := s.workspaceRepo.FindByID(ctx, input.WorkspaceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("failed to find workspace: %w", err)
	}

	existing, err := s.workspaceRepo.FindMember(ctx, input.WorkspaceID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to find workspace member: %w", err)
	}

	member := &models.WorkspaceMember{
		UserID:      userID,
		WorkspaceID: input.WorkspaceID,
		Role:        role,
	}
	if err := s.workspaceRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add workspace member: %w", err)
	}
	return member, nil
}

// RemoveWorkspaceMember drops a membership. Removing an unknown membership succeeds.
func (s *SyncService) RemoveWorkspaceMember(ctx context.Context, input MembershipInput) error {
	userID, err := s.resolveUserID(ctx, input)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.workspaceRepo.RemoveMember(ctx, input.WorkspaceID, userID); err != nil {
		return fmt.Errorf("failed to remove workspace member: %w", err)
	}
	return nil
}

func (s *SyncService) resolveUserID(ctx context.Context, input MembershipInput) (string, error) {
	if input.UserID != "" {
		return input.UserID, nil
	}
	if strings.TrimSpace(input.Email) == "" {
		return "", ErrUserNotFound
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	return user.ID, nil
}

func (s *SyncService) workspaceFromProfile(profile WorkspaceProfile) *models.Workspace {
	slug := profile.Slug
	if slug == "" {
		slug = utils.Slugify(profile.Name)
	}
	return &models.Workspace{
		ID:       profile.ID,
		Name:     profile.Name,
		Slug:     slug,
		ImageURL: profile.ImageURL,
	}
}
