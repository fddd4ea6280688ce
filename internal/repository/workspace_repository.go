package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/project-management-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

// CreateWithOwner creates the workspace and the owner's membership atomically
func (r *GormWorkspaceRepository) CreateWithOwner(ctx context.Context, ws *models.Workspace, owner *models.WorkspaceMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(ws).Error; err != nil {
			return fmt.Errorf("create workspace: %w", err)
		}

		owner.WorkspaceID = ws.ID
		if err := tx.Omit(clause.Associations).Create(owner).Error; err != nil {
			return fmt.Errorf("create workspace owner: %w", err)
		}

		return nil
	})
}

// UpsertWithOwner creates or refreshes the workspace and ensures the owner membership
func (r *GormWorkspaceRepository) UpsertWithOwner(ctx context.Context, ws *models.Workspace, owner *models.WorkspaceMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "slug", "image_url", "updated_at"}),
			}).
			Create(ws).Error; err != nil {
			return fmt.Errorf("upsert workspace: %w", err)
		}

		owner.WorkspaceID = ws.ID
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "workspace_id"}},
				DoNothing: true,
			}).
			Create(owner).Error; err != nil {
			return fmt.Errorf("upsert workspace owner: %w", err)
		}

		return nil
	})
}

// FindByID finds a workspace by ID with optional preloading
func (r *GormWorkspaceRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Workspace, error) {
	var ws models.Workspace
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&ws).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListForUser lists the workspaces a user is a member of
func (r *GormWorkspaceRepository) ListForUser(ctx context.Context, userID string) ([]models.Workspace, error) {
	memberOf := r.db.Model(&models.WorkspaceMember{}).
		Select("workspace_id").
		Where("user_id = ?", userID)

	query := r.db.WithContext(ctx).Where("id IN (?)", memberOf).Order("created_at ASC")
	for _, p := range WorkspaceTree {
		query = query.Preload(p)
	}

	var workspaces []models.Workspace
	if err := query.Find(&workspaces).Error; err != nil {
		return nil, err
	}
	return workspaces, nil
}

// UpdateProfile updates the fields mirrored from the identity provider
func (r *GormWorkspaceRepository) UpdateProfile(ctx context.Context, ws *models.Workspace) error {
	result := r.db.WithContext(ctx).Model(&models.Workspace{}).
		Where("id = ?", ws.ID).
		Updates(map[string]interface{}{
			"name":      ws.Name,
			"slug":      ws.Slug,
			"image_url": ws.ImageURL,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a workspace
func (r *GormWorkspaceRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Workspace{}).Error
}

// AddMember adds a member to a workspace
func (r *GormWorkspaceRepository) AddMember(ctx context.Context, member *models.WorkspaceMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

// RemoveMember removes a member from a workspace
func (r *GormWorkspaceRepository) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&models.WorkspaceMember{}).Error
}

// FindMember finds a specific workspace member
func (r *GormWorkspaceRepository) FindMember(ctx context.Context, workspaceID, userID string) (*models.WorkspaceMember, error) {
	var member models.WorkspaceMember
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}
