package jobs

import (
	"context"
	"errors"

	"github.com/yukikurage/project-management-api/internal/clerk"
	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/workflow"
)

// ClerkSync mirrors Clerk lifecycle events into local storage.
type ClerkSync struct {
	sync *services.SyncService
}

func NewClerkSync(sync *services.SyncService) *ClerkSync {
	return &ClerkSync{sync: sync}
}

// Functions returns one workflow function per mirrored Clerk event.
func (c *ClerkSync) Functions() []workflow.Function {
	return []workflow.Function{
		{ID: "sync-user-from-clerk", Trigger: clerkEvent("user.created"), Handler: c.upsertUser},
		{ID: "update-user-from-clerk", Trigger: clerkEvent("user.updated"), Handler: c.upsertUser},
		{ID: "delete-user-with-clerk", Trigger: clerkEvent("user.deleted"), Handler: c.deleteUser},
		{ID: "sync-workspace-from-clerk", Trigger: clerkEvent("organization.created"), Handler: c.createWorkspace},
		{ID: "update-workspace-from-clerk", Trigger: clerkEvent("organization.updated"), Handler: c.updateWorkspace},
		{ID: "delete-workspace-with-clerk", Trigger: clerkEvent("organization.deleted"), Handler: c.deleteWorkspace},
		{ID: "sync-workspace-member-from-clerk", Trigger: clerkEvent("organizationInvitation.accepted"), Handler: c.acceptInvitation},
		{ID: "sync-membership-created-from-clerk", Trigger: clerkEvent("organizationMembership.created"), Handler: c.createMembership},
		{ID: "sync-membership-deleted-from-clerk", Trigger: clerkEvent("organizationMembership.deleted"), Handler: c.deleteMembership},
	}
}

func clerkEvent(kind string) string {
	return constants.ClerkEventPrefix + kind
}

func (c *ClerkSync) upsertUser(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.User
	if err := ev.Decode(&data); err != nil {
		return err
	}
	_, err := c.sync.UpsertUser(ctx, services.UserProfile{
		ID:        data.ID,
		Email:     data.PrimaryEmail(),
		FirstName: data.FirstName,
		LastName:  data.LastName,
		ImageURL:  data.ImageURL,
	})
	return classify(err)
}

func (c *ClerkSync) deleteUser(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.Deleted
	if err := ev.Decode(&data); err != nil {
		return err
	}
	return classify(c.sync.DeleteUser(ctx, data.ID))
}

func (c *ClerkSync) createWorkspace(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.Organization
	if err := ev.Decode(&data); err != nil {
		return err
	}
	_, err := c.sync.UpsertWorkspace(ctx, services.WorkspaceProfile{
		ID:        data.ID,
		Name:      data.Name,
		Slug:      data.Slug,
		ImageURL:  data.ImageURL,
		CreatedBy: data.CreatedBy,
	})
	return classify(err)
}

func (c *ClerkSync) updateWorkspace(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.Organization
	if err := ev.Decode(&data); err != nil {
		return err
	}
	return classify(c.sync.UpdateWorkspace(ctx, services.WorkspaceProfile{
		ID:       data.ID,
		Name:     data.Name,
		Slug:     data.Slug,
		ImageURL: data.ImageURL,
	}))
}

func (c *ClerkSync) deleteWorkspace(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.Deleted
	if err := ev.Decode(&data); err != nil {
		return err
	}
	return classify(c.sync.DeleteWorkspace(ctx, data.ID))
}

func (c *ClerkSync) acceptInvitation(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.OrganizationInvitation
	if err := ev.Decode(&data); err != nil {
		return err
	}
	_, err := c.sync.AddWorkspaceMember(ctx, services.MembershipInput{
		WorkspaceID: data.OrganizationID,
		UserID:      data.UserID,
		Email:       data.EmailAddress,
		Role:        data.RoleKey(),
	})
	return classify(err)
}

func (c *ClerkSync) createMembership(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.OrganizationMembership
	if err := ev.Decode(&data); err != nil {
		return err
	}
	_, err := c.sync.AddWorkspaceMember(ctx, services.MembershipInput{
		WorkspaceID: data.Organization.ID,
		UserID:      data.PublicUserData.UserID,
		Email:       data.PublicUserData.Identifier,
		Role:        data.Role,
	})
	return classify(err)
}

func (c *ClerkSync) deleteMembership(ctx context.Context, ev workflow.Event, _ *workflow.Step) error {
	var data clerk.OrganizationMembership
	if err := ev.Decode(&data); err != nil {
		return err
	}
	return classify(c.sync.RemoveWorkspaceMember(ctx, services.MembershipInput{
		WorkspaceID: data.Organization.ID,
		UserID:      data.PublicUserData.UserID,
		Email:       data.PublicUserData.Identifier,
	}))
}

// classify marks payload errors as permanent. Missing users or workspaces
// stay retriable since Clerk does not order its deliveries.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrInvalidUserProfile),
		errors.Is(err, services.ErrInvalidWorkspaceID):
		return workflow.NonRetriable(err)
	default:
		return err
	}
}
