package services

import (
	"github.com/yukikurage/project-management-api/internal/models"
)

func (suite *ServicesTestSuite) TestCreateWorkspace_OwnerBecomesAdmin() {
	suite.createUser("alice")

	ws, created, err := suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{
		ID:      "org_1",
		Name:    "My Team",
		OwnerID: "alice",
	})
	suite.Require().NoError(err)
	suite.True(created)
	suite.Equal("org_1", ws.ID)
	suite.Equal("my-team", ws.Slug)
	suite.Require().Len(ws.Members, 1)
	suite.Equal("alice", ws.Members[0].UserID)
	suite.Equal(models.RoleAdmin, ws.Members[0].Role)
	suite.Require().NotNil(ws.Owner)
	suite.Equal("alice", ws.Owner.ID)
}

func (suite *ServicesTestSuite) TestCreateWorkspace_ExistingIDIsIdempotentForMembers() {
	suite.createUser("alice")
	suite.createUser("mallory")
	suite.createWorkspace("org_1", "alice")

	ws, created, err := suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{ID: "org_1", Name: "Other", OwnerID: "alice"})
	suite.Require().NoError(err)
	suite.False(created)
	suite.Equal("org_1", ws.Name)

	_, _, err = suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{ID: "org_1", Name: "Other", OwnerID: "mallory"})
	suite.ErrorIs(err, ErrWorkspaceExists)
	suite.Equal(int64(1), suite.count(&models.WorkspaceMember{}, ""))
}

func (suite *ServicesTestSuite) TestCreateWorkspace_Validation() {
	_, _, err := suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{Name: "  ", OwnerID: "alice"})
	suite.ErrorIs(err, ErrInvalidWorkspaceName)

	_, _, err = suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{Name: "Team", OwnerID: "ghost"})
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServicesTestSuite) TestCreateWorkspace_DuplicateSlug() {
	suite.createUser("alice")
	suite.createWorkspace("my-team", "alice")

	_, _, err := suite.workspaces.CreateWorkspace(suite.ctx, CreateWorkspaceInput{ID: "org_2", Name: "My Team", OwnerID: "alice"})
	suite.ErrorIs(err, ErrWorkspaceExists)
}

func (suite *ServicesTestSuite) TestListWorkspaces_OnlyMemberships() {
	suite.createUser("alice")
	suite.createUser("bob")
	suite.createWorkspace("ws_a", "alice")
	suite.createWorkspace("ws_b", "bob")
	project := suite.createProject("ws_a", "alice")
	task := suite.createTask(project.ID, strPtr("alice"))
	suite.Require().NoError(suite.db.Create(&models.Comment{TaskID: task.ID, UserID: "alice", Content: "hi"}).Error)

	workspaces, err := suite.workspaces.ListWorkspaces(suite.ctx, "alice")
	suite.Require().NoError(err)
	suite.Require().Len(workspaces, 1)
	suite.Equal("ws_a", workspaces[0].ID)
	suite.Require().Len(workspaces[0].Projects, 1)
	suite.Require().Len(workspaces[0].Projects[0].Tasks, 1)
	suite.Require().Len(workspaces[0].Projects[0].Tasks[0].Comments, 1)
	suite.Equal("alice", workspaces[0].Projects[0].Tasks[0].Comments[0].User.ID)

	none, err := suite.workspaces.ListWorkspaces(suite.ctx, "nobody")
	suite.Require().NoError(err)
	suite.Empty(none)
}

func (suite *ServicesTestSuite) TestAddMember() {
	suite.createUser("alice")
	suite.createUser("bob")
	suite.createUser("carol")
	suite.createWorkspace("ws", "alice")

	member, err := suite.workspaces.AddMember(suite.ctx, AddMemberInput{
		ActorID:     "alice",
		WorkspaceID: "ws",
		Email:       "bob@example.com",
		Role:        models.RoleMember,
		Message:     "welcome",
	})
	suite.Require().NoError(err)
	suite.Equal("bob", member.UserID)
	suite.Equal(models.RoleMember, member.Role)

	// members cannot add members
	_, err = suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "bob", WorkspaceID: "ws", Email: "carol@example.com", Role: models.RoleMember})
	suite.ErrorIs(err, ErrNotWorkspaceAdmin)

	_, err = suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "alice", WorkspaceID: "ws", Email: "bob@example.com", Role: models.RoleAdmin})
	suite.ErrorIs(err, ErrAlreadyWorkspaceMember)

	_, err = suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "alice", WorkspaceID: "ws", Email: "nobody@example.com", Role: models.RoleMember})
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "alice", WorkspaceID: "missing", Email: "carol@example.com", Role: models.RoleMember})
	suite.ErrorIs(err, ErrWorkspaceNotFound)

	_, err = suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "alice", WorkspaceID: "ws", Email: "carol@example.com", Role: "OWNER"})
	suite.ErrorIs(err, ErrInvalidRole)
}

func (suite *ServicesTestSuite) TestAddMember_EmailIgnoresCase() {
	suite.createUser("alice")
	suite.createUser("carol")
	suite.createWorkspace("ws", "alice")

	member, err := suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "alice", WorkspaceID: "ws", Email: "  Carol@Example.COM ", Role: models.RoleMember})
	suite.Require().NoError(err)
	suite.Equal("carol", member.UserID)
}

func (suite *ServicesTestSuite) TestAddMember_NonAdminForbiddenBeforeEmailLookup() {
	suite.createUser("alice")
	suite.createUser("bob")
	suite.createWorkspace("ws", "alice")
	suite.addWorkspaceMember("ws", "bob", models.RoleMember)

	// the admin check runs before the email lookup, so unknown and known
	// addresses answer the same
	_, err := suite.workspaces.AddMember(suite.ctx, AddMemberInput{ActorID: "bob", WorkspaceID: "ws", Email: "nobody@example.com", Role: models.RoleMember})
	suite.ErrorIs(err, ErrNotWorkspaceAdmin)
}
