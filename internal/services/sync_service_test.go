package services

import (
	"github.com/yukikurage/project-management-api/internal/models"
)

func (suite *ServicesTestSuite) TestUpsertUser_CreatesThenUpdates() {
	profile := UserProfile{ID: "user_1", Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace"}

	user, err := suite.sync.UpsertUser(suite.ctx, profile)
	suite.Require().NoError(err)
	suite.Equal("Ada Lovelace", user.Name)

	profile.Email = "ada@example.com"
	profile.LastName = ""
	_, err = suite.sync.UpsertUser(suite.ctx, profile)
	suite.Require().NoError(err)

	var stored models.User
	suite.Require().NoError(suite.db.First(&stored, "id = ?", "user_1").Error)
	suite.Equal("ada@example.com", stored.Email)
	suite.Equal("Ada", stored.Name)
	suite.Equal(int64(1), suite.count(&models.User{}, ""))

	_, err = suite.sync.UpsertUser(suite.ctx, UserProfile{ID: "user_2"})
	suite.ErrorIs(err, ErrInvalidUserProfile)
}

func (suite *ServicesTestSuite) TestDeleteUser_MissingIsNotAnError() {
	suite.createUser("user_1")
	suite.NoError(suite.sync.DeleteUser(suite.ctx, "user_1"))
	suite.NoError(suite.sync.DeleteUser(suite.ctx, "user_1"))
	suite.Equal(int64(0), suite.count(&models.User{}, ""))
}

func (suite *ServicesTestSuite) TestUpsertWorkspace_RedeliveryIsIdempotent() {
	suite.createUser("creator")
	profile := WorkspaceProfile{ID: "org_1", Name: "Acme Corp", CreatedBy: "creator"}

	for i := 0; i < 2; i++ {
		_, err := suite.sync.UpsertWorkspace(suite.ctx, profile)
		suite.Require().NoError(err)
	}

	suite.Equal(int64(1), suite.count(&models.Workspace{}, ""))
	suite.Equal(int64(1), suite.count(&models.WorkspaceMember{}, "workspace_id = ? AND user_id = ? AND role = ?", "org_1", "creator", models.RoleAdmin))

	var ws models.Workspace
	suite.Require().NoError(suite.db.First(&ws, "id = ?", "org_1").Error)
	suite.Equal("acme-corp", ws.Slug)
}

func (suite *ServicesTestSuite) TestUpdateWorkspace() {
	suite.createUser("creator")
	suite.createWorkspace("org_1", "creator")

	err := suite.sync.UpdateWorkspace(suite.ctx, WorkspaceProfile{ID: "org_1", Name: "New Name", Slug: "new", ImageURL: "https://img"})
	suite.Require().NoError(err)

	var ws models.Workspace
	suite.Require().NoError(suite.db.First(&ws, "id = ?", "org_1").Error)
	suite.Equal("New Name", ws.Name)
	suite.Equal("new", ws.Slug)
	suite.Equal("https://img", ws.ImageURL)

	suite.NoError(suite.sync.UpdateWorkspace(suite.ctx, WorkspaceProfile{ID: "unknown", Name: "X"}))
}

func (suite *ServicesTestSuite) TestDeleteWorkspace() {
	suite.createUser("creator")
	suite.createWorkspace("org_1", "creator")

	suite.NoError(suite.sync.DeleteWorkspace(suite.ctx, "org_1"))
	suite.NoError(suite.sync.DeleteWorkspace(suite.ctx, "org_1"))
	suite.Equal(int64(0), suite.count(&models.Workspace{}, ""))
}

func (suite *ServicesTestSuite) TestAddWorkspaceMember_NormalizesRole() {
	suite.createUser("creator")
	suite.createUser("bob")
	suite.createWorkspace("org_1", "creator")

	member, err := suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", UserID: "bob", Role: "org:member"})
	suite.Require().NoError(err)
	suite.Equal(models.RoleMember, member.Role)

	// a second delivery leaves the membership alone
	_, err = suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", UserID: "bob", Role: "org:admin"})
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.count(&models.WorkspaceMember{}, "user_id = ?", "bob"))

	_, err = suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", UserID: "bob", Role: "org:billing"})
	suite.ErrorIs(err, ErrInvalidRole)

	_, err = suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "missing", UserID: "bob", Role: "admin"})
	suite.ErrorIs(err, ErrWorkspaceNotFound)
}

func (suite *ServicesTestSuite) TestAddWorkspaceMember_ByEmail() {
	suite.createUser("creator")
	suite.createUser("bob")
	suite.createWorkspace("org_1", "creator")

	member, err := suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", Email: "bob@example.com", Role: "Admin"})
	suite.Require().NoError(err)
	suite.Equal("bob", member.UserID)
	suite.Equal(models.RoleAdmin, member.Role)

	_, err = suite.sync.AddWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", Email: "ghost@example.com", Role: "Admin"})
	suite.ErrorIs(err, ErrUserNotFound)
}

func (suite *ServicesTestSuite) TestRemoveWorkspaceMember() {
	suite.createUser("creator")
	suite.createUser("bob")
	suite.createWorkspace("org_1", "creator")
	suite.addWorkspaceMember("org_1", "bob", models.RoleMember)

	suite.NoError(suite.sync.RemoveWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", UserID: "bob"}))
	suite.NoError(suite.sync.RemoveWorkspaceMember(suite.ctx, MembershipInput{WorkspaceID: "org_1", Email: "ghost@example.com"}))
	suite.Equal(int64(0), suite.count(&models.WorkspaceMember{}, "user_id = ?", "bob"))
}
