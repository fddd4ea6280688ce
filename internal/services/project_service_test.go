package services

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

func (suite *ServicesTestSuite) seedWorkspace() {
	suite.createUser("admin")
	suite.createUser("lead")
	suite.createUser("dev")
	suite.createUser("outsider")
	suite.createWorkspace("ws", "admin")
	suite.addWorkspaceMember("ws", "lead", models.RoleMember)
	suite.addWorkspaceMember("ws", "dev", models.RoleMember)
}

func (suite *ServicesTestSuite) TestCreateProject_AdminWithLeadAndMembers() {
	suite.seedWorkspace()

	project, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{
		ActorID:          "admin",
		WorkspaceID:      "ws",
		Name:             "Apollo",
		TeamLeadEmail:    "lead@example.com",
		TeamMemberEmails: []string{"dev@example.com", "outsider@example.com", "lead@example.com"},
	})
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusActive, project.Status)
	suite.Equal(models.PriorityMedium, project.Priority)
	suite.Require().NotNil(project.TeamLead)
	suite.Equal("lead", *project.TeamLead)

	var memberIDs []string
	for _, m := range project.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	suite.ElementsMatch([]string{"lead", "dev"}, memberIDs)
}

func (suite *ServicesTestSuite) TestCreateProject_Gates() {
	suite.seedWorkspace()

	_, err := suite.projects.CreateProject(suite.ctx, CreateProjectInput{ActorID: "admin", WorkspaceID: "missing", Name: "X"})
	suite.ErrorIs(err, ErrWorkspaceNotFound)

	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{ActorID: "dev", WorkspaceID: "ws", Name: "X"})
	suite.ErrorIs(err, ErrNotWorkspaceAdmin)

	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{ActorID: "admin", WorkspaceID: "ws", Name: "X", TeamLeadEmail: "outsider@example.com"})
	suite.ErrorIs(err, ErrTeamLeadNotWorkspaceMember)

	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, -1)
	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{ActorID: "admin", WorkspaceID: "ws", Name: "X", StartDate: &start, EndDate: &end})
	suite.ErrorIs(err, ErrInvalidDateRange)

	_, err = suite.projects.CreateProject(suite.ctx, CreateProjectInput{ActorID: "admin", WorkspaceID: "ws", Name: "X", Progress: 101})
	suite.ErrorIs(err, ErrInvalidProgress)

	suite.Equal(int64(0), suite.count(&models.Project{}, ""))
}

func (suite *ServicesTestSuite) TestUpdateProject_AdminOrLead() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")

	progress := 40
	updated, err := suite.projects.UpdateProject(suite.ctx, project.ID, "lead", UpdateProjectInput{
		Name:     strPtr("Renamed"),
		Progress: &progress,
	})
	suite.Require().NoError(err)
	suite.Equal("Renamed", updated.Name)
	suite.Equal(40, updated.Progress)
	suite.Equal(models.ProjectStatusActive, updated.Status)

	status := models.ProjectStatusOnHold
	updated, err = suite.projects.UpdateProject(suite.ctx, project.ID, "admin", UpdateProjectInput{Status: &status})
	suite.Require().NoError(err)
	suite.Equal(models.ProjectStatusOnHold, updated.Status)
	suite.Equal("Renamed", updated.Name)

	_, err = suite.projects.UpdateProject(suite.ctx, project.ID, "dev", UpdateProjectInput{Name: strPtr("Nope")})
	suite.ErrorIs(err, ErrNotProjectUpdater)

	_, err = suite.projects.UpdateProject(suite.ctx, "missing", "admin", UpdateProjectInput{})
	suite.ErrorIs(err, ErrProjectNotFound)

	bad := models.ProjectStatus("ARCHIVED")
	_, err = suite.projects.UpdateProject(suite.ctx, project.ID, "admin", UpdateProjectInput{Status: &bad})
	suite.ErrorIs(err, ErrInvalidProjectStatus)
}

func (suite *ServicesTestSuite) TestUpdateProject_NewLeadJoinsProject() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead")

	updated, err := suite.projects.UpdateProject(suite.ctx, project.ID, "admin", UpdateProjectInput{
		TeamLeadEmail: strPtr("dev@example.com"),
	})
	suite.Require().NoError(err)
	suite.Require().NotNil(updated.TeamLead)
	suite.Equal("dev", *updated.TeamLead)
	suite.Equal(int64(1), suite.count(&models.ProjectMember{}, "project_id = ? AND user_id = ?", project.ID, "dev"))
}

func (suite *ServicesTestSuite) TestAddProjectMember() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead")

	member, err := suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: project.ID, Email: "dev@example.com"})
	suite.Require().NoError(err)
	suite.Equal("dev", member.UserID)

	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: project.ID, Email: "dev@example.com"})
	suite.ErrorIs(err, ErrAlreadyProjectMember)

	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: project.ID, Email: "outsider@example.com"})
	suite.ErrorIs(err, ErrNotWorkspaceMember)

	// workspace admins are not project leads
	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "admin", ProjectID: project.ID, Email: "outsider@example.com"})
	suite.ErrorIs(err, ErrNotProjectLead)

	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: project.ID, Email: "ghost@example.com"})
	suite.ErrorIs(err, ErrUserNotFound)

	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: "missing", Email: "dev@example.com"})
	suite.ErrorIs(err, ErrProjectNotFound)
}

func (suite *ServicesTestSuite) TestAddProjectMember_EmailIgnoresCase() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead")

	member, err := suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "lead", ProjectID: project.ID, Email: "DEV@Example.com"})
	suite.Require().NoError(err)
	suite.Equal("dev", member.UserID)

	// non-leads learn nothing about unknown emails
	_, err = suite.projects.AddMember(suite.ctx, AddProjectMemberInput{ActorID: "dev", ProjectID: project.ID, Email: "ghost@example.com"})
	suite.ErrorIs(err, ErrNotProjectLead)
}
