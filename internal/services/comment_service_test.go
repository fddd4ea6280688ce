package services

import (
	"strings"

	"github.com/yukikurage/project-management-api/internal/constants"
)

func (suite *ServicesTestSuite) TestAddComment_ProjectMembersOnly() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")
	task := suite.createTask(project.ID, nil)

	comment, err := suite.comments.AddComment(suite.ctx, "dev", task.ID, "  looks good  ")
	suite.Require().NoError(err)
	suite.Equal("looks good", comment.Content)
	suite.Require().NotNil(comment.User)
	suite.Equal("dev", comment.User.ID)

	_, err = suite.comments.AddComment(suite.ctx, "outsider", task.ID, "hi")
	suite.ErrorIs(err, ErrNotProjectMember)

	_, err = suite.comments.AddComment(suite.ctx, "dev", "missing", "hi")
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.comments.AddComment(suite.ctx, "dev", task.ID, "   ")
	suite.ErrorIs(err, ErrCommentEmpty)

	_, err = suite.comments.AddComment(suite.ctx, "dev", task.ID, strings.Repeat("x", constants.MaxCommentLength+1))
	suite.ErrorIs(err, ErrCommentTooLong)
}

func (suite *ServicesTestSuite) TestListComments_OldestFirst() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")
	task := suite.createTask(project.ID, nil)

	_, err := suite.comments.AddComment(suite.ctx, "lead", task.ID, "first")
	suite.Require().NoError(err)
	_, err = suite.comments.AddComment(suite.ctx, "dev", task.ID, "second")
	suite.Require().NoError(err)

	comments, err := suite.comments.ListComments(suite.ctx, task.ID)
	suite.Require().NoError(err)
	suite.Require().Len(comments, 2)
	suite.Equal("first", comments[0].Content)
	suite.Equal("second", comments[1].Content)
	suite.Equal("dev", comments[1].User.ID)

	_, err = suite.comments.ListComments(suite.ctx, "missing")
	suite.ErrorIs(err, ErrTaskNotFound)
}
