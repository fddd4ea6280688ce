package services

import (
	"encoding/json"
	"errors"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/models"
)

func (suite *ServicesTestSuite) TestCreateTask_EmitsAssignedEvent() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")

	task, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{
		ActorID:    "lead",
		ProjectID:  project.ID,
		Title:      "Write docs",
		AssigneeID: strPtr("dev"),
		Origin:     "https://app.example.com",
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusTodo, task.Status)
	suite.Equal(models.TaskTypeTask, task.Type)
	suite.Require().NotNil(task.Assignee)
	suite.Equal("dev", task.Assignee.ID)

	suite.Require().Len(suite.events.events, 1)
	ev := suite.events.events[0]
	suite.Equal(constants.EventTaskAssigned, ev.Name)
	suite.Equal("task-assigned-"+task.ID, ev.ID)

	var data TaskAssignedData
	suite.Require().NoError(json.Unmarshal(ev.Data, &data))
	suite.Equal(task.ID, data.TaskID)
	suite.Equal("https://app.example.com", data.Origin)
}

func (suite *ServicesTestSuite) TestCreateTask_SendFailureStillCreatesTask() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead")
	suite.events.err = errors.New("queue down")

	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "lead", ProjectID: project.ID, Title: "T"})
	suite.NoError(err)
	suite.Equal(int64(1), suite.count(&models.Task{}, ""))
}

func (suite *ServicesTestSuite) TestCreateTask_Gates() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")

	_, err := suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "lead", ProjectID: "missing", Title: "T"})
	suite.ErrorIs(err, ErrProjectNotFound)

	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "dev", ProjectID: project.ID, Title: "T"})
	suite.ErrorIs(err, ErrTaskPermissionDenied)

	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "lead", ProjectID: project.ID, Title: "T", AssigneeID: strPtr("outsider")})
	suite.ErrorIs(err, ErrAssigneeNotMember)

	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "lead", ProjectID: project.ID, Title: " "})
	suite.ErrorIs(err, ErrTitleRequired)

	_, err = suite.tasks.CreateTask(suite.ctx, CreateTaskInput{ActorID: "lead", ProjectID: project.ID, Title: "T", Type: "EPIC"})
	suite.ErrorIs(err, ErrInvalidTaskType)

	suite.Equal(int64(0), suite.count(&models.Task{}, ""))
	suite.Empty(suite.events.events)
}

func (suite *ServicesTestSuite) TestUpdateTask() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")
	task := suite.createTask(project.ID, strPtr("dev"))

	done := models.TaskStatusDone
	updated, err := suite.tasks.UpdateTask(suite.ctx, task.ID, "lead", UpdateTaskInput{
		Status:        &done,
		ClearAssignee: true,
		ClearDueDate:  true,
	})
	suite.Require().NoError(err)
	suite.Equal(models.TaskStatusDone, updated.Status)
	suite.Nil(updated.AssigneeID)
	suite.Nil(updated.DueDate)
	suite.Equal("Task", updated.Title)

	_, err = suite.tasks.UpdateTask(suite.ctx, task.ID, "dev", UpdateTaskInput{Status: &done})
	suite.ErrorIs(err, ErrTaskPermissionDenied)

	_, err = suite.tasks.UpdateTask(suite.ctx, "missing", "lead", UpdateTaskInput{})
	suite.ErrorIs(err, ErrTaskNotFound)

	_, err = suite.tasks.UpdateTask(suite.ctx, task.ID, "lead", UpdateTaskInput{AssigneeID: strPtr("outsider")})
	suite.ErrorIs(err, ErrAssigneeNotMember)

	// updates never start another notification workflow
	suite.Empty(suite.events.events)
}

func (suite *ServicesTestSuite) TestDeleteTasks_AllOrNothing() {
	suite.seedWorkspace()
	led := suite.createProject("ws", "lead", "dev")
	other := suite.createProject("ws", "dev", "lead")
	t1 := suite.createTask(led.ID, nil)
	t2 := suite.createTask(led.ID, nil)
	foreign := suite.createTask(other.ID, nil)

	err := suite.tasks.DeleteTasks(suite.ctx, "lead", []string{t1.ID, foreign.ID})
	suite.ErrorIs(err, ErrTaskPermissionDenied)
	suite.Equal(int64(3), suite.count(&models.Task{}, ""))

	err = suite.tasks.DeleteTasks(suite.ctx, "lead", []string{t1.ID, "missing"})
	suite.ErrorIs(err, ErrTaskNotFound)
	suite.Equal(int64(3), suite.count(&models.Task{}, ""))

	suite.ErrorIs(suite.tasks.DeleteTasks(suite.ctx, "lead", nil), ErrNoTaskIDsProvided)

	err = suite.tasks.DeleteTasks(suite.ctx, "lead", []string{t1.ID, t2.ID, t1.ID})
	suite.Require().NoError(err)
	suite.Equal(int64(1), suite.count(&models.Task{}, ""))
}

func (suite *ServicesTestSuite) TestDeleteTasks_TooMany() {
	ids := make([]string, constants.MaxBulkDeleteTasks+1)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	suite.ErrorIs(suite.tasks.DeleteTasks(suite.ctx, "lead", ids), ErrTooManyTaskIDs)
}

func (suite *ServicesTestSuite) TestGenerateTasks_NotConfigured() {
	_, err := suite.tasks.GenerateTasks(suite.ctx, GenerateTasksInput{ActorID: "lead", ProjectID: "p", Text: "x"})
	suite.ErrorIs(err, ErrAIServiceNotConfigured)
}

func (suite *ServicesTestSuite) TestGenerateTasks_NormalizesSuggestions() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead", "dev")

	srv := fakeCompletions(suite.T(), `[
		{"title":"  Fix login  ","type":"BUG","priority":"HIGH","due_date":"2000-01-01T00:00:00Z"},
		{"title":"","type":"TASK","priority":"LOW"},
		{"title":"Plan sprint","type":"EPIC","priority":"URGENT","due_date":null}
	]`)
	suite.tasks.aiService = newTestAIService(srv)

	tasks, err := suite.tasks.GenerateTasks(suite.ctx, GenerateTasksInput{ActorID: "dev", ProjectID: project.ID, Text: "notes"})
	suite.Require().NoError(err)
	suite.Require().Len(tasks, 2)
	suite.Equal("Fix login", tasks[0].Title)
	suite.Nil(tasks[0].DueDate, "past deadlines are dropped")
	suite.Equal(models.TaskTypeTask, tasks[1].Type)
	suite.Equal(models.PriorityMedium, tasks[1].Priority)

	suite.Equal(int64(0), suite.count(&models.Task{}, ""), "suggestions are not stored")

	_, err = suite.tasks.GenerateTasks(suite.ctx, GenerateTasksInput{ActorID: "outsider", ProjectID: project.ID, Text: "notes"})
	suite.ErrorIs(err, ErrNotProjectMember)
}

func (suite *ServicesTestSuite) TestGenerateTasks_EmptyResult() {
	suite.seedWorkspace()
	project := suite.createProject("ws", "lead")
	suite.tasks.aiService = newTestAIService(fakeCompletions(suite.T(), `[]`))

	_, err := suite.tasks.GenerateTasks(suite.ctx, GenerateTasksInput{ActorID: "lead", ProjectID: project.ID, Text: "nothing"})
	suite.ErrorIs(err, ErrAINoTasksGenerated)
}
